package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yndnr/booklend-go/internal/core/domain"
)

// MinYear is the earliest accepted publication year.
const MinYear = 1000

// BookForm holds what the user typed, unvalidated.
type BookForm struct {
	Title       string
	Author      string
	Description string
	Genre       string
	Year        string
	Price       string
	Available   bool

	// storedYear is the year the server already holds. Keeping it is
	// always allowed, even outside the accepted range.
	storedYear int
}

// NewForm returns an empty form. New books are available by default.
func NewForm() BookForm {
	return BookForm{Available: true}
}

// FormFromBook pre-fills an edit form from a fetched book. A zero year
// or price shows as empty.
func FormFromBook(b domain.Book) BookForm {
	f := BookForm{
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Genre:       b.Genre,
		Available:   b.Available,
		storedYear:  b.Year,
	}
	if b.Year != 0 {
		f.Year = strconv.Itoa(b.Year)
	}
	if !b.Price.IsZero() {
		f.Price = b.Price.String()
	}
	return f
}

// FormPatch carries the fields a user changed. Nil fields are untouched.
type FormPatch struct {
	Title       *string
	Author      *string
	Description *string
	Genre       *string
	Year        *string
	Price       *string
	Available   *bool
}

// Empty reports whether the patch changes nothing.
func (p FormPatch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.Description == nil &&
		p.Genre == nil && p.Year == nil && p.Price == nil && p.Available == nil
}

// Apply returns a copy of f with the patch applied.
func (f BookForm) Apply(p FormPatch) BookForm {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.Title, p.Title)
	set(&f.Author, p.Author)
	set(&f.Description, p.Description)
	set(&f.Genre, p.Genre)
	set(&f.Year, p.Year)
	set(&f.Price, p.Price)
	if p.Available != nil {
		f.Available = *p.Available
	}
	return f
}

// Validate checks the form and builds the request body.
//
// Title and author are required. Year, when given, must be an integer
// from MinYear to the current year unless it is the year the edited book
// already has; it defaults to the current year.
// Price, when given, must be a non-negative decimal; it defaults to 0.
// Every failing field is reported in one *domain.ValidationError.
func (f BookForm) Validate(now time.Time) (domain.BookInput, error) {
	var fields []domain.FieldError
	in := domain.BookInput{
		Title:       strings.TrimSpace(f.Title),
		Author:      strings.TrimSpace(f.Author),
		Description: strings.TrimSpace(f.Description),
		Genre:       strings.TrimSpace(f.Genre),
		Year:        now.Year(),
		Price:       decimal.Zero,
		Available:   f.Available,
	}

	if in.Title == "" {
		fields = append(fields, domain.FieldError{Field: "title", Message: "is required"})
	}
	if in.Author == "" {
		fields = append(fields, domain.FieldError{Field: "author", Message: "is required"})
	}

	if y := strings.TrimSpace(f.Year); y != "" {
		year, err := strconv.Atoi(y)
		kept := err == nil && f.storedYear != 0 && year == f.storedYear
		if !kept && (err != nil || year < MinYear || year > now.Year()) {
			fields = append(fields, domain.FieldError{
				Field:   "year",
				Message: fmt.Sprintf("must be a year between %d and %d", MinYear, now.Year()),
			})
		} else {
			in.Year = year
		}
	}

	if p := strings.TrimSpace(f.Price); p != "" {
		price, err := decimal.NewFromString(p)
		if err != nil || price.IsNegative() {
			fields = append(fields, domain.FieldError{Field: "price", Message: "must be a non-negative number"})
		} else {
			in.Price = price
		}
	}

	if len(fields) > 0 {
		return domain.BookInput{}, domain.NewValidationError(fields...)
	}
	return in, nil
}
