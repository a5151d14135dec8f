package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yndnr/booklend-go/internal/cli/connection"
	"github.com/yndnr/booklend-go/internal/core/domain"
	"github.com/yndnr/booklend-go/internal/telemetry/logger"
)

// Requester sends authenticated catalog requests.
type Requester interface {
	Do(ctx context.Context, method, path string, body any) (*connection.Response, error)
}

// Guard allows protected operations only for an authenticated session.
type Guard interface {
	Require() error
}

// Service performs catalog operations for an authenticated session.
type Service struct {
	client Requester
	guard  Guard
	logger logger.Logger
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for response diagnostics.
func WithLogger(l logger.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a catalog service.
func NewService(client Requester, guard Guard, opts ...ServiceOption) *Service {
	s := &Service{client: client, guard: guard, logger: logger.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock, used for form defaults.
func (s *Service) Now() time.Time {
	return s.now()
}

// List returns every book. A response without a books array is an
// empty catalog; an unreadable one is logged and also read as empty.
func (s *Service) List(ctx context.Context) ([]domain.Book, error) {
	if err := s.guard.Require(); err != nil {
		return nil, err
	}

	resp, err := s.client.Do(ctx, http.MethodGet, "/books", nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var wrapped struct {
		Books []domain.Book `json:"books"`
	}
	wrappedErr := json.Unmarshal(resp.Body, &wrapped)
	if wrappedErr == nil {
		if wrapped.Books == nil {
			return []domain.Book{}, nil
		}
		return wrapped.Books, nil
	}

	var bare []domain.Book
	if err := json.Unmarshal(resp.Body, &bare); err == nil {
		return bare, nil
	}
	s.logger.WithContext(ctx).Warn("book list response unreadable, showing empty catalog",
		"status", resp.Status, "error", wrappedErr)
	return []domain.Book{}, nil
}

// Get fetches one book.
func (s *Service) Get(ctx context.Context, id string) (domain.Book, error) {
	if err := s.guard.Require(); err != nil {
		return domain.Book{}, err
	}
	path, err := bookPath(id)
	if err != nil {
		return domain.Book{}, err
	}

	resp, err := s.client.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.Book{}, err
	}
	if err := statusErr(resp, id); err != nil {
		return domain.Book{}, err
	}

	book, ok := decodeBook(resp.Body)
	if !ok {
		s.logger.WithContext(ctx).Warn("book response unreadable", "id", id, "status", resp.Status)
		return domain.Book{}, domain.ErrBadResponse.WithDetails("book " + id)
	}
	return book, nil
}

// Create validates form and posts a new book.
func (s *Service) Create(ctx context.Context, form BookForm) (domain.Book, error) {
	if err := s.guard.Require(); err != nil {
		return domain.Book{}, err
	}
	in, err := form.Validate(s.now())
	if err != nil {
		return domain.Book{}, err
	}

	resp, err := s.client.Do(ctx, http.MethodPost, "/books", in)
	if err != nil {
		return domain.Book{}, err
	}
	if err := resp.Err(); err != nil {
		return domain.Book{}, err
	}

	book, ok := decodeBook(resp.Body)
	if !ok {
		book = bookFromInput("", in)
	}
	return book, nil
}

// Update validates form and replaces book id.
func (s *Service) Update(ctx context.Context, id string, form BookForm) (domain.Book, error) {
	if err := s.guard.Require(); err != nil {
		return domain.Book{}, err
	}
	path, err := bookPath(id)
	if err != nil {
		return domain.Book{}, err
	}
	in, err := form.Validate(s.now())
	if err != nil {
		return domain.Book{}, err
	}

	resp, err := s.client.Do(ctx, http.MethodPut, path, in)
	if err != nil {
		return domain.Book{}, err
	}
	if err := statusErr(resp, id); err != nil {
		return domain.Book{}, err
	}

	book, ok := decodeBook(resp.Body)
	if !ok {
		book = bookFromInput(id, in)
	}
	return book, nil
}

// Delete removes book id. The acknowledgement body is ignored.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.guard.Require(); err != nil {
		return err
	}
	path, err := bookPath(id)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return statusErr(resp, id)
}

func bookPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.ErrMissingArgument.WithDetails("book id")
	}
	return "/books/" + url.PathEscape(id), nil
}

// statusErr maps 404 to domain.ErrBookNotFound.
func statusErr(resp *connection.Response, id string) error {
	if resp.Status == http.StatusNotFound {
		return domain.ErrBookNotFound.WithDetails(id).WithCause(resp.Err())
	}
	return resp.Err()
}

// decodeBook accepts {"book": {...}} or a bare book object.
func decodeBook(body []byte) (domain.Book, bool) {
	var wrapped struct {
		Book *domain.Book `json:"book"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Book != nil {
		return *wrapped.Book, true
	}

	var bare domain.Book
	if err := json.Unmarshal(body, &bare); err == nil && (bare.ID != "" || bare.Title != "") {
		return bare, true
	}
	return domain.Book{}, false
}

func bookFromInput(id string, in domain.BookInput) domain.Book {
	return domain.Book{
		ID:          id,
		Title:       in.Title,
		Author:      in.Author,
		Description: in.Description,
		Genre:       in.Genre,
		Year:        in.Year,
		Price:       in.Price,
		Available:   in.Available,
	}
}
