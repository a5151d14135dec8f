package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func init() {
	// The catalog service speaks JSON numbers for price.
	decimal.MarshalJSONWithoutQuotes = true
}

// Book is the client's transient snapshot of a server-owned catalog record.
// No invariants are enforced on it; the server is authoritative.
type Book struct {
	ID          string          `json:"_id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Author      string          `json:"author" yaml:"author"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty" table:"wide"`
	Genre       string          `json:"genre,omitempty" yaml:"genre,omitempty"`
	Year        int             `json:"year,omitempty" yaml:"year,omitempty"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Available   bool            `json:"available" yaml:"available"`
}

// UnmarshalJSON decodes a catalog record. A record without "available"
// is available.
func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	p := plain{Available: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = Book(p)
	return nil
}

// BookInput is the validated request body for create and update.
type BookInput struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Description string          `json:"description"`
	Genre       string          `json:"genre"`
	Year        int             `json:"year"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
}
