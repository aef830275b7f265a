package domain

import (
	"strings"
	"time"
)

// Book is one catalogue title and its copy counters.
//
// Invariants:
//   - Title, Author and ISBN are non-empty and trimmed
//   - 0 <= Year <= current calendar year
//   - 0 <= Available <= Quantity
type Book struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	Year      int    `json:"year"`
	Quantity  int    `json:"quantity"`
	Available int    `json:"available"`
}

// BookChanges lists the columns a caller wants to overwrite. Nil fields are left untouched.
type BookChanges struct {
	Title     *string
	Author    *string
	ISBN      *string
	Year      *int
	Quantity  *int
	Available *int
}

func (c BookChanges) IsEmpty() bool {
	return c.Title == nil && c.Author == nil && c.ISBN == nil &&
		c.Year == nil && c.Quantity == nil && c.Available == nil
}

func NewBook(title, author, isbn string, year, quantity int) (*Book, error) {
	b := &Book{
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		ISBN:      strings.TrimSpace(isbn),
		Year:      year,
		Quantity:  quantity,
		Available: quantity,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks every invariant of b.
func (b *Book) Validate() error {
	if err := validateBookText(b.Title, b.Author, b.ISBN); err != nil {
		return err
	}
	if err := validateYear(b.Year); err != nil {
		return err
	}
	if b.Quantity < 0 {
		return Invalid("quantity cannot be negative")
	}
	if b.Available < 0 {
		return Invalid("available cannot be negative")
	}
	if b.Available > b.Quantity {
		return Invalid("available cannot exceed quantity")
	}
	return nil
}

// Borrow takes one copy. It reports false when no copy is left.
func (b *Book) Borrow() bool {
	if b.Available > 0 {
		b.Available--
		return true
	}
	return false
}

// ReturnCopy puts one copy back. It reports false when every copy is already on the shelf.
func (b *Book) ReturnCopy() bool {
	if b.Available < b.Quantity {
		b.Available++
		return true
	}
	return false
}

func (b *Book) IsAvailable() bool { return b.Available > 0 }

// Apply validates c against b and assigns it. On error neither b nor c is changed.
// On success the text fields in c are replaced by their trimmed form, so the stored
// value matches b.
func (b *Book) Apply(c *BookChanges) error {
	next := *b
	norm := *c
	if c.Title != nil {
		v := strings.TrimSpace(*c.Title)
		if v == "" {
			return Invalid("title cannot be empty")
		}
		next.Title, norm.Title = v, &v
	}
	if c.Author != nil {
		v := strings.TrimSpace(*c.Author)
		if v == "" {
			return Invalid("author cannot be empty")
		}
		next.Author, norm.Author = v, &v
	}
	if c.ISBN != nil {
		v := strings.TrimSpace(*c.ISBN)
		if v == "" {
			return Invalid("isbn cannot be empty")
		}
		next.ISBN, norm.ISBN = v, &v
	}
	if c.Year != nil {
		if err := validateYear(*c.Year); err != nil {
			return err
		}
		next.Year = *c.Year
	}
	if c.Quantity != nil {
		if *c.Quantity < 0 {
			return Invalid("quantity cannot be negative")
		}
		next.Quantity = *c.Quantity
	}
	if c.Available != nil {
		if *c.Available < 0 {
			return Invalid("available cannot be negative")
		}
		next.Available = *c.Available
	}
	if next.Available > next.Quantity {
		return Invalid("available cannot exceed quantity")
	}
	*b, *c = next, norm
	return nil
}

func validateBookText(title, author, isbn string) error {
	switch {
	case title == "":
		return Invalid("title cannot be empty")
	case author == "":
		return Invalid("author cannot be empty")
	case isbn == "":
		return Invalid("isbn cannot be empty")
	}
	return nil
}

func validateYear(year int) error {
	if year < 0 || year > time.Now().Year() {
		return Invalid("invalid year")
	}
	return nil
}
