package books

import (
	"github.com/doug-martin/goqu/v9"

	"library-backend/internal/domain"
)

var bookColumns = []any{"id", "title", "author", "isbn", "year", "quantity", "available"}

// bookRow is one row of the books table (scan target).
type bookRow struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Author    string `db:"author"`
	ISBN      string `db:"isbn"`
	Year      int    `db:"year"`
	Quantity  int    `db:"quantity"`
	Available int    `db:"available"`
}

func (r bookRow) toModel() domain.Book {
	return domain.Book{
		ID:        r.ID,
		Title:     r.Title,
		Author:    r.Author,
		ISBN:      r.ISBN,
		Year:      r.Year,
		Quantity:  r.Quantity,
		Available: r.Available,
	}
}

func insertRecord(b domain.Book) goqu.Record {
	return goqu.Record{
		"title":     b.Title,
		"author":    b.Author,
		"isbn":      b.ISBN,
		"year":      b.Year,
		"quantity":  b.Quantity,
		"available": b.Available,
	}
}

// changesRecord holds only the columns present in c.
func changesRecord(c domain.BookChanges) goqu.Record {
	rec := goqu.Record{}
	if c.Title != nil {
		rec["title"] = *c.Title
	}
	if c.Author != nil {
		rec["author"] = *c.Author
	}
	if c.ISBN != nil {
		rec["isbn"] = *c.ISBN
	}
	if c.Year != nil {
		rec["year"] = *c.Year
	}
	if c.Quantity != nil {
		rec["quantity"] = *c.Quantity
	}
	if c.Available != nil {
		rec["available"] = *c.Available
	}
	return rec
}
