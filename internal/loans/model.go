package loans

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"library-backend/internal/domain"
	"library-backend/internal/platform/db"
)

var loanColumns = []any{"id", "book_id", "reader_id", "loan_date", "return_date", "is_returned"}

type loanRow struct {
	ID         int64  `db:"id"`
	BookID     int64  `db:"book_id"`
	ReaderID   int64  `db:"reader_id"`
	LoanDate   string `db:"loan_date"`
	ReturnDate string `db:"return_date"`
	IsReturned bool   `db:"is_returned"`
}

func (r loanRow) toModel() (domain.Loan, error) {
	loaned, err := db.ParseTimestamp(r.LoanDate)
	if err != nil {
		return domain.Loan{}, err
	}
	due, err := db.ParseTimestamp(r.ReturnDate)
	if err != nil {
		return domain.Loan{}, err
	}
	return domain.Loan{
		ID:       r.ID,
		BookID:   r.BookID,
		ReaderID: r.ReaderID,
		LoanDate: loaned,
		DueDate:  due,
		Returned: r.IsReturned,
	}, nil
}

func toModels(rows []loanRow) ([]domain.Loan, error) {
	out := make([]domain.Loan, 0, len(rows))
	for _, row := range rows {
		l, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func insertRecord(l domain.Loan) goqu.Record {
	return goqu.Record{
		"book_id":     l.BookID,
		"reader_id":   l.ReaderID,
		"loan_date":   db.FormatTimestamp(l.LoanDate),
		"return_date": db.FormatTimestamp(l.DueDate),
		"is_returned": boolToInt(l.Returned),
	}
}

func changesRecord(c domain.LoanChanges) goqu.Record {
	rec := goqu.Record{}
	if c.BookID != nil {
		rec["book_id"] = *c.BookID
	}
	if c.ReaderID != nil {
		rec["reader_id"] = *c.ReaderID
	}
	if c.LoanDate != nil {
		rec["loan_date"] = db.FormatTimestamp(*c.LoanDate)
	}
	if c.DueDate != nil {
		rec["return_date"] = db.FormatTimestamp(*c.DueDate)
	}
	if c.Returned != nil {
		rec["is_returned"] = boolToInt(*c.Returned)
	}
	return rec
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// LoanRef selects loans by the entity they point at.
type LoanRef struct {
	column string
	id     int64
}

func ByBook(bookID int64) LoanRef     { return LoanRef{column: "book_id", id: bookID} }
func ByReader(readerID int64) LoanRef { return LoanRef{column: "reader_id", id: readerID} }

func (r LoanRef) String() string { return fmt.Sprintf("%s=%d", r.column, r.id) }
