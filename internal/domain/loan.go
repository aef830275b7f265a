package domain

import "time"

// TimestampLayout is the text form of every persisted timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultLoanPeriod applies when a loan is created without a due date.
const DefaultLoanPeriod = 14 * 24 * time.Hour

type LoanState string

const (
	LoanActive   LoanState = "ACTIVE"
	LoanReturned LoanState = "RETURNED"
)

// Loan links one book to one reader.
//
// Invariants:
//   - BookID and ReaderID are not negative
//   - DueDate is strictly after LoanDate
//   - Returned moves false -> true once and never back
type Loan struct {
	ID       int64
	BookID   int64
	ReaderID int64
	LoanDate time.Time
	DueDate  time.Time
	Returned bool
}

type LoanChanges struct {
	BookID   *int64
	ReaderID *int64
	LoanDate *time.Time
	DueDate  *time.Time
	// Returned can only be set to true.
	Returned *bool
}

func (c LoanChanges) IsEmpty() bool {
	return c.BookID == nil && c.ReaderID == nil && c.LoanDate == nil &&
		c.DueDate == nil && c.Returned == nil
}

// NewLoan drops sub-second precision from both dates, matching what the store keeps.
func NewLoan(bookID, readerID int64, loanDate, dueDate time.Time) (*Loan, error) {
	l := &Loan{
		BookID:   bookID,
		ReaderID: readerID,
		LoanDate: loanDate.Truncate(time.Second),
		DueDate:  dueDate.Truncate(time.Second),
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loan) Validate() error {
	if l.BookID < 0 || l.ReaderID < 0 {
		return Invalid("book id and reader id must not be negative")
	}
	if !dueAfterLoan(l.LoanDate, l.DueDate) {
		return Invalid("due date must be after loan date")
	}
	return nil
}

// dueAfterLoan compares at second precision, the precision timestamps are stored with.
func dueAfterLoan(loaned, due time.Time) bool {
	return due.Truncate(time.Second).After(loaned.Truncate(time.Second))
}

// MarkReturned reports false when the loan was already returned.
func (l *Loan) MarkReturned() bool {
	if l.Returned {
		return false
	}
	l.Returned = true
	return true
}

func (l *Loan) IsOverdue(now time.Time) bool {
	return now.After(l.DueDate) && !l.Returned
}

func (l *Loan) State() LoanState {
	if l.Returned {
		return LoanReturned
	}
	return LoanActive
}

// Apply validates c against l and assigns it. On error l is unchanged.
func (l *Loan) Apply(c *LoanChanges) error {
	next := *l
	if c.BookID != nil {
		if *c.BookID < 0 {
			return Invalid("book id must not be negative")
		}
		next.BookID = *c.BookID
	}
	if c.ReaderID != nil {
		if *c.ReaderID < 0 {
			return Invalid("reader id must not be negative")
		}
		next.ReaderID = *c.ReaderID
	}
	if c.LoanDate != nil {
		next.LoanDate = c.LoanDate.Truncate(time.Second)
	}
	if c.DueDate != nil {
		next.DueDate = c.DueDate.Truncate(time.Second)
	}
	if !dueAfterLoan(next.LoanDate, next.DueDate) {
		return Invalid("due date must be after loan date")
	}
	if c.Returned != nil {
		if !*c.Returned && l.Returned {
			return Invalid("a returned loan cannot be reopened")
		}
		next.Returned = *c.Returned
	}
	*l = next
	return nil
}

// LoanView is the flat, serialisable form of a loan with its derived overdue flag.
type LoanView struct {
	ID         int64  `json:"id"`
	BookID     int64  `json:"book_id"`
	ReaderID   int64  `json:"reader_id"`
	LoanDate   string `json:"loan_date"`
	ReturnDate string `json:"return_date"`
	IsReturned bool   `json:"is_returned"`
	IsOverdue  bool   `json:"is_overdue"`
}

func (l *Loan) View(now time.Time) LoanView {
	return LoanView{
		ID:         l.ID,
		BookID:     l.BookID,
		ReaderID:   l.ReaderID,
		LoanDate:   l.LoanDate.UTC().Format(TimestampLayout),
		ReturnDate: l.DueDate.UTC().Format(TimestampLayout),
		IsReturned: l.Returned,
		IsOverdue:  l.IsOverdue(now),
	}
}
