package loans

import "time"

// CreateLoanRequest: nil LoanDate means now, nil DueDate means LoanDate plus the loan period.
type CreateLoanRequest struct {
	BookID   int64
	ReaderID int64
	LoanDate *time.Time
	DueDate  *time.Time
}
