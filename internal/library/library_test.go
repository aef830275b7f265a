package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domain"
	"library-backend/internal/loans"
	"library-backend/internal/platform/clock"
	"library-backend/internal/platform/config"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func open(t *testing.T, guard bool) *Library {
	t.Helper()
	cfg := config.Default()
	cfg.DB.Path = filepath.Join(t.TempDir(), "library.db")
	cfg.Library.GuardActiveLoans = guard

	lib, err := Open(context.Background(), cfg, zerolog.Nop(), WithClock(clock.Fixed(now)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestLendingScenario(t *testing.T) {
	ctx := context.Background()
	lib := open(t, false)

	bookID, err := lib.Books.AddBook(ctx, "War and Peace", "Leo Tolstoy", "978-0140447934", 1869, 2)
	require.NoError(t, err)
	_, err = lib.Books.AddBook(ctx, "Crime and Punishment", "Fyodor Dostoevsky", "978-0143058144", 1866, 1)
	require.NoError(t, err)
	readerID, err := lib.Readers.RegisterReader(ctx, "Ann", "ann@example.com", "555-0100")
	require.NoError(t, err)

	found, err := lib.Books.SearchBooks(ctx, "war")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bookID, found[0].ID)

	loanID, outcome, err := lib.Loans.CheckOut(ctx, bookID, readerID)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, outcome)

	b, _, err := lib.Books.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Available)

	l, _, err := lib.Loans.GetLoan(ctx, loanID)
	require.NoError(t, err)
	assert.True(t, l.DueDate.Equal(now.Add(14*24*time.Hour)))

	overdue, err := lib.Loans.GetOverdueLoans(ctx, now.Add(15*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.True(t, overdue[0].View(now.Add(15*24*time.Hour)).IsOverdue)

	outcome, err = lib.Loans.CheckIn(ctx, loanID)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, outcome)

	b, _, err = lib.Books.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Available)

	overdue, err = lib.Loans.GetOverdueLoans(ctx, now.Add(15*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestDeleteReferencedBookAllowedByDefault(t *testing.T) {
	ctx := context.Background()
	lib := open(t, false)

	bookID, err := lib.Books.AddBook(ctx, "t", "a", "i", 2000, 1)
	require.NoError(t, err)
	readerID, err := lib.Readers.RegisterReader(ctx, "Ann", "ann@example.com", "555")
	require.NoError(t, err)
	loanID, _, err := lib.Loans.CheckOut(ctx, bookID, readerID)
	require.NoError(t, err)

	ok, err := lib.Books.DeleteBook(ctx, bookID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = lib.Readers.DeleteReader(ctx, readerID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := lib.Loans.GetLoan(ctx, loanID)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestGuardActiveLoans(t *testing.T) {
	ctx := context.Background()
	lib := open(t, true)

	bookID, err := lib.Books.AddBook(ctx, "t", "a", "i", 2000, 1)
	require.NoError(t, err)
	readerID, err := lib.Readers.RegisterReader(ctx, "Ann", "ann@example.com", "555")
	require.NoError(t, err)
	loanID, _, err := lib.Loans.CheckOut(ctx, bookID, readerID)
	require.NoError(t, err)

	_, err = lib.Books.DeleteBook(ctx, bookID)
	assert.True(t, errors.Is(err, domain.ErrConstraint), "got %v", err)
	_, err = lib.Readers.DeleteReader(ctx, readerID)
	assert.True(t, errors.Is(err, domain.ErrConstraint), "got %v", err)

	_, err = lib.Loans.CheckIn(ctx, loanID)
	require.NoError(t, err)

	ok, err := lib.Books.DeleteBook(ctx, bookID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeparateBorrowAndLoanCalls(t *testing.T) {
	ctx := context.Background()
	lib := open(t, false)

	bookID, err := lib.Books.AddBook(ctx, "War and Peace", "Tolstoy", "978-1", 1869, 5)
	require.NoError(t, err)
	_, err = lib.Books.AddBook(ctx, "Peace", "Someone", "978-2", 2001, 1)
	require.NoError(t, err)
	readerID, err := lib.Readers.RegisterReader(ctx, "Ann", "ann@example.com", "555")
	require.NoError(t, err)

	outcome, err := lib.Books.BorrowBook(ctx, bookID)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, outcome)
	b, _, err := lib.Books.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Available)

	loanID, err := lib.Loans.CreateLoan(ctx, loans.CreateLoanRequest{BookID: bookID, ReaderID: readerID})
	require.NoError(t, err)
	l, _, err := lib.Loans.GetLoan(ctx, loanID)
	require.NoError(t, err)
	assert.True(t, l.DueDate.Equal(l.LoanDate.Add(14*24*time.Hour)))

	outcome, err = lib.Loans.ReturnLoan(ctx, loanID)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, outcome)
	l, _, err = lib.Loans.GetLoan(ctx, loanID)
	require.NoError(t, err)
	assert.True(t, l.Returned)

	loaned, due := now.Add(-30*24*time.Hour), now.Add(-2*24*time.Hour)
	lateID, err := lib.Loans.CreateLoan(ctx, loans.CreateLoanRequest{
		BookID: bookID, ReaderID: readerID, LoanDate: &loaned, DueDate: &due,
	})
	require.NoError(t, err)
	overdue, err := lib.Loans.GetOverdueLoans(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, lateID, overdue[0].ID)

	found, err := lib.Books.SearchBooks(ctx, "war")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bookID, found[0].ID)
}
