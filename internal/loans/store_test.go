package loans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"library-backend/internal/domain"
	"library-backend/internal/testutil"
)

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type storeSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func TestStore(t *testing.T) { suite.Run(t, new(storeSuite)) }

func (s *storeSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewStore(testutil.OpenDB(s.T()))
}

func (s *storeSuite) add(bookID, readerID int64, loaned, due time.Time) int64 {
	l, err := domain.NewLoan(bookID, readerID, loaned, due)
	s.Require().NoError(err)
	id, err := s.store.Add(s.ctx, *l)
	s.Require().NoError(err)
	return id
}

func (s *storeSuite) TestAddAndGet() {
	id := s.add(1, 2, t0, t0.Add(domain.DefaultLoanPeriod))

	got, ok, err := s.store.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(int64(1), got.BookID)
	s.Equal(int64(2), got.ReaderID)
	s.True(got.LoanDate.Equal(t0))
	s.True(got.DueDate.Equal(t0.Add(domain.DefaultLoanPeriod)))
	s.False(got.Returned)

	_, ok, err = s.store.GetByID(s.ctx, id+1)
	s.NoError(err)
	s.False(ok)
}

func (s *storeSuite) TestAddRejectsDueBeforeLoan() {
	_, err := s.store.Add(s.ctx, domain.Loan{BookID: 1, ReaderID: 1, LoanDate: t0, DueDate: t0})
	s.True(errors.Is(err, domain.ErrValidation))
}

func (s *storeSuite) TestOverdue() {
	late := s.add(1, 1, t0, t0.Add(24*time.Hour))
	s.add(2, 1, t0, t0.Add(30*24*time.Hour))
	returned := s.add(3, 2, t0, t0.Add(24*time.Hour))
	yes := true
	_, err := s.store.Update(s.ctx, returned, domain.LoanChanges{Returned: &yes})
	s.Require().NoError(err)

	now := t0.Add(48 * time.Hour)
	got, err := s.store.Overdue(s.ctx, now)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(late, got[0].ID)
	s.True(got[0].IsOverdue(now))

	got, err = s.store.Overdue(s.ctx, t0.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *storeSuite) TestOverdueSubSecondNow() {
	due := t0.Add(2 * time.Hour)
	id := s.add(1, 1, t0, due)

	for _, now := range []time.Time{due, due.Add(900 * time.Millisecond), due.Add(time.Second)} {
		got, err := s.store.Overdue(s.ctx, now)
		s.Require().NoError(err)

		l, _, err := s.store.GetByID(s.ctx, id)
		s.Require().NoError(err)
		if l.IsOverdue(now) {
			s.Require().Len(got, 1, "now=%s", now)
			s.Equal(id, got[0].ID)
		} else {
			s.Empty(got, "now=%s", now)
		}
	}

	got, err := s.store.Overdue(s.ctx, due.Add(900*time.Millisecond))
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *storeSuite) TestUpdateSubSecondDueRejected() {
	id := s.add(1, 1, t0, t0.Add(time.Second))

	due := t0.Add(500 * time.Millisecond)
	_, err := s.store.Update(s.ctx, id, domain.LoanChanges{DueDate: &due})
	s.True(errors.Is(err, domain.ErrValidation), "got %v", err)

	got, _, err := s.store.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.True(got.DueDate.After(got.LoanDate))
}

func (s *storeSuite) TestForReaderAndCountActive() {
	a := s.add(1, 7, t0, t0.Add(time.Hour))
	b := s.add(2, 7, t0, t0.Add(time.Hour))
	s.add(1, 8, t0, t0.Add(time.Hour))

	got, err := s.store.ForReader(s.ctx, 7)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(a, got[0].ID)
	s.Equal(b, got[1].ID)

	n, err := s.store.CountActive(s.ctx, ByBook(1))
	s.Require().NoError(err)
	s.Equal(2, n)

	yes := true
	_, err = s.store.Update(s.ctx, a, domain.LoanChanges{Returned: &yes})
	s.Require().NoError(err)
	n, err = s.store.CountActive(s.ctx, ByReader(7))
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *storeSuite) TestUpdate() {
	id := s.add(1, 1, t0, t0.Add(time.Hour))

	due := t0.Add(-time.Hour)
	_, err := s.store.Update(s.ctx, id, domain.LoanChanges{DueDate: &due})
	s.True(errors.Is(err, domain.ErrValidation))

	due = t0.Add(72 * time.Hour)
	ok, err := s.store.Update(s.ctx, id, domain.LoanChanges{DueDate: &due})
	s.Require().NoError(err)
	s.True(ok)

	yes, no := true, false
	_, err = s.store.Update(s.ctx, id, domain.LoanChanges{Returned: &yes})
	s.Require().NoError(err)
	_, err = s.store.Update(s.ctx, id, domain.LoanChanges{Returned: &no})
	s.True(errors.Is(err, domain.ErrValidation))

	got, _, err := s.store.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.True(got.Returned)
	s.True(got.DueDate.Equal(due))

	ok, err = s.store.Update(s.ctx, id+1, domain.LoanChanges{Returned: &yes})
	s.NoError(err)
	s.False(ok)
}

func (s *storeSuite) TestGuards() {
	s.add(1, 2, t0, t0.Add(time.Hour))

	err := s.store.BookGuard()(s.ctx, s.store.conn.DB, 1)
	s.True(errors.Is(err, domain.ErrConstraint))
	s.NoError(s.store.BookGuard()(s.ctx, s.store.conn.DB, 9))
	s.True(errors.Is(s.store.ReaderGuard()(s.ctx, s.store.conn.DB, 2), domain.ErrConstraint))
}

func (s *storeSuite) TestDelete() {
	id := s.add(1, 1, t0, t0.Add(time.Hour))
	ok, err := s.store.Delete(s.ctx, id)
	s.Require().NoError(err)
	s.True(ok)

	all, err := s.store.GetAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}
