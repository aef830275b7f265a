package loans

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"library-backend/internal/books"
	"library-backend/internal/domain"
	"library-backend/internal/platform/clock"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/opid"
	"library-backend/internal/readers"
)

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

func WithIDGen(g opid.IDGen) Option { return func(s *Service) { s.id = g } }

// WithLoanPeriod sets the due-date offset used when a loan is created without one.
// Non-positive periods are ignored.
func WithLoanPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.period = d
		}
	}
}

type Service struct {
	conn    *db.Conn
	store   *Store
	books   *books.Store
	readers *readers.Store
	clock   clock.Clock
	period  time.Duration
	log     zerolog.Logger
	id      opid.IDGen
}

func NewService(conn *db.Conn, opts ...Option) *Service {
	s := &Service{
		conn:    conn,
		store:   NewStore(conn),
		books:   books.NewStore(conn),
		readers: readers.NewStore(conn),
		clock:   clock.Real{},
		period:  domain.DefaultLoanPeriod,
		log:     zerolog.Nop(),
		id:      opid.NewULIDGen(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Store() *Store { return s.store }

// CreateLoan records a loan. It neither checks that the book and reader exist
// nor touches the book's availability; CheckOut does both.
func (s *Service) CreateLoan(ctx context.Context, req CreateLoanRequest) (int64, error) {
	l, err := s.newLoan(req)
	if err != nil {
		return 0, err
	}
	id, err := s.store.Add(ctx, *l)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("op_id", s.id.New()).
		Int64("loan_id", id).Int64("book_id", l.BookID).Int64("reader_id", l.ReaderID).
		Time("due", l.DueDate).Msg("loan created")
	return id, nil
}

func (s *Service) newLoan(req CreateLoanRequest) (*domain.Loan, error) {
	loaned := s.clock.Now()
	if req.LoanDate != nil {
		loaned = *req.LoanDate
	}
	due := loaned.Add(s.period)
	if req.DueDate != nil {
		due = *req.DueDate
	}
	return domain.NewLoan(req.BookID, req.ReaderID, loaned, due)
}

// ReturnLoan marks the loan returned. A loan that is already returned yields
// OutcomeRejected and is left unchanged. Book availability is not touched.
func (s *Service) ReturnLoan(ctx context.Context, id int64) (domain.Outcome, error) {
	log := s.log.With().Str("op_id", s.id.New()).Str("action", "return_loan").Int64("loan_id", id).Logger()

	var outcome domain.Outcome
	err := db.RunInTx(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		_, o, err := s.markReturned(ctx, s.store.WithTx(tx), id)
		outcome = o
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("return loan failed")
		return "", err
	}
	log.Debug().Str("outcome", outcome.String()).Msg("return loan")
	return outcome, nil
}

func (s *Service) markReturned(ctx context.Context, st *Store, id int64) (domain.Loan, domain.Outcome, error) {
	l, ok, err := st.GetByID(ctx, id)
	if err != nil {
		return domain.Loan{}, "", err
	}
	if !ok {
		return domain.Loan{}, domain.OutcomeNotFound, nil
	}
	if !l.MarkReturned() {
		return l, domain.OutcomeRejected, nil
	}
	returned := true
	if _, err := st.Update(ctx, id, domain.LoanChanges{Returned: &returned}); err != nil {
		return domain.Loan{}, "", err
	}
	return l, domain.OutcomeOK, nil
}

// GetOverdueLoans lists the unreturned loans whose due date is before now.
func (s *Service) GetOverdueLoans(ctx context.Context, now time.Time) ([]domain.Loan, error) {
	return s.store.Overdue(ctx, now)
}

func (s *Service) LoansForReader(ctx context.Context, readerID int64) ([]domain.Loan, error) {
	return s.store.ForReader(ctx, readerID)
}

func (s *Service) GetLoan(ctx context.Context, id int64) (domain.Loan, bool, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ListLoans(ctx context.Context) ([]domain.Loan, error) {
	return s.store.GetAll(ctx)
}

func (s *Service) UpdateLoan(ctx context.Context, id int64, c domain.LoanChanges) (bool, error) {
	ok, err := s.store.Update(ctx, id, c)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.Info().Str("op_id", s.id.New()).Int64("loan_id", id).Msg("loan updated")
	}
	return ok, nil
}

func (s *Service) DeleteLoan(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.Info().Str("op_id", s.id.New()).Int64("loan_id", id).Msg("loan deleted")
	}
	return ok, nil
}

// CheckOut lends one copy of a book to a reader. The reader lookup, the
// availability decrement and the loan insert share one transaction.
// OutcomeNotFound covers a missing reader or book; OutcomeRejected means no copy
// is available.
func (s *Service) CheckOut(ctx context.Context, bookID, readerID int64) (int64, domain.Outcome, error) {
	log := s.log.With().Str("op_id", s.id.New()).Str("action", "check_out").
		Int64("book_id", bookID).Int64("reader_id", readerID).Logger()

	l, err := s.newLoan(CreateLoanRequest{BookID: bookID, ReaderID: readerID})
	if err != nil {
		return 0, "", err
	}

	var (
		loanID  int64
		outcome domain.Outcome
	)
	err = db.RunInTx(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		_, ok, err := s.readers.WithTx(tx).GetByID(ctx, readerID)
		if err != nil {
			return err
		}
		if !ok {
			log.Debug().Msg("reader not found")
			outcome = domain.OutcomeNotFound
			return nil
		}
		_, o, err := s.books.WithTx(tx).ChangeCopies(ctx, bookID, (*domain.Book).Borrow)
		if err != nil {
			return err
		}
		if !o.OK() {
			outcome = o
			return nil
		}
		id, err := s.store.WithTx(tx).Add(ctx, *l)
		if err != nil {
			return err
		}
		loanID, outcome = id, domain.OutcomeOK
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("check out failed")
		return 0, "", err
	}
	log.Info().Str("outcome", outcome.String()).Int64("loan_id", loanID).Msg("check out")
	return loanID, outcome, nil
}

// CheckIn marks the loan returned and puts one copy of its book back on the
// shelf, in one transaction. A loan whose book was deleted, or whose book is
// already fully on the shelf, is still returned.
func (s *Service) CheckIn(ctx context.Context, loanID int64) (domain.Outcome, error) {
	log := s.log.With().Str("op_id", s.id.New()).Str("action", "check_in").Int64("loan_id", loanID).Logger()

	var outcome domain.Outcome
	err := db.RunInTx(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		l, o, err := s.markReturned(ctx, s.store.WithTx(tx), loanID)
		if err != nil || !o.OK() {
			outcome = o
			return err
		}
		_, restored, err := s.books.WithTx(tx).ChangeCopies(ctx, l.BookID, (*domain.Book).ReturnCopy)
		if err != nil {
			return err
		}
		if !restored.OK() {
			log.Warn().Int64("book_id", l.BookID).Str("outcome", restored.String()).Msg("copy not restored")
		}
		outcome = domain.OutcomeOK
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("check in failed")
		return "", err
	}
	log.Info().Str("outcome", outcome.String()).Msg("check in")
	return outcome, nil
}
