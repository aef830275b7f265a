package books

import (
	"context"

	"github.com/rs/zerolog"

	"library-backend/internal/domain"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/opid"
)

// DeleteGuard vetoes the deletion of a book. It runs inside the delete transaction.
type DeleteGuard func(ctx context.Context, tx db.DBTX, bookID int64) error

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

func WithIDGen(g opid.IDGen) Option { return func(s *Service) { s.id = g } }

func WithDeleteGuard(g DeleteGuard) Option { return func(s *Service) { s.guard = g } }

type Service struct {
	conn  *db.Conn
	store *Store
	log   zerolog.Logger
	id    opid.IDGen
	guard DeleteGuard
}

func NewService(conn *db.Conn, opts ...Option) *Service {
	s := &Service{
		conn:  conn,
		store: NewStore(conn),
		log:   zerolog.Nop(),
		id:    opid.NewULIDGen(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) AddBook(ctx context.Context, title, author, isbn string, year, quantity int) (int64, error) {
	b, err := domain.NewBook(title, author, isbn, year, quantity)
	if err != nil {
		return 0, err
	}
	id, err := s.store.Add(ctx, *b)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("op_id", s.id.New()).Int64("book_id", id).Str("isbn", b.ISBN).Msg("book added")
	return id, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (domain.Book, bool, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return s.store.GetAll(ctx)
}

func (s *Service) SearchBooks(ctx context.Context, query string) ([]domain.Book, error) {
	return s.store.Search(ctx, query)
}

func (s *Service) UpdateBook(ctx context.Context, id int64, c domain.BookChanges) (bool, error) {
	ok, err := s.store.Update(ctx, id, c)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.Info().Str("op_id", s.id.New()).Int64("book_id", id).Msg("book updated")
	}
	return ok, nil
}

// DeleteBook removes the book. Loans that reference it are left as they are
// unless a DeleteGuard is configured.
func (s *Service) DeleteBook(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := db.RunInTx(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		if s.guard != nil {
			if err := s.guard(ctx, tx, id); err != nil {
				return err
			}
		}
		ok, err := s.store.WithTx(tx).Delete(ctx, id)
		deleted = ok
		return err
	})
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info().Str("op_id", s.id.New()).Int64("book_id", id).Msg("book deleted")
	}
	return deleted, nil
}

// BorrowBook takes one copy off the shelf and persists the new availability.
func (s *Service) BorrowBook(ctx context.Context, id int64) (domain.Outcome, error) {
	return s.changeCopies(ctx, "borrow", id, (*domain.Book).Borrow)
}

// ReturnBook puts one copy back on the shelf and persists the new availability.
func (s *Service) ReturnBook(ctx context.Context, id int64) (domain.Outcome, error) {
	return s.changeCopies(ctx, "return", id, (*domain.Book).ReturnCopy)
}

func (s *Service) changeCopies(ctx context.Context, action string, id int64, step func(*domain.Book) bool) (domain.Outcome, error) {
	log := s.log.With().Str("op_id", s.id.New()).Str("action", action).Int64("book_id", id).Logger()

	b, outcome, err := s.store.ChangeCopies(ctx, id, step)
	if err != nil {
		log.Error().Err(err).Msg("copy change failed")
		return "", err
	}
	log.Debug().Str("outcome", outcome.String()).Int("available", b.Available).Msg("copy change")
	return outcome, nil
}
