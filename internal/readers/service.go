package readers

import (
	"context"

	"github.com/rs/zerolog"

	"library-backend/internal/domain"
	"library-backend/internal/platform/clock"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/opid"
)

// DeleteGuard vetoes the deletion of a reader. It runs inside the delete transaction.
type DeleteGuard func(ctx context.Context, tx db.DBTX, readerID int64) error

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

func WithIDGen(g opid.IDGen) Option { return func(s *Service) { s.id = g } }

func WithDeleteGuard(g DeleteGuard) Option { return func(s *Service) { s.guard = g } }

type Service struct {
	conn  *db.Conn
	store *Store
	clock clock.Clock
	log   zerolog.Logger
	id    opid.IDGen
	guard DeleteGuard
}

func NewService(conn *db.Conn, opts ...Option) *Service {
	s := &Service{
		conn:  conn,
		store: NewStore(conn),
		clock: clock.Real{},
		log:   zerolog.Nop(),
		id:    opid.NewULIDGen(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Store() *Store { return s.store }

// RegisterReader validates and stores a new reader; the registration time is now.
func (s *Service) RegisterReader(ctx context.Context, name, email, phone string) (int64, error) {
	r, err := domain.NewReader(name, email, phone, s.clock.Now())
	if err != nil {
		return 0, err
	}
	id, err := s.store.Add(ctx, *r)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("op_id", s.id.New()).Int64("reader_id", id).Msg("reader registered")
	return id, nil
}

func (s *Service) GetReader(ctx context.Context, id int64) (domain.Reader, bool, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ListReaders(ctx context.Context) ([]domain.Reader, error) {
	return s.store.GetAll(ctx)
}

func (s *Service) UpdateReader(ctx context.Context, id int64, c domain.ReaderChanges) (bool, error) {
	ok, err := s.store.Update(ctx, id, c)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.Info().Str("op_id", s.id.New()).Int64("reader_id", id).Msg("reader updated")
	}
	return ok, nil
}

func (s *Service) DeleteReader(ctx context.Context, id int64) (bool, error) {
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
		s.log.Info().Str("op_id", s.id.New()).Int64("reader_id", id).Msg("reader deleted")
	}
	return deleted, nil
}
