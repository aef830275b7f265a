// Package library wires the book, reader and loan services onto one store handle.
package library

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"library-backend/internal/books"
	"library-backend/internal/loans"
	"library-backend/internal/platform/clock"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/opid"
	"library-backend/internal/readers"
)

type Library struct {
	conn    *db.Conn
	Books   *books.Service
	Readers *readers.Service
	Loans   *loans.Service
}

type Option func(*options)

type options struct {
	clock clock.Clock
	id    opid.IDGen
}

func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

func WithIDGen(g opid.IDGen) Option { return func(o *options) { o.id = g } }

// New builds the services over conn. The caller keeps ownership of conn.
func New(conn *db.Conn, log zerolog.Logger, cfg config.LibraryConfig, opts ...Option) *Library {
	o := options{clock: clock.Real{}, id: opid.NewULIDGen()}
	for _, opt := range opts {
		opt(&o)
	}

	loanSvc := loans.NewService(conn,
		loans.WithLogger(log.With().Str("component", "loans").Logger()),
		loans.WithClock(o.clock),
		loans.WithIDGen(o.id),
		loans.WithLoanPeriod(time.Duration(cfg.LoanPeriodDays)*24*time.Hour),
	)

	bookOpts := []books.Option{
		books.WithLogger(log.With().Str("component", "books").Logger()),
		books.WithIDGen(o.id),
	}
	readerOpts := []readers.Option{
		readers.WithLogger(log.With().Str("component", "readers").Logger()),
		readers.WithClock(o.clock),
		readers.WithIDGen(o.id),
	}
	if cfg.GuardActiveLoans {
		bookOpts = append(bookOpts, books.WithDeleteGuard(loanSvc.Store().BookGuard()))
		readerOpts = append(readerOpts, readers.WithDeleteGuard(loanSvc.Store().ReaderGuard()))
	}

	return &Library{
		conn:    conn,
		Books:   books.NewService(conn, bookOpts...),
		Readers: readers.NewService(conn, readerOpts...),
		Loans:   loanSvc,
	}
}

// Open connects to the configured store, creates the schema if needed and wires
// the services. Close releases the connection.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*Library, error) {
	conn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info().Str("driver", conn.Driver).Msg("store ready")
	return New(conn, log, cfg.Library, opts...), nil
}

func (l *Library) Close() error { return l.conn.Close() }
