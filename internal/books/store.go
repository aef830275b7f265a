package books

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"golang.org/x/text/cases"

	"library-backend/internal/domain"
	"library-backend/internal/platform/db"
)

// Store is the gateway for the books table.
type Store struct {
	conn *db.Conn
	q    db.DBTX
	inTx bool
}

func NewStore(conn *db.Conn) *Store { return &Store{conn: conn, q: conn.DB} }

// WithTx returns a Store whose statements run inside tx.
func (s *Store) WithTx(tx db.DBTX) *Store { return &Store{conn: s.conn, q: tx, inTx: true} }

// atomically runs fn in the bound transaction, or in a new one.
func (s *Store) atomically(ctx context.Context, fn func(st *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return db.RunInTx(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		return fn(s.WithTx(tx))
	})
}

func (s *Store) Add(ctx context.Context, b domain.Book) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	q, args, err := s.conn.Dialect.Insert(db.TableBooks).
		Rows(insertRecord(b)).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, domain.StorageFault("build insert book", err)
	}
	res, err := s.q.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, translate("insert book", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.StorageFault("insert book", err)
	}
	return id, nil
}

// GetByID reports found=false, with a nil error, when no row has that id.
func (s *Store) GetByID(ctx context.Context, id int64) (domain.Book, bool, error) {
	q, args, err := s.conn.Dialect.From(db.TableBooks).
		Select(bookColumns...).
		Where(goqu.Ex{"id": id}).
		Prepared(true).ToSQL()
	if err != nil {
		return domain.Book{}, false, domain.StorageFault("build select book", err)
	}
	var r bookRow
	if err := sqlx.GetContext(ctx, s.q, &r, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, domain.StorageFault("select book", err)
	}
	return r.toModel(), true, nil
}

// GetAll returns every book ordered by id.
func (s *Store) GetAll(ctx context.Context) ([]domain.Book, error) {
	q, args, err := s.conn.Dialect.From(db.TableBooks).
		Select(bookColumns...).
		Order(goqu.I("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, domain.StorageFault("build list books", err)
	}
	var rows []bookRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, q, args...); err != nil {
		return nil, domain.StorageFault("list books", err)
	}
	out := make([]domain.Book, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// Update writes the fields set in c to the row with the given id. The merged row
// must still satisfy every Book invariant. It reports false when id is absent.
func (s *Store) Update(ctx context.Context, id int64, c domain.BookChanges) (bool, error) {
	var found bool
	err := s.atomically(ctx, func(st *Store) error {
		cur, ok, err := st.GetByID(ctx, id)
		if err != nil || !ok {
			return err
		}
		found = true
		if c.IsEmpty() {
			return nil
		}
		if err := cur.Apply(&c); err != nil {
			return err
		}
		q, args, err := st.conn.Dialect.Update(db.TableBooks).
			Set(changesRecord(c)).
			Where(goqu.Ex{"id": id}).
			Prepared(true).ToSQL()
		if err != nil {
			return domain.StorageFault("build update book", err)
		}
		if _, err := st.q.ExecContext(ctx, q, args...); err != nil {
			return translate("update book", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	q, args, err := s.conn.Dialect.Delete(db.TableBooks).
		Where(goqu.Ex{"id": id}).
		Prepared(true).ToSQL()
	if err != nil {
		return false, domain.StorageFault("build delete book", err)
	}
	res, err := s.q.ExecContext(ctx, q, args...)
	if err != nil {
		return false, domain.StorageFault("delete book", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.StorageFault("delete book", err)
	}
	return n > 0, nil
}

// Search returns the books whose title, author or ISBN contains query, compared
// case-insensitively after Unicode case folding. An empty query matches every book.
func (s *Store) Search(ctx context.Context, query string) ([]domain.Book, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]domain.Book, 0)
	for _, b := range all {
		if strings.Contains(fold.String(b.Title), needle) ||
			strings.Contains(fold.String(b.Author), needle) ||
			strings.Contains(fold.String(b.ISBN), needle) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ChangeCopies loads the book, applies step to it and persists the new
// availability in one transaction. step reports false when the book's state
// forbids the change; nothing is written then.
func (s *Store) ChangeCopies(ctx context.Context, id int64, step func(*domain.Book) bool) (domain.Book, domain.Outcome, error) {
	var (
		book    domain.Book
		outcome domain.Outcome
	)
	err := s.atomically(ctx, func(st *Store) error {
		b, ok, err := st.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			outcome = domain.OutcomeNotFound
			return nil
		}
		if !step(&b) {
			book, outcome = b, domain.OutcomeRejected
			return nil
		}
		available := b.Available
		updated, err := st.Update(ctx, id, domain.BookChanges{Available: &available})
		if err != nil {
			return err
		}
		if !updated {
			return domain.StorageFault("persist availability", errors.New("book row vanished"))
		}
		book, outcome = b, domain.OutcomeOK
		return nil
	})
	if err != nil {
		return domain.Book{}, "", err
	}
	return book, outcome, nil
}

func translate(op string, err error) error {
	switch db.Classify(err) {
	case db.NoViolation:
		return domain.StorageFault(op, err)
	case db.UniqueViolation:
		return domain.Conflict("isbn already exists", err)
	case db.CheckViolation:
		return domain.Conflict("available must stay between 0 and quantity", err)
	default:
		return domain.Conflict(op+": constraint violated", err)
	}
}
