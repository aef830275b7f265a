package readers

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"library-backend/internal/domain"
	"library-backend/internal/platform/db"
)

type Store struct {
	conn *db.Conn
	q    db.DBTX
	inTx bool
}

func NewStore(conn *db.Conn) *Store { return &Store{conn: conn, q: conn.DB} }

func (s *Store) WithTx(tx db.DBTX) *Store { return &Store{conn: s.conn, q: tx, inTx: true} }

func (s *Store) atomically(ctx context.Context, fn func(st *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return db.RunInTx(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		return fn(s.WithTx(tx))
	})
}

func (s *Store) Add(ctx context.Context, r domain.Reader) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	q, args, err := s.conn.Dialect.Insert(db.TableReaders).
		Rows(insertRecord(r)).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, domain.StorageFault("build insert reader", err)
	}
	res, err := s.q.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, translate("insert reader", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.StorageFault("insert reader", err)
	}
	return id, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (domain.Reader, bool, error) {
	q, args, err := s.conn.Dialect.From(db.TableReaders).
		Select(readerColumns...).
		Where(goqu.Ex{"id": id}).
		Prepared(true).ToSQL()
	if err != nil {
		return domain.Reader{}, false, domain.StorageFault("build select reader", err)
	}
	var row readerRow
	if err := sqlx.GetContext(ctx, s.q, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reader{}, false, nil
		}
		return domain.Reader{}, false, domain.StorageFault("select reader", err)
	}
	r, err := row.toModel()
	if err != nil {
		return domain.Reader{}, false, domain.StorageFault("decode reader", err)
	}
	return r, true, nil
}

func (s *Store) GetAll(ctx context.Context) ([]domain.Reader, error) {
	q, args, err := s.conn.Dialect.From(db.TableReaders).
		Select(readerColumns...).
		Order(goqu.I("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, domain.StorageFault("build list readers", err)
	}
	var rows []readerRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, q, args...); err != nil {
		return nil, domain.StorageFault("list readers", err)
	}
	out := make([]domain.Reader, 0, len(rows))
	for _, row := range rows {
		r, err := row.toModel()
		if err != nil {
			return nil, domain.StorageFault("decode reader", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Update applies c with Reader.UpdateInfo semantics: any invalid field aborts the
// whole update and nothing is written.
func (s *Store) Update(ctx context.Context, id int64, c domain.ReaderChanges) (bool, error) {
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
		if err := cur.UpdateInfo(&c); err != nil {
			return err
		}
		q, args, err := st.conn.Dialect.Update(db.TableReaders).
			Set(changesRecord(c)).
			Where(goqu.Ex{"id": id}).
			Prepared(true).ToSQL()
		if err != nil {
			return domain.StorageFault("build update reader", err)
		}
		if _, err := st.q.ExecContext(ctx, q, args...); err != nil {
			return translate("update reader", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	q, args, err := s.conn.Dialect.Delete(db.TableReaders).
		Where(goqu.Ex{"id": id}).
		Prepared(true).ToSQL()
	if err != nil {
		return false, domain.StorageFault("build delete reader", err)
	}
	res, err := s.q.ExecContext(ctx, q, args...)
	if err != nil {
		return false, domain.StorageFault("delete reader", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.StorageFault("delete reader", err)
	}
	return n > 0, nil
}

func translate(op string, err error) error {
	switch db.Classify(err) {
	case db.NoViolation:
		return domain.StorageFault(op, err)
	case db.UniqueViolation:
		return domain.Conflict("email already registered", err)
	default:
		return domain.Conflict(op+": constraint violated", err)
	}
}
