package loans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"library-backend/internal/books"
	"library-backend/internal/domain"
	"library-backend/internal/platform/db"
	"library-backend/internal/readers"
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

func (s *Store) Add(ctx context.Context, l domain.Loan) (int64, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}
	q, args, err := s.conn.Dialect.Insert(db.TableLoans).
		Rows(insertRecord(l)).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, domain.StorageFault("build insert loan", err)
	}
	res, err := s.q.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, translate("insert loan", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.StorageFault("insert loan", err)
	}
	return id, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (domain.Loan, bool, error) {
	q, args, err := s.conn.Dialect.From(db.TableLoans).
		Select(loanColumns...).
		Where(goqu.Ex{"id": id}).
		Prepared(true).ToSQL()
	if err != nil {
		return domain.Loan{}, false, domain.StorageFault("build select loan", err)
	}
	var row loanRow
	if err := sqlx.GetContext(ctx, s.q, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Loan{}, false, nil
		}
		return domain.Loan{}, false, domain.StorageFault("select loan", err)
	}
	l, err := row.toModel()
	if err != nil {
		return domain.Loan{}, false, domain.StorageFault("decode loan", err)
	}
	return l, true, nil
}

func (s *Store) GetAll(ctx context.Context) ([]domain.Loan, error) {
	return s.list(ctx, "list loans")
}

func (s *Store) ForReader(ctx context.Context, readerID int64) ([]domain.Loan, error) {
	return s.list(ctx, "list reader loans", goqu.Ex{"reader_id": readerID})
}

// Overdue returns the unreturned loans whose due date is strictly before now.
// Due dates have whole seconds, so a fractional now is past every due date at
// its truncated second.
func (s *Store) Overdue(ctx context.Context, now time.Time) ([]domain.Loan, error) {
	cutoff := db.FormatTimestamp(now)
	past := goqu.C("return_date").Lt(cutoff)
	if now.Truncate(time.Second).Before(now) {
		past = goqu.C("return_date").Lte(cutoff)
	}
	return s.list(ctx, "list overdue loans", goqu.Ex{"is_returned": 0}, past)
}

func (s *Store) list(ctx context.Context, op string, where ...goqu.Expression) ([]domain.Loan, error) {
	ds := s.conn.Dialect.From(db.TableLoans).Select(loanColumns...)
	if len(where) > 0 {
		ds = ds.Where(where...)
	}
	q, args, err := ds.Order(goqu.I("id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, domain.StorageFault("build "+op, err)
	}
	var rows []loanRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, q, args...); err != nil {
		return nil, domain.StorageFault(op, err)
	}
	out, err := toModels(rows)
	if err != nil {
		return nil, domain.StorageFault("decode loan", err)
	}
	return out, nil
}

// CountActive counts the unreturned loans pointing at ref.
func (s *Store) CountActive(ctx context.Context, ref LoanRef) (int, error) {
	q, args, err := s.conn.Dialect.From(db.TableLoans).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{ref.column: ref.id, "is_returned": 0}).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, domain.StorageFault("build count loans", err)
	}
	var n int
	if err := sqlx.GetContext(ctx, s.q, &n, q, args...); err != nil {
		return 0, domain.StorageFault("count loans", err)
	}
	return n, nil
}

// Update writes the fields set in c. The returned flag can only move to true and
// the merged dates must keep the due date after the loan date.
func (s *Store) Update(ctx context.Context, id int64, c domain.LoanChanges) (bool, error) {
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
		q, args, err := st.conn.Dialect.Update(db.TableLoans).
			Set(changesRecord(c)).
			Where(goqu.Ex{"id": id}).
			Prepared(true).ToSQL()
		if err != nil {
			return domain.StorageFault("build update loan", err)
		}
		if _, err := st.q.ExecContext(ctx, q, args...); err != nil {
			return translate("update loan", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	q, args, err := s.conn.Dialect.Delete(db.TableLoans).
		Where(goqu.Ex{"id": id}).
		Prepared(true).ToSQL()
	if err != nil {
		return false, domain.StorageFault("build delete loan", err)
	}
	res, err := s.q.ExecContext(ctx, q, args...)
	if err != nil {
		return false, domain.StorageFault("delete loan", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.StorageFault("delete loan", err)
	}
	return n > 0, nil
}

// BookGuard refuses to delete a book that still has unreturned loans.
func (s *Store) BookGuard() books.DeleteGuard {
	return func(ctx context.Context, tx db.DBTX, bookID int64) error {
		return s.WithTx(tx).refuseActive(ctx, ByBook(bookID))
	}
}

// ReaderGuard refuses to delete a reader that still has unreturned loans.
func (s *Store) ReaderGuard() readers.DeleteGuard {
	return func(ctx context.Context, tx db.DBTX, readerID int64) error {
		return s.WithTx(tx).refuseActive(ctx, ByReader(readerID))
	}
}

func (s *Store) refuseActive(ctx context.Context, ref LoanRef) error {
	n, err := s.CountActive(ctx, ref)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Conflict(fmt.Sprintf("%d unreturned loans reference %s", n, ref), nil)
	}
	return nil
}

func translate(op string, err error) error {
	if db.IsConstraintViolation(err) {
		return domain.Conflict(op+": constraint violated", err)
	}
	return domain.StorageFault(op, err)
}
