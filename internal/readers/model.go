package readers

import (
	"github.com/doug-martin/goqu/v9"

	"library-backend/internal/domain"
	"library-backend/internal/platform/db"
)

var readerColumns = []any{"id", "name", "email", "phone", "registration_date"}

type readerRow struct {
	ID               int64  `db:"id"`
	Name             string `db:"name"`
	Email            string `db:"email"`
	Phone            string `db:"phone"`
	RegistrationDate string `db:"registration_date"`
}

func (r readerRow) toModel() (domain.Reader, error) {
	registered, err := db.ParseTimestamp(r.RegistrationDate)
	if err != nil {
		return domain.Reader{}, err
	}
	return domain.Reader{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		RegisteredAt: registered,
	}, nil
}

func insertRecord(r domain.Reader) goqu.Record {
	return goqu.Record{
		"name":              r.Name,
		"email":             r.Email,
		"phone":             r.Phone,
		"registration_date": db.FormatTimestamp(r.RegisteredAt),
	}
}

// registration_date is not listed: it is written once by Add.
func changesRecord(c domain.ReaderChanges) goqu.Record {
	rec := goqu.Record{}
	if c.Name != nil {
		rec["name"] = *c.Name
	}
	if c.Email != nil {
		rec["email"] = *c.Email
	}
	if c.Phone != nil {
		rec["phone"] = *c.Phone
	}
	return rec
}
