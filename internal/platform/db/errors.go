package db

import (
	"errors"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Violation int

const (
	NoViolation Violation = iota
	UniqueViolation
	CheckViolation
	NotNullViolation
	OtherViolation
)

func (v Violation) String() string {
	switch v {
	case UniqueViolation:
		return "unique"
	case CheckViolation:
		return "check"
	case NotNullViolation:
		return "not null"
	case OtherViolation:
		return "constraint"
	}
	return "none"
}

const (
	mysqlDuplicateKey   = 1062
	mysqlNullNotAllowed = 1048
	mysqlCheckViolated  = 3819
)

// Classify maps a driver error to the constraint it violated, if any.
func Classify(err error) Violation {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return classifySQLite(se)
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateKey:
			return UniqueViolation
		case mysqlCheckViolated:
			return CheckViolation
		case mysqlNullNotAllowed:
			return NotNullViolation
		}
	}
	return NoViolation
}

func IsConstraintViolation(err error) bool { return Classify(err) != NoViolation }

func classifySQLite(se *sqlite.Error) Violation {
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return CheckViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return NotNullViolation
	}
	// extended result codes keep the primary code in the low byte
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return NoViolation
	}
	msg := se.Error()
	switch {
	case strings.Contains(msg, "UNIQUE"):
		return UniqueViolation
	case strings.Contains(msg, "CHECK"):
		return CheckViolation
	case strings.Contains(msg, "NOT NULL"):
		return NotNullViolation
	}
	return OtherViolation
}
