package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"library-backend/internal/platform/config"
)

// Conn is the store handle shared by every gateway. It is created once by the
// caller and passed down explicitly.
type Conn struct {
	DB      *sqlx.DB
	Dialect goqu.DialectWrapper
	Driver  string
}

func (c *Conn) Close() error { return c.DB.Close() }

func Open(c config.DatabaseConfig) (*Conn, error) {
	switch c.Driver {
	case config.DriverSQLite:
		return openSQLite(c.Path)
	case config.DriverMySQL:
		return openMySQL(c)
	default:
		return nil, fmt.Errorf("unsupported driver %q", c.Driver)
	}
}

func openSQLite(path string) (*Conn, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	// one connection: every transaction is serialised, single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return &Conn{DB: db, Dialect: goqu.Dialect("sqlite3"), Driver: config.DriverSQLite}, nil
}

func openMySQL(c config.DatabaseConfig) (*Conn, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Conn{DB: db, Dialect: goqu.Dialect("mysql"), Driver: config.DriverMySQL}, nil
}
