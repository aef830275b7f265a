package db

import (
	"context"
	"fmt"

	"library-backend/internal/platform/config"
)

// Table and column names shared by the gateways.
const (
	TableBooks   = "books"
	TableReaders = "readers"
	TableLoans   = "loans"
)

// Loans reference books and readers by id only; no foreign keys are declared so a
// referenced row can still be deleted.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		title     TEXT    NOT NULL,
		author    TEXT    NOT NULL,
		isbn      TEXT    NOT NULL UNIQUE,
		year      INTEGER NOT NULL,
		quantity  INTEGER NOT NULL,
		available INTEGER NOT NULL,
		CHECK (available >= 0 AND available <= quantity)
	)`,
	`CREATE TABLE IF NOT EXISTS readers (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		name              TEXT NOT NULL,
		email             TEXT NOT NULL UNIQUE,
		phone             TEXT NOT NULL,
		registration_date TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id     INTEGER NOT NULL,
		reader_id   INTEGER NOT NULL,
		loan_date   TEXT    NOT NULL,
		return_date TEXT    NOT NULL,
		is_returned INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_reader ON loans(reader_id)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_open ON loans(is_returned, return_date)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id        BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title     VARCHAR(512) NOT NULL,
		author    VARCHAR(512) NOT NULL,
		isbn      VARCHAR(64)  NOT NULL UNIQUE,
		year      INT          NOT NULL,
		quantity  INT          NOT NULL,
		available INT          NOT NULL,
		CONSTRAINT chk_books_available CHECK (available >= 0 AND available <= quantity)
	)`,
	`CREATE TABLE IF NOT EXISTS readers (
		id                BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name              VARCHAR(255) NOT NULL,
		email             VARCHAR(255) NOT NULL UNIQUE,
		phone             VARCHAR(64)  NOT NULL,
		registration_date CHAR(19)     NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id          BIGINT     NOT NULL AUTO_INCREMENT PRIMARY KEY,
		book_id     BIGINT     NOT NULL,
		reader_id   BIGINT     NOT NULL,
		loan_date   CHAR(19)   NOT NULL,
		return_date CHAR(19)   NOT NULL,
		is_returned TINYINT(1) NOT NULL DEFAULT 0,
		INDEX idx_loans_reader (reader_id),
		INDEX idx_loans_open (is_returned, return_date)
	)`,
}

// Migrate creates the three tables if they do not exist yet.
func Migrate(ctx context.Context, c *Conn) error {
	stmts := sqliteSchema
	if c.Driver == config.DriverMySQL {
		stmts = mysqlSchema
	}
	for _, q := range stmts {
		if _, err := c.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
