// Package loader executes generated question statements against the game's
// MySQL database.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
)

// Loader wraps a MySQL connection pool.
type Loader struct {
	db *sql.DB
}

// Open connects to MySQL using dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Loader, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return New(db), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Loader {
	return &Loader{db: db}
}

// Close closes the database connection
func (l *Loader) Close() error {
	return l.db.Close()
}

// EnsureTable creates the questions table if it does not exist yet.
// table and column must already be validated identifiers.
func (l *Loader) EnsureTable(ctx context.Context, table, column string) error {
	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id INT AUTO_INCREMENT PRIMARY KEY, %s TEXT NOT NULL)",
		table, column,
	)
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	slog.Debug("ensured table", "table", table)
	return nil
}

// Load executes statements in a single transaction and returns the number of
// rows inserted. Nothing is committed unless every statement succeeds.
func (l *Loader) Load(ctx context.Context, statements []string) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var total int64
	for i, stmt := range statements {
		res, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("statement %d: %w", i+1, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("statement %d: rows affected: %w", i+1, err)
		}
		total += n
		slog.Debug("executed statement", "index", i+1, "rows", n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return total, nil
}
