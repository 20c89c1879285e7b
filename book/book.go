// Package book keeps exact scores of solved positions in a SQLite file so
// that they survive between runs.
package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/fourply/fourply/board"
)

const schema = `CREATE TABLE IF NOT EXISTS positions (
	key   INTEGER PRIMARY KEY,
	plies INTEGER NOT NULL,
	score INTEGER NOT NULL
)`

// Book maps position keys to exact ply scores. It is safe for concurrent
// use.
type Book struct {
	db *sql.DB
}

// Open creates the file at path if needed. ":memory:" gives a private
// in-memory book.
func Open(ctx context.Context, path string) (*Book, error) {
	dsn := path + "?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" one database.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating book schema: %w", err)
	}
	log.Debug().Str("path", path).Msg("book-opened")
	return &Book{db: db}, nil
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// withRetry retries fn while another process holds the write lock.
func withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(20*time.Millisecond),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Uint("n", n).Err(err).Msg("book-busy-retrying")
		}),
	)
}

// Get returns the stored score of pos, if any.
func (b *Book) Get(ctx context.Context, pos board.Position) (int, bool, error) {
	var score int
	err := withRetry(ctx, func() error {
		return b.db.QueryRowContext(ctx,
			"SELECT score FROM positions WHERE key = ?", int64(pos.Key())).Scan(&score)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// Put stores the exact score of pos, replacing any earlier entry.
func (b *Book) Put(ctx context.Context, pos board.Position, score int) error {
	return withRetry(ctx, func() error {
		_, err := b.db.ExecContext(ctx,
			"INSERT OR REPLACE INTO positions (key, plies, score) VALUES (?, ?, ?)",
			int64(pos.Key()), pos.Plies(), score)
		return err
	})
}

// Len is the number of stored positions.
func (b *Book) Len(ctx context.Context) (int, error) {
	var n int
	err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM positions").Scan(&n)
	return n, err
}

func (b *Book) Close() error {
	return b.db.Close()
}
