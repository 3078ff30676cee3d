// Package history journals finished batches in sqlite. It exists for
// operator observability only: the engine never reads it back to make
// scheduling or retry decisions.
package history

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dailysign/internal/domain"
)

var ErrNotFound = errors.New("batch not found")

// EnsureSchema creates tables if they don't exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
PRAGMA journal_mode=WAL;
CREATE TABLE IF NOT EXISTS batches (
  id TEXT PRIMARY KEY,
  started_at DATETIME NOT NULL,
  finished_at DATETIME NOT NULL,
  total INTEGER NOT NULL,
  succeeded INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_batches_started ON batches(started_at DESC);
CREATE TABLE IF NOT EXISTS batch_accounts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  batch_id TEXT NOT NULL,
  username TEXT NOT NULL,
  outcome TEXT NOT NULL,
  reason TEXT,
  FOREIGN KEY(batch_id) REFERENCES batches(id)
);
CREATE INDEX IF NOT EXISTS idx_batch_accounts_batch ON batch_accounts(batch_id);
`
	_, err := db.Exec(schema)
	return err
}

// BatchRecord is one journaled batch.
type BatchRecord struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Total      int             `json:"total"`
	Succeeded  int             `json:"succeeded"`
	Accounts   []AccountRecord `json:"accounts,omitempty"`
}

type AccountRecord struct {
	Username string `json:"username"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
}

type Journal struct{ db *sql.DB }

func New(db *sql.DB) *Journal { return &Journal{db: db} }

// Record journals one finished batch with its per-account outcomes.
func (j *Journal) Record(ctx context.Context, res domain.BatchResult, started, finished time.Time) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO batches (id, started_at, finished_at, total, succeeded)
VALUES (?,?,?,?,?)`, res.ID, started.UTC(), finished.UTC(), res.Total, res.Succeeded)
	if err != nil {
		return err
	}
	for _, a := range res.Accounts {
		var reason sql.NullString
		if a.Reason != "" {
			reason = sql.NullString{String: a.Reason, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO batch_accounts (batch_id, username, outcome, reason)
VALUES (?,?,?,?)`, res.ID, a.Username, string(a.Outcome), reason)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRecent returns the newest batches first, without account detail.
func (j *Journal) ListRecent(ctx context.Context, limit int) ([]BatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, started_at, finished_at, total, succeeded
FROM batches ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BatchRecord
	for rows.Next() {
		var b BatchRecord
		if err := rows.Scan(&b.ID, &b.StartedAt, &b.FinishedAt, &b.Total, &b.Succeeded); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Get returns one batch with its per-account outcomes.
func (j *Journal) Get(ctx context.Context, id string) (BatchRecord, error) {
	row := j.db.QueryRowContext(ctx, `
SELECT id, started_at, finished_at, total, succeeded
FROM batches WHERE id=?`, id)
	var b BatchRecord
	if err := row.Scan(&b.ID, &b.StartedAt, &b.FinishedAt, &b.Total, &b.Succeeded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BatchRecord{}, ErrNotFound
		}
		return BatchRecord{}, err
	}

	rows, err := j.db.QueryContext(ctx, `
SELECT username, outcome, reason FROM batch_accounts WHERE batch_id=? ORDER BY id`, id)
	if err != nil {
		return BatchRecord{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var a AccountRecord
		var reason sql.NullString
		if err := rows.Scan(&a.Username, &a.Outcome, &reason); err != nil {
			return BatchRecord{}, err
		}
		if reason.Valid {
			a.Reason = reason.String
		}
		b.Accounts = append(b.Accounts, a)
	}
	return b, rows.Err()
}

// Prune drops batches older than the retention window.
func (j *Journal) Prune(ctx context.Context, keep time.Duration) (int, error) {
	cutoff := time.Now().Add(-keep).UTC()
	if _, err := j.db.ExecContext(ctx, `
DELETE FROM batch_accounts WHERE batch_id IN (SELECT id FROM batches WHERE started_at < ?)`, cutoff); err != nil {
		return 0, err
	}
	res, err := j.db.ExecContext(ctx, `DELETE FROM batches WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
