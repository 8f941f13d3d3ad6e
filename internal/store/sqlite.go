package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MikeSquared-Agency/counsel/internal/delivery"
)

// SQLite is a single-file delivery log for local runs. Safe for
// concurrent use; SQLite serializes writes.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open delivery database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate delivery schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS delivery_receipts (
		id          TEXT PRIMARY KEY,
		email_id    TEXT NOT NULL DEFAULT '',
		session_id  TEXT NOT NULL,
		to_email    TEXT NOT NULL,
		subject     TEXT NOT NULL,
		success     INTEGER NOT NULL,
		mock        INTEGER NOT NULL,
		error       TEXT NOT NULL DEFAULT '',
		sent_at     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_delivery_receipts_session ON delivery_receipts(session_id, sent_at);
	`)
	return err
}

func (s *SQLite) RecordReceipt(ctx context.Context, r delivery.Receipt) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate receipt row ID: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO delivery_receipts
			(id, email_id, session_id, to_email, subject, success, mock, error, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), r.ID, r.SessionID, r.To, r.Subject, r.Success, r.Mock, r.Error,
		r.SentAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

func (s *SQLite) ListReceipts(ctx context.Context, sessionID string) ([]delivery.Receipt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email_id, session_id, to_email, subject, success, mock, error, sent_at
		 FROM delivery_receipts
		 WHERE session_id = ?
		 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var out []delivery.Receipt
	for rows.Next() {
		var r delivery.Receipt
		var sentAt string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.To, &r.Subject, &r.Success, &r.Mock, &r.Error, &sentAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if r.SentAt, err = time.Parse(time.RFC3339Nano, sentAt); err != nil {
			return nil, fmt.Errorf("parse sent_at %q: %w", sentAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
