package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/counsel/internal/delivery"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Postgres{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate delivery schema: %w", err)
	}
	return s, nil
}

func (s *Postgres) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS delivery_receipts (
			id          UUID PRIMARY KEY,
			email_id    TEXT NOT NULL DEFAULT '',
			session_id  TEXT NOT NULL,
			to_email    TEXT NOT NULL,
			subject     TEXT NOT NULL,
			success     BOOLEAN NOT NULL,
			mock        BOOLEAN NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			sent_at     TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_delivery_receipts_session ON delivery_receipts(session_id, sent_at);`)
	return err
}

func (s *Postgres) RecordReceipt(ctx context.Context, r delivery.Receipt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO delivery_receipts (id, email_id, session_id, to_email, subject, success, mock, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), r.ID, r.SessionID, r.To, r.Subject, r.Success, r.Mock, r.Error, r.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

func (s *Postgres) ListReceipts(ctx context.Context, sessionID string) ([]delivery.Receipt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT email_id, session_id, to_email, subject, success, mock, error, sent_at
		FROM delivery_receipts
		WHERE session_id = $1
		ORDER BY sent_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var out []delivery.Receipt
	for rows.Next() {
		var r delivery.Receipt
		if err := rows.Scan(&r.ID, &r.SessionID, &r.To, &r.Subject, &r.Success, &r.Mock, &r.Error, &r.SentAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		r.SentAt = r.SentAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
