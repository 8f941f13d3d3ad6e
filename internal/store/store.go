// Package store keeps a log of delivery attempts. It records what the
// delivery service did; summaries themselves are not persisted.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/counsel/internal/delivery"
)

// Store is a delivery log backend.
type Store interface {
	RecordReceipt(ctx context.Context, r delivery.Receipt) error
	// ListReceipts returns the receipts for a session, oldest first.
	ListReceipts(ctx context.Context, sessionID string) ([]delivery.Receipt, error)
	Close() error
}

const sqlitePrefix = "sqlite://"

// Open picks a backend from the URL scheme: postgres:// or postgresql://
// for Postgres, sqlite://<path> for a local SQLite file.
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgres(ctx, url)
	case strings.HasPrefix(url, sqlitePrefix):
		path := strings.TrimPrefix(url, sqlitePrefix)
		if path == "" {
			return nil, fmt.Errorf("sqlite url %q has no path", url)
		}
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported database url %q", redact(url))
	}
}

// redact drops anything that could be a credential.
func redact(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i+3] + "..."
	}
	return "..."
}
