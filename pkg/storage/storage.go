package storage

import (
	"context"
	"time"
)

// Link is one cleaning outcome. The log is append-only and is never read
// back to short-circuit cleaning.
type Link struct {
	ID            int64
	RawURL        string
	CleanedURL    string
	NormalizedURL string
	Timestamp     time.Time
}

type Storage interface {
	SaveLink(ctx context.Context, l Link) error
	RecentLinks(ctx context.Context, limit int) ([]Link, error)
	Close() error
}
