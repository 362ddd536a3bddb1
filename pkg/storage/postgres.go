package storage

import (
	"context"
	"database/sql"
	"log/slog"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) SaveLink(ctx context.Context, l Link) error {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO links (raw_url, cleaned_url, normalized_url, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		l.RawURL, l.CleanedURL, l.NormalizedURL, l.Timestamp,
	).Scan(&id)

	if err != nil {
		return err
	}

	slog.Debug("saved link", "id", id, "normalized_url", l.NormalizedURL)
	return nil
}

func (s *PostgresStorage) RecentLinks(ctx context.Context, limit int) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, raw_url, cleaned_url, normalized_url, timestamp
		FROM links
		ORDER BY timestamp DESC, id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		slog.Error("recent links query failed", "limit", limit, "err", err)
		return nil, err
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.RawURL, &l.CleanedURL, &l.NormalizedURL, &l.Timestamp); err != nil {
			slog.Error("recent links scan failed", "err", err)
			return nil, err
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		slog.Error("recent links rows iteration failed", "err", err)
		return nil, err
	}

	return links, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
