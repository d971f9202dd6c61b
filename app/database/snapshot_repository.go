package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type snapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) GetLatestSnapshot(ctx context.Context, competitorID int64) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, competitor_id, content_hash, content, scraped_at
		FROM content_snapshots
		WHERE competitor_id = ?
		ORDER BY scraped_at DESC, id DESC
		LIMIT 1`, competitorID)

	var s Snapshot
	var scrapedAt string
	err := row.Scan(&s.ID, &s.CompetitorID, &s.ContentHash, &s.Content, &scrapedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	s.ScrapedAt, err = time.Parse(timeLayout, scrapedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scraped_at: %w", err)
	}

	return &s, nil
}

func (r *snapshotRepository) AppendSnapshot(ctx context.Context, s *Snapshot) error {
	if s.ScrapedAt.IsZero() {
		s.ScrapedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO content_snapshots (competitor_id, content_hash, content, scraped_at)
		VALUES (?, ?, ?, ?)`,
		s.CompetitorID, s.ContentHash, s.Content, s.ScrapedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get snapshot id: %w", err)
	}
	s.ID = id

	return nil
}
