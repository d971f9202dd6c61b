package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type changeRepository struct {
	db *DB
}

func NewChangeRepository(db *DB) ChangeRepository {
	return &changeRepository{db: db}
}

func (r *changeRepository) InsertChange(ctx context.Context, c *Change) error {
	if c.DetectedAt.IsZero() {
		c.DetectedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO changes (
			competitor_id, competitor_name, content, content_hash,
			changelog_content, analysis, change_type, importance_score,
			news_title, news_excerpt, source_links, detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CompetitorID, c.CompetitorName, c.Content, c.ContentHash,
		c.ChangelogContent, c.Analysis, c.ChangeType, c.ImportanceScore,
		c.NewsTitle, c.NewsExcerpt, c.SourceLinks,
		c.DetectedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert change: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get change id: %w", err)
	}
	c.ID = id

	return nil
}

func (r *changeRepository) GetRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, competitor_id, competitor_name, content, content_hash,
		       changelog_content, analysis, change_type, importance_score,
		       news_title, news_excerpt, source_links, detected_at
		FROM changes
		ORDER BY detected_at DESC, importance_score DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent changes: %w", err)
	}
	defer rows.Close()
	return scanChanges(rows)
}

func (r *changeRepository) GetChangesSince(ctx context.Context, since time.Time) ([]Change, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, competitor_id, competitor_name, content, content_hash,
		       changelog_content, analysis, change_type, importance_score,
		       news_title, news_excerpt, source_links, detected_at
		FROM changes
		WHERE detected_at > ?
		ORDER BY importance_score DESC, detected_at DESC`,
		since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query changes since %s: %w", since, err)
	}
	defer rows.Close()
	return scanChanges(rows)
}

func (r *changeRepository) GetChangeCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM changes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count changes: %w", err)
	}
	return count, nil
}

func scanChanges(rows *sql.Rows) ([]Change, error) {
	var changes []Change
	for rows.Next() {
		var c Change
		var detectedAt string

		err := rows.Scan(&c.ID, &c.CompetitorID, &c.CompetitorName, &c.Content,
			&c.ContentHash, &c.ChangelogContent, &c.Analysis, &c.ChangeType,
			&c.ImportanceScore, &c.NewsTitle, &c.NewsExcerpt, &c.SourceLinks,
			&detectedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}

		c.DetectedAt, err = time.Parse(timeLayout, detectedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse detected_at: %w", err)
		}

		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate changes: %w", err)
	}
	return changes, nil
}
