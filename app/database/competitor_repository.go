package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const timeLayout = time.RFC3339

type competitorRepository struct {
	db *DB
}

func NewCompetitorRepository(db *DB) CompetitorRepository {
	return &competitorRepository{db: db}
}

func (r *competitorRepository) GetCompetitor(ctx context.Context, id int64) (*Competitor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, website, changelog_url, status, added_at, last_checked
		FROM competitors WHERE id = ?`, id)
	return scanCompetitor(row)
}

func (r *competitorRepository) GetCompetitorByName(ctx context.Context, name string) (*Competitor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, website, changelog_url, status, added_at, last_checked
		FROM competitors WHERE name = ?`, name)
	return scanCompetitor(row)
}

func (r *competitorRepository) ListCompetitors(ctx context.Context) ([]Competitor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, website, changelog_url, status, added_at, last_checked
		FROM competitors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors: %w", err)
	}
	defer rows.Close()
	return scanCompetitors(rows)
}

func (r *competitorRepository) ListActiveCompetitors(ctx context.Context) ([]Competitor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, website, changelog_url, status, added_at, last_checked
		FROM competitors WHERE status = ? ORDER BY name`, CompetitorStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query active competitors: %w", err)
	}
	defer rows.Close()
	return scanCompetitors(rows)
}

func (r *competitorRepository) GetCompetitorCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM competitors`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count competitors: %w", err)
	}
	return count, nil
}

func (r *competitorRepository) CreateCompetitor(ctx context.Context, c *Competitor) error {
	if c.Status == "" {
		c.Status = CompetitorStatusActive
	}
	if c.AddedAt.IsZero() {
		c.AddedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO competitors (name, website, changelog_url, status, added_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Website, c.ChangelogURL, c.Status, c.AddedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert competitor: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get competitor id: %w", err)
	}
	c.ID = id

	return nil
}

// UpsertCompetitor registers a watchlist entry, updating the website,
// changelog URL and status of an existing competitor with the same name.
func (r *competitorRepository) UpsertCompetitor(ctx context.Context, name, website, changelogURL string, active bool) (int64, error) {
	status := CompetitorStatusInactive
	if active {
		status = CompetitorStatusActive
	}

	existing, err := r.GetCompetitorByName(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing competitor: %w", err)
	}

	if existing != nil {
		_, err = r.db.ExecContext(ctx, `
			UPDATE competitors SET website = ?, changelog_url = ?, status = ?
			WHERE id = ?`, website, changelogURL, status, existing.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to update competitor: %w", err)
		}
		return existing.ID, nil
	}

	c := &Competitor{
		Name:         name,
		Website:      website,
		ChangelogURL: changelogURL,
		Status:       status,
	}
	if err := r.CreateCompetitor(ctx, c); err != nil {
		return 0, err
	}
	return c.ID, nil
}

func (r *competitorRepository) UpdateLastChecked(ctx context.Context, id int64, checkedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE competitors SET last_checked = ? WHERE id = ?`,
		checkedAt.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("failed to update last checked: %w", err)
	}
	return nil
}

// DeleteCompetitor removes a competitor together with its snapshots and
// change records. Done in one transaction so a half-deleted competitor is
// never observable.
func (r *competitorRepository) DeleteCompetitor(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM changes WHERE competitor_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete changes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM content_snapshots WHERE competitor_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM competitors WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete competitor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompetitor(row rowScanner) (*Competitor, error) {
	var c Competitor
	var addedAt string
	var lastChecked sql.NullString

	err := row.Scan(&c.ID, &c.Name, &c.Website, &c.ChangelogURL, &c.Status, &addedAt, &lastChecked)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan competitor: %w", err)
	}

	c.AddedAt, err = time.Parse(timeLayout, addedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse added_at: %w", err)
	}
	if lastChecked.Valid {
		t, err := time.Parse(timeLayout, lastChecked.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_checked: %w", err)
		}
		c.LastChecked = &t
	}

	return &c, nil
}

func scanCompetitors(rows *sql.Rows) ([]Competitor, error) {
	var competitors []Competitor
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, err
		}
		competitors = append(competitors, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate competitors: %w", err)
	}
	return competitors, nil
}
