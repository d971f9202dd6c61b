package database

import (
	"context"
	"time"
)

type CompetitorRepository interface {
	GetCompetitor(ctx context.Context, id int64) (*Competitor, error)
	GetCompetitorByName(ctx context.Context, name string) (*Competitor, error)
	ListCompetitors(ctx context.Context) ([]Competitor, error)
	ListActiveCompetitors(ctx context.Context) ([]Competitor, error)
	GetCompetitorCount(ctx context.Context) (int, error)

	CreateCompetitor(ctx context.Context, c *Competitor) error
	UpsertCompetitor(ctx context.Context, name, website, changelogURL string, active bool) (int64, error)
	UpdateLastChecked(ctx context.Context, id int64, checkedAt time.Time) error
	DeleteCompetitor(ctx context.Context, id int64) error
}

type SnapshotRepository interface {
	// GetLatestSnapshot returns the most recent snapshot for the competitor,
	// or nil when none has been recorded yet.
	GetLatestSnapshot(ctx context.Context, competitorID int64) (*Snapshot, error)
	AppendSnapshot(ctx context.Context, s *Snapshot) error
}

type ChangeRepository interface {
	InsertChange(ctx context.Context, c *Change) error
	// GetRecentChanges returns changes ordered by detection time descending,
	// ties broken by importance descending.
	GetRecentChanges(ctx context.Context, limit int) ([]Change, error)
	// GetChangesSince returns changes detected after the cutoff, ordered by
	// importance descending then detection time descending, the order the
	// digest consumes.
	GetChangesSince(ctx context.Context, since time.Time) ([]Change, error)
	GetChangeCount(ctx context.Context) (int, error)
}
