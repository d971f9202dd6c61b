package database

import (
	"time"
)

const (
	CompetitorStatusActive   = "active"
	CompetitorStatusInactive = "inactive"
)

type Competitor struct {
	ID           int64
	Name         string
	Website      string
	ChangelogURL string
	Status       string
	AddedAt      time.Time
	LastChecked  *time.Time
}

// Snapshot is one fetched-and-normalized observation of a competitor's
// website. Immutable once written; only the most recent one per competitor
// is read back, as the diff baseline for the next scan.
type Snapshot struct {
	ID           int64
	CompetitorID int64
	ContentHash  string
	Content      string
	ScrapedAt    time.Time
}

// Change is the persisted classification result for one scan of one
// competitor.
type Change struct {
	ID               int64
	CompetitorID     int64
	CompetitorName   string
	Content          string
	ContentHash      string
	ChangelogContent string
	Analysis         string
	ChangeType       string
	ImportanceScore  int
	NewsTitle        string
	NewsExcerpt      string
	SourceLinks      string
	DetectedAt       time.Time
}
