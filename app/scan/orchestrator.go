package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rivalradar/rivalradar/app/cfg"
	"github.com/rivalradar/rivalradar/app/database"
)

// Orchestrator drives the fetch, diff, classify, persist pipeline. It owns
// no timing state; the task scheduler or an API handler calls its pull-style
// entry points.
type Orchestrator struct {
	fetcher          *Fetcher
	changelogFetcher *ChangelogFetcher
	classifier       *Classifier
	competitorRepo   database.CompetitorRepository
	snapshotRepo     database.SnapshotRepository
	changeRepo       database.ChangeRepository
	scanDelay        time.Duration
}

// Outcome captures the per-competitor result of a batch scan. Either Change
// or Err may be set; a fetch failure sets both (the persisted error record
// and the cause).
type Outcome struct {
	CompetitorID   int64
	CompetitorName string
	Change         *database.Change
	Err            error
}

func NewOrchestrator(fetcher *Fetcher, changelogFetcher *ChangelogFetcher, classifier *Classifier,
	competitorRepo database.CompetitorRepository, snapshotRepo database.SnapshotRepository,
	changeRepo database.ChangeRepository) *Orchestrator {
	return &Orchestrator{
		fetcher:          fetcher,
		changelogFetcher: changelogFetcher,
		classifier:       classifier,
		competitorRepo:   competitorRepo,
		snapshotRepo:     snapshotRepo,
		changeRepo:       changeRepo,
		scanDelay:        time.Duration(cfg.Get().ScanDelay) * time.Second,
	}
}

// ScanOne runs the full pipeline for a single competitor. A fetch failure
// persists an error-category record and returns it along with the cause.
// Persistence failures are returned as-is; a successfully fetched snapshot
// is never silently dropped.
func (o *Orchestrator) ScanOne(ctx context.Context, competitor database.Competitor) (*database.Change, error) {
	page, err := o.fetcher.Run(ctx, competitor.Website)
	if err != nil {
		slog.Warn("Fetch failed", "competitor", competitor.Name, "url", competitor.Website, "error", err)

		errChange := o.errorChange(competitor, err)
		if insertErr := o.changeRepo.InsertChange(ctx, errChange); insertErr != nil {
			return nil, fmt.Errorf("failed to record fetch error: %w", insertErr)
		}
		return errChange, fmt.Errorf("failed to fetch %s: %w", competitor.Website, err)
	}

	if competitor.ChangelogURL != "" {
		excerpt, err := o.changelogFetcher.Run(ctx, competitor.ChangelogURL)
		if err != nil {
			slog.Debug("Changelog fetch failed, keeping page-derived excerpt", "competitor", competitor.Name, "error", err)
		} else if excerpt != "" {
			page.ChangelogContent = excerpt
		}
	}

	previous, err := o.snapshotRepo.GetLatestSnapshot(ctx, competitor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous snapshot: %w", err)
	}

	// The snapshot is appended before classification so a later failure
	// cannot lose the observation; the next scan diffs against it.
	snapshot := &database.Snapshot{
		CompetitorID: competitor.ID,
		ContentHash:  page.ContentHash,
		Content:      page.Content,
		ScrapedAt:    page.ScrapedAt,
	}
	if err := o.snapshotRepo.AppendSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to append snapshot: %w", err)
	}

	previousContent := ""
	if previous != nil {
		previousContent = previous.Content
	}

	result := o.classifier.Run(ctx, previousContent, page.Content, competitor.Name, competitor.Website)

	change := &database.Change{
		CompetitorID:     competitor.ID,
		CompetitorName:   competitor.Name,
		Content:          page.Content,
		ContentHash:      page.ContentHash,
		ChangelogContent: page.ChangelogContent,
		Analysis:         result.Analysis,
		ChangeType:       result.ChangeType,
		ImportanceScore:  result.ImportanceScore,
		NewsTitle:        result.NewsTitle,
		NewsExcerpt:      result.NewsExcerpt,
		SourceLinks:      result.SourceLinks,
		DetectedAt:       page.ScrapedAt,
	}
	if err := o.changeRepo.InsertChange(ctx, change); err != nil {
		return nil, fmt.Errorf("failed to insert change record: %w", err)
	}

	if err := o.competitorRepo.UpdateLastChecked(ctx, competitor.ID, page.ScrapedAt); err != nil {
		return nil, fmt.Errorf("failed to update last checked: %w", err)
	}

	slog.Info("Scan completed",
		"competitor", competitor.Name,
		"change_type", change.ChangeType,
		"importance", change.ImportanceScore)

	return change, nil
}

// ScanAll scans every active competitor sequentially with a small delay
// between them, bounding the outbound request rate against third-party
// sites. One competitor's failure never aborts the rest of the batch.
func (o *Orchestrator) ScanAll(ctx context.Context) ([]Outcome, error) {
	competitors, err := o.competitorRepo.ListActiveCompetitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}

	outcomes := make([]Outcome, 0, len(competitors))
	for i, competitor := range competitors {
		if i > 0 {
			select {
			case <-ctx.Done():
				return outcomes, ctx.Err()
			case <-time.After(o.scanDelay):
			}
		}

		change, err := o.ScanOne(ctx, competitor)
		outcomes = append(outcomes, Outcome{
			CompetitorID:   competitor.ID,
			CompetitorName: competitor.Name,
			Change:         change,
			Err:            err,
		})

		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
	}

	return outcomes, nil
}

func (o *Orchestrator) errorChange(competitor database.Competitor, cause error) *database.Change {
	return &database.Change{
		CompetitorID:    competitor.ID,
		CompetitorName:  competitor.Name,
		Analysis:        fmt.Sprintf("Failed to scrape content: %v", cause),
		ChangeType:      CategoryError,
		ImportanceScore: 1,
		NewsTitle:       fmt.Sprintf("Scan Error for %s", competitor.Name),
		NewsExcerpt:     "Unable to retrieve website content",
		SourceLinks:     competitor.Website,
		DetectedAt:      time.Now().UTC(),
	}
}
