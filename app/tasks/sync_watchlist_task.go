package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rivalradar/rivalradar/app/database"
	"github.com/rivalradar/rivalradar/app/watchlist"
)

type SyncWatchlistTask struct {
	Task
	Entry          *watchlist.Entry
	competitorRepo database.CompetitorRepository
}

func NewSyncWatchlistTask(entry *watchlist.Entry, competitorRepo database.CompetitorRepository) *SyncWatchlistTask {
	return &SyncWatchlistTask{
		Task:           NewTask(TaskTypeSyncWatchlist, entry.Name),
		Entry:          entry,
		competitorRepo: competitorRepo,
	}
}

func (t *SyncWatchlistTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := t.competitorRepo.UpsertCompetitor(ctx,
		t.Entry.Name,
		t.Entry.Website,
		t.Entry.ChangelogURL,
		!t.Entry.Disabled)
	if err != nil {
		slog.Error("Task failed", "type", "SyncWatchlist", "competitor", t.CompetitorName, "error", err)
		return fmt.Errorf("failed to sync watchlist entry to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncWatchlist",
		"competitor", t.CompetitorName,
		"duration", t.GetDuration())

	return nil
}
