package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rivalradar/rivalradar/app/database"
	"github.com/rivalradar/rivalradar/app/scan"
)

type ScanCompetitorTask struct {
	Task
	Competitor   database.Competitor
	orchestrator *scan.Orchestrator
}

func NewScanCompetitorTask(competitor database.Competitor, orchestrator *scan.Orchestrator) *ScanCompetitorTask {
	return &ScanCompetitorTask{
		Task:         NewTask(TaskTypeScanCompetitor, competitor.Name),
		Competitor:   competitor,
		orchestrator: orchestrator,
	}
}

func (t *ScanCompetitorTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.Competitor.Status != database.CompetitorStatusActive {
		slog.Debug("Competitor inactive, skipping", "competitor", t.CompetitorName)
		return nil
	}

	change, err := t.orchestrator.ScanOne(ctx, t.Competitor)
	if err != nil {
		return fmt.Errorf("failed to scan competitor: %w", err)
	}

	slog.Info("Task completed",
		"type", "ScanCompetitor",
		"competitor", t.CompetitorName,
		"duration", t.GetDuration(),
		"change_type", change.ChangeType,
		"importance", change.ImportanceScore)

	return nil
}
