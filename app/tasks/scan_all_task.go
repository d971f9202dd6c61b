package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rivalradar/rivalradar/app/scan"
)

type ScanAllTask struct {
	Task
	orchestrator *scan.Orchestrator
}

func NewScanAllTask(orchestrator *scan.Orchestrator) *ScanAllTask {
	return &ScanAllTask{
		Task:         NewTask(TaskTypeScanAll, ""),
		orchestrator: orchestrator,
	}
}

func (t *ScanAllTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	outcomes, err := t.orchestrator.ScanAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to run batch scan: %w", err)
	}

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			slog.Warn("Batch scan competitor failed", "competitor", outcome.CompetitorName, "error", outcome.Err)
		}
	}

	slog.Info("Task completed",
		"type", "ScanAll",
		"duration", t.GetDuration(),
		"scanned", len(outcomes),
		"failed", failed)

	return nil
}
