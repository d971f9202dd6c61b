package api

import (
	"context"

	"github.com/rivalradar/rivalradar/app/database"
	"github.com/rivalradar/rivalradar/app/scan"
	"github.com/rivalradar/rivalradar/app/tasks"
)

type SummarizerInterface interface {
	Run(ctx context.Context, changes []database.Change) string
}

var _ SummarizerInterface = (*scan.Summarizer)(nil)

type Handler struct {
	competitorRepo database.CompetitorRepository
	changeRepo     database.ChangeRepository
	summarizer     SummarizerInterface
	orchestrator   *scan.Orchestrator
	scheduler      tasks.TaskSchedulerInterface
}
