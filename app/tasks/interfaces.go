package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background scan processing.
// Example usage:
//
//	scheduler := NewScheduler(watchlistCache, orchestrator, competitorRepo)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewScanCompetitorTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
