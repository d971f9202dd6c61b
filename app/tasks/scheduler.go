package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rivalradar/rivalradar/app/cfg"
	"github.com/rivalradar/rivalradar/app/database"
	"github.com/rivalradar/rivalradar/app/scan"
	"github.com/rivalradar/rivalradar/app/watchlist"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	competitorRepo database.CompetitorRepository
	watchlistCache *watchlist.Cache
	orchestrator   *scan.Orchestrator
	interval       time.Duration
	workerCount    int
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface
}

func NewScheduler(watchlistCache *watchlist.Cache, orchestrator *scan.Orchestrator,
	competitorRepo database.CompetitorRepository) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		competitorRepo: competitorRepo,
		watchlistCache: watchlistCache,
		orchestrator:   orchestrator,
		interval:       time.Duration(cfg.ScanInterval) * time.Second,
		workerCount:    cfg.WorkerCount,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	entries := s.watchlistCache.GetEntries()
	if len(entries) == 0 {
		slog.Debug("No watchlist entries found")
	}

	for _, entry := range entries {
		syncTask := NewSyncWatchlistTask(entry, s.competitorRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncWatchlistTask", "competitor", entry.Name, "error", err)
		}
	}

	s.enqueueTasks()
}

func (s *Scheduler) enqueueTasks() {
	competitors, err := s.competitorRepo.ListActiveCompetitors(s.ctx)
	if err != nil {
		slog.Warn("Failed to list competitors for task scheduling", "error", err)
		return
	}
	if len(competitors) == 0 {
		slog.Debug("No active competitors found")
		return
	}

	slog.Debug("Processing active competitors for task scheduling", "count", len(competitors))

	now := time.Now().UTC()
	for _, competitor := range competitors {
		if competitor.LastChecked != nil && now.Sub(*competitor.LastChecked) < s.interval {
			slog.Debug("Competitor not due for scan yet", "competitor", competitor.Name, "last_checked", competitor.LastChecked)
			continue
		}

		scanTask := NewScanCompetitorTask(competitor, s.orchestrator)
		if err := s.EnqueueTask(scanTask); err != nil {
			slog.Warn("Failed to enqueue ScanCompetitorTask", "competitor", competitor.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "competitor", task.GetCompetitorName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
