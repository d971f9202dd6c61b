package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rivalradar/rivalradar/app/database"
	"github.com/rivalradar/rivalradar/app/scan"
	"github.com/rivalradar/rivalradar/app/tasks"
)

const (
	defaultChangesLimit = 20
	maxChangesLimit     = 200
	defaultDigestDays   = 7
)

func NewHandler(competitorRepo database.CompetitorRepository, changeRepo database.ChangeRepository,
	summarizer SummarizerInterface, orchestrator *scan.Orchestrator,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		competitorRepo: competitorRepo,
		changeRepo:     changeRepo,
		summarizer:     summarizer,
		orchestrator:   orchestrator,
		scheduler:      scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if competitorCount, err := h.competitorRepo.GetCompetitorCount(c.Request.Context()); err == nil {
		health["competitors"] = competitorCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	stats := map[string]interface{}{}

	if competitorCount, err := h.competitorRepo.GetCompetitorCount(ctx); err == nil {
		stats["competitors"] = competitorCount
	}
	if changeCount, err := h.changeRepo.GetChangeCount(ctx); err == nil {
		stats["changes"] = changeCount
	}
	if active, err := h.competitorRepo.ListActiveCompetitors(ctx); err == nil {
		stats["active_competitors"] = len(active)
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListCompetitors(c *gin.Context) {
	competitors, err := h.competitorRepo.ListCompetitors(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_competitors", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(competitors))
	for _, competitor := range competitors {
		info := map[string]interface{}{
			"id":       competitor.ID,
			"name":     competitor.Name,
			"website":  competitor.Website,
			"status":   competitor.Status,
			"added_at": competitor.AddedAt.Format(time.RFC3339),
		}
		if competitor.ChangelogURL != "" {
			info["changelog_url"] = competitor.ChangelogURL
		}
		if competitor.LastChecked != nil {
			info["last_checked"] = competitor.LastChecked.Format(time.RFC3339)
		}
		list = append(list, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"competitors": list,
		"total":       len(list),
	})
}

func (h *Handler) GetChanges(c *gin.Context) {
	limit := defaultChangesLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}
	if limit > maxChangesLimit {
		limit = maxChangesLimit
	}

	changes, err := h.changeRepo.GetRecentChanges(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_changes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(changes))
	for _, change := range changes {
		list = append(list, map[string]interface{}{
			"id":           change.ID,
			"competitor":   change.CompetitorName,
			"change_type":  change.ChangeType,
			"importance":   change.ImportanceScore,
			"news_title":   change.NewsTitle,
			"news_excerpt": change.NewsExcerpt,
			"analysis":     change.Analysis,
			"detected_at":  change.DetectedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"changes": list,
		"total":   len(list),
	})
}

func (h *Handler) GetDigest(c *gin.Context) {
	days := defaultDigestDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
			return
		}
		days = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	changes, err := h.changeRepo.GetChangesSince(c.Request.Context(), since)
	if err != nil {
		slog.Error("Database error", "operation", "get_digest", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	digest := h.summarizer.Run(c.Request.Context(), changes)

	c.JSON(http.StatusOK, map[string]interface{}{
		"digest":       digest,
		"period_days":  days,
		"change_count": len(changes),
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

type createCompetitorRequest struct {
	Name         string `json:"name" binding:"required"`
	Website      string `json:"website" binding:"required"`
	ChangelogURL string `json:"changelog_url"`
}

func (h *Handler) APICreateCompetitor(c *gin.Context) {
	var req createCompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Website = strings.TrimSpace(req.Website)
	if req.Name == "" || req.Website == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and website are required"})
		return
	}
	if !strings.HasPrefix(req.Website, "http://") && !strings.HasPrefix(req.Website, "https://") {
		req.Website = "https://" + req.Website
	}

	ctx := c.Request.Context()

	existing, err := h.competitorRepo.GetCompetitorByName(ctx, req.Name)
	if err != nil {
		slog.Error("Database error", "operation", "get_competitor", "competitor", req.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Competitor already exists", "id": existing.ID})
		return
	}

	id, err := h.competitorRepo.UpsertCompetitor(ctx, req.Name, req.Website, req.ChangelogURL, true)
	if err != nil {
		slog.Error("Database error", "operation", "create_competitor", "competitor", req.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	competitor, err := h.competitorRepo.GetCompetitor(ctx, id)
	if err != nil || competitor == nil {
		slog.Error("Database error", "operation", "get_competitor", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	scanTask := tasks.NewScanCompetitorTask(*competitor, h.orchestrator)
	if err := h.scheduler.EnqueueTask(scanTask); err != nil {
		slog.Warn("Failed to enqueue initial scan", "competitor", req.Name, "error", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"competitor": gin.H{
			"id":      competitor.ID,
			"name":    competitor.Name,
			"website": competitor.Website,
		},
		"task": gin.H{
			"id":   scanTask.ID,
			"type": scanTask.Type,
		},
	})
}

func (h *Handler) APIDeleteCompetitor(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid competitor id"})
		return
	}

	ctx := c.Request.Context()

	competitor, err := h.competitorRepo.GetCompetitor(ctx, id)
	if err != nil {
		slog.Error("Database error", "operation", "get_competitor", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if competitor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Competitor not found"})
		return
	}

	if err := h.competitorRepo.DeleteCompetitor(ctx, id); err != nil {
		slog.Error("Database error", "operation", "delete_competitor", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Competitor and its history deleted",
		"competitor": gin.H{
			"id":   competitor.ID,
			"name": competitor.Name,
		},
	})
}

func (h *Handler) APIScanCompetitor(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid competitor id"})
		return
	}

	competitor, err := h.competitorRepo.GetCompetitor(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_competitor", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if competitor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Competitor not found"})
		return
	}

	scanTask := tasks.NewScanCompetitorTask(*competitor, h.orchestrator)
	if err := h.scheduler.EnqueueTask(scanTask); err != nil {
		slog.Error("Error enqueueing scan task", "competitor", competitor.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue scan task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Scan enqueued",
		"competitor": gin.H{
			"id":   competitor.ID,
			"name": competitor.Name,
		},
		"task": gin.H{
			"id":   scanTask.ID,
			"type": scanTask.Type,
		},
	})
}

func (h *Handler) APIScanAll(c *gin.Context) {
	scanTask := tasks.NewScanAllTask(h.orchestrator)
	if err := h.scheduler.EnqueueTask(scanTask); err != nil {
		slog.Error("Error enqueueing batch scan task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue batch scan task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Batch scan enqueued",
		"task": gin.H{
			"id":   scanTask.ID,
			"type": scanTask.Type,
		},
	})
}
