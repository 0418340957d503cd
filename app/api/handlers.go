package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vidrelay/app/cfg"
	"vidrelay/app/checkpoint"
)

type Handler struct {
	status  *Status
	store   checkpoint.Store
	history RunHistory
}

func NewHandler(status *Status, store checkpoint.Store, history RunHistory) *Handler {
	return &Handler{
		status:  status,
		store:   store,
		history: history,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	if lastRun, _ := h.status.Snapshot(); lastRun != nil {
		health["last_run_at"] = lastRun.StartedAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{}

	cursor, err := h.store.Load()
	if err != nil {
		slog.Error("Failed to load checkpoint for stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	stats["cursor"] = cursor

	lastRun, lastErr := h.status.Snapshot()
	if lastRun != nil {
		stats["last_run"] = gin.H{
			"run_id":      lastRun.RunID,
			"started_at":  lastRun.StartedAt.Format(time.RFC3339),
			"finished_at": lastRun.FinishedAt.Format(time.RFC3339),
			"fetched":     lastRun.Fetched,
			"eligible":    lastRun.Eligible,
			"succeeded":   lastRun.Succeeded,
			"failed":      lastRun.Failed,
		}
	}
	if lastErr != "" {
		stats["last_error"] = lastErr
	}

	if h.history != nil {
		runs, err := h.history.GetRecentRuns(10)
		if err != nil {
			slog.Error("Failed to load run history", "error", err)
		} else {
			recent := make([]gin.H, 0, len(runs))
			for _, run := range runs {
				recent = append(recent, gin.H{
					"run_id":     run.ID,
					"started_at": run.StartedAt.Format(time.RFC3339),
					"cursor":     run.Cursor,
					"fetched":    run.Fetched,
					"eligible":   run.Eligible,
					"succeeded":  run.Succeeded,
					"failed":     run.Failed,
				})
			}
			stats["recent_runs"] = recent
		}
	}

	c.JSON(http.StatusOK, stats)
}
