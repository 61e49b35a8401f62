package handlers

import (
	"net/http"
	"strconv"

	"inference-gateway/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// ListRuns returns recent runs, newest first.
func (h *Handlers) ListRuns(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	task := models.TaskKind(c.Query("task"))
	if task != "" && !knownKind(task) {
		badRequest(c, "unknown task "+string(task))
		return
	}

	runs, err := h.history.ListRuns(c.Request.Context(), task, limit)
	if err != nil {
		log.Errorf("Failed to list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// Stats returns run counts and mean durations per task and outcome.
func (h *Handlers) Stats(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
		return
	}

	stats, err := h.history.Stats(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to get run stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get run stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func knownKind(kind models.TaskKind) bool {
	for _, k := range models.AllKinds {
		if k == kind {
			return true
		}
	}
	return false
}
