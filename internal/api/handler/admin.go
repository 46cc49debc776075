package handler

import (
	"net/http"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lifetrack/internal/api/models"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/engine"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type AdminHandler struct {
	engine *engine.Engine
}

func NewAdmin(eng *engine.Engine) *AdminHandler {
	return &AdminHandler{
		engine: eng,
	}
}

// Dashboard returns everything awaiting moderation and all users.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := h.engine.PendingItems(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"dashboard": models.ToDashboard(d, h.engine.Now()),
	})
}

// ApproveItem returns a handler approving a food or workout.
func (h *AdminHandler) ApproveItem(kind database.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.engine.ApproveItem(c.Request.Context(), actor(c), kind, c.Param("name")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Approved"})
	}
}

// RejectItem returns a handler rejecting a food or workout.
func (h *AdminHandler) RejectItem(kind database.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.engine.RejectItem(c.Request.Context(), actor(c), kind, c.Param("name")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rejected"})
	}
}

func (h *AdminHandler) ApproveEntry(c *gin.Context) {
	if err := h.engine.ApproveEntry(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Entry approved"})
}

func (h *AdminHandler) RejectEntry(c *gin.Context) {
	if err := h.engine.RejectEntry(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Entry rejected"})
}

func (h *AdminHandler) BanUser(c *gin.Context) {
	if err := h.engine.BanUser(c.Request.Context(), actor(c), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User banned"})
}

func (h *AdminHandler) TimeoutUser(c *gin.Context) {
	if err := h.engine.TimeoutUser(c.Request.Context(), actor(c), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User timed out for 7 days"})
}

func (h *AdminHandler) UnbanUser(c *gin.Context) {
	if err := h.engine.UnbanUser(c.Request.Context(), actor(c), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User unbanned"})
}

// GetHistory returns the most recent audit events.
func (h *AdminHandler) GetHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.ParseUint(limitStr, 10, 0)
		if err != nil || l == 0 || l > maxHistoryLimit {
			badRequest(c, "Invalid limit parameter")
			return
		}
		if limit, err = safecast.ToInt(l); err != nil {
			badRequest(c, "Invalid limit parameter")
			return
		}
	}

	events, err := h.engine.ListHistory(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": models.ToHistoryItems(events),
	})
}

// GetSchedulerJobs returns all scheduler jobs as JSON.
func (h *AdminHandler) GetSchedulerJobs(c *gin.Context) {
	jobs := h.engine.GetScheduler().GetJobs()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"jobs":    jobs,
	})
}

// RunSchedulerJob manually triggers a scheduler job.
func (h *AdminHandler) RunSchedulerJob(c *gin.Context) {
	if err := h.engine.GetScheduler().RunJobNow(c.Param("id")); err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job triggered successfully",
	})
}

// SetSchedulerJobEnabled returns a handler enabling or disabling a scheduler job.
func (h *AdminHandler) SetSchedulerJobEnabled(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.engine.GetScheduler().SetEnabled(c.Param("id"), enabled); err != nil {
			badRequest(c, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// GetCacheStats returns cache statistics.
func (h *AdminHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.engine.GetEngineCache().GetStats(),
	})
}

// ClearCache drops every cached listing and statistic.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	h.engine.GetEngineCache().ClearAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cache cleared successfully",
	})
}
