package handlers

import (
	"context"
	"net/http"
	"strconv"

	"wholesale/internal/logger"
	"wholesale/internal/models"
	"wholesale/internal/reconciler"
	"wholesale/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db         *gorm.DB
	store      *store.Store
	reconciler *reconciler.Reconciler
	logger     *logger.Logger
}

func NewAdminHandler(db *gorm.DB, store *store.Store, reconciler *reconciler.Reconciler, logger *logger.Logger) *AdminHandler {
	return &AdminHandler{db: db, store: store, reconciler: reconciler, logger: logger}
}

// Manual sync triggers run in the background; there is no cancellation, the
// run goes to completion or failure and lands in sync_runs either way.
func (h *AdminHandler) TriggerFullSync(c *gin.Context) {
	go func() {
		if _, err := h.reconciler.RunFull(context.Background(), "manual"); err != nil {
			h.logger.Error("manual full sync failed: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"started": true, "type": "full"}})
}

func (h *AdminHandler) TriggerIncrementalSync(c *gin.Context) {
	go func() {
		if _, err := h.reconciler.RunIncremental(context.Background(), "manual"); err != nil {
			h.logger.Error("manual incremental sync failed: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"started": true, "type": "incremental"}})
}

func (h *AdminHandler) ListSyncRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var runs []models.SyncRun
	if err := h.db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}

func (h *AdminHandler) ListJobs(c *gin.Context) {
	query := h.db.Order("created_at DESC").Limit(100)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var jobs []models.Job
	if err := query.Find(&jobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch jobs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": jobs})
}

// RetryJob is the manual intervention path for terminally failed jobs: the
// attempt counter is reset and the job re-enters the pending pool.
func (h *AdminHandler) RetryJob(c *gin.Context) {
	var job models.Job
	if err := h.db.First(&job, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if job.Status != models.JobFailed {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Only failed jobs can be retried"})
		return
	}

	err := h.db.Model(&job).Updates(map[string]interface{}{
		"status":   models.JobPending,
		"attempts": 0,
	}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry job"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"retried": true}})
}

func (h *AdminHandler) ApproveOrder(c *gin.Context) {
	order, err := h.store.ApproveOrder(c.Param("id"))
	if err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (h *AdminHandler) RejectOrder(c *gin.Context) {
	order, err := h.store.RejectOrder(c.Param("id"))
	if err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	switch models.UserStatus(req.Status) {
	case models.UserActive, models.UserSuspended, models.UserRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	user, err := h.store.SetUserStatus(c.Param("id"), models.UserStatus(req.Status))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (h *AdminHandler) ListAPILogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var logs []models.APICallLog
	if err := h.db.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch API logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}
