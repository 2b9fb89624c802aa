package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/cache"
	"github.com/GmS-001/Law-Verdict/internal/config"
	"github.com/GmS-001/Law-Verdict/internal/database"
	"github.com/GmS-001/Law-Verdict/internal/scraper"
	"github.com/GmS-001/Law-Verdict/internal/service"
	"github.com/GmS-001/Law-Verdict/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Runner is the staged scrape flow behind the API
type Runner interface {
	Start(ctx context.Context, to time.Time, option scraper.Option) (*service.Started, error)
	CaptchaPath(id string) (string, error)
	RefreshCaptcha(ctx context.Context, id string) error
	Submit(ctx context.Context, id, captcha string) (*service.RunReport, error)
	Close(id string) error
	Records(ctx context.Context, page, limit int) ([]database.CaseRecord, int64, error)
	Stats() cache.CacheStats
}

// Pinger checks the store
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers
type Handlers struct {
	runner Runner
	db     Pinger
	logger *logger.Logger
	cfg    *config.Config
	now    func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(runner Runner, db Pinger, logger *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		runner: runner,
		db:     db,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// StartScrape opens a session and returns where to fetch its CAPTCHA
func (h *Handlers) StartScrape(c *gin.Context) {
	var req struct {
		ToDate string `json:"to_date"`
		Option string `json:"option"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	to := h.now()
	if req.ToDate != "" {
		parsed, err := scraper.ParseDate(req.ToDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		to = parsed
	}

	option, err := scraper.ParseOption(req.Option)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.ScraperTimeout*2)
	defer cancel()

	started, err := h.runner.Start(ctx, to, option)
	if err != nil {
		h.respondError(c, "Failed to start scrape", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":          started.ID,
			"from_date":   started.FromDate,
			"to_date":     started.ToDate,
			"option":      started.Option,
			"captcha_url": captchaURL(started.ID),
		},
	})
}

// GetCaptcha serves the CAPTCHA image of a session
func (h *Handlers) GetCaptcha(c *gin.Context) {
	path, err := h.runner.CaptchaPath(c.Param("id"))
	if err != nil {
		h.respondError(c, "CAPTCHA not available", err)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "CAPTCHA not found",
		})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// RefreshCaptcha replaces the session's CAPTCHA image
func (h *Handlers) RefreshCaptcha(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.ScraperTimeout)
	defer cancel()

	if err := h.runner.RefreshCaptcha(ctx, id); err != nil {
		h.respondError(c, "Failed to refresh CAPTCHA", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"captcha_url": captchaURL(id),
	})
}

// SubmitCaptcha runs the scrape with the operator's answer
func (h *Handlers) SubmitCaptcha(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Captcha string `json:"captcha" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request",
		})
		return
	}

	// The pass outlives a dropped client connection
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.RunTimeout)
	defer cancel()

	report, err := h.runner.Submit(ctx, id, req.Captcha)
	if report == nil {
		if errors.Is(err, scraper.ErrCaptchaRejected) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success":     false,
				"error":       err.Error(),
				"captcha_url": captchaURL(id),
			})
			return
		}
		h.respondError(c, "Scrape failed", err)
		return
	}

	resp := gin.H{
		"success": err == nil,
		"data":    report,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// CloseScrape abandons a session
func (h *Handlers) CloseScrape(c *gin.Context) {
	if err := h.runner.Close(c.Param("id")); err != nil {
		h.respondError(c, "Failed to close session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListRecords returns stored judgments, newest first
func (h *Handlers) ListRecords(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	records, total, err := h.runner.Records(c.Request.Context(), page, limit)
	if err != nil {
		h.respondError(c, "Failed to list records", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	dbHealthy := h.db.Ping(c.Request.Context()) == nil

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbHealthy,
		"sessions": h.runner.Stats(),
		"time":     time.Now().Unix(),
	})
}

// SessionStats returns live session statistics
func (h *Handlers) SessionStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.runner.Stats(),
	})
}

func (h *Handlers) respondError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cache.ErrFull):
		status = http.StatusTooManyRequests
	case errors.Is(err, database.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   msg + ": " + err.Error(),
	})
}

func captchaURL(id string) string {
	return "/api/scrapes/" + id + "/captcha"
}
