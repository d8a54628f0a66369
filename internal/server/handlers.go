package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quote_spider/internal/app"
	"quote_spider/internal/db"
	"quote_spider/internal/logger"
	"quote_spider/internal/models"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

func (s *Server) handleIndex(c *gin.Context) {
	c.String(http.StatusOK, "Good morning! POST a JSON {\"tag\": \"...\"} to /search.")
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.history != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := s.history.Ping(ctx); err != nil {
			resp["status"] = "degraded"
			resp["history"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp["history"] = "ok"
	}
	c.JSON(http.StatusOK, resp)
}

// handleSearch runs one crawl for the requested tag and replies with every
// quote found, in page order.
func (s *Server) handleSearch(c *gin.Context) {
	var req models.CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON like {\"tag\": \"life\"}"})
		return
	}

	// The request context cancels the run if the client goes away.
	ctx := c.Request.Context()
	future, err := s.runner.Start(ctx, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("X-Run-ID", future.ID())

	records, err := future.Wait(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is disabled"})
		return
	}

	run, err := s.history.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is disabled"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	runs, err := s.history.ListRuns(c.Request.Context(), strings.TrimSpace(c.Query("tag")), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrEmptyTag):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrTransport), errors.Is(err, app.ErrParse):
		return http.StatusBadGateway
	case errors.Is(err, app.ErrRunCanceled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// LoggerMiddleware logs one line per request.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		if id := c.Writer.Header().Get("X-Run-ID"); id != "" {
			fields = append(fields, logger.String("run_id", id))
		}

		if len(c.Errors) > 0 {
			log.Error("HTTP request with errors", append(fields, logger.Strings("errors", c.Errors.Errors()))...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}
