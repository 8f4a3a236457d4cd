package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ecomdash/backend/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		h.cfg.Metrics.IncrementCounter(metrics.HTTPRequests,
			"method", c.Request.Method,
			"route", route,
			"status", strconv.Itoa(status))
		h.cfg.Metrics.RecordHistogram(metrics.HTTPSeconds, duration.Seconds(), "route", route)

		event := h.cfg.Logger.Info()
		if err := c.Errors.Last(); err != nil && status >= 500 {
			event = h.cfg.Logger.Error().Err(err.Err)
		}
		event.
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("HTTP request")
	}
}
