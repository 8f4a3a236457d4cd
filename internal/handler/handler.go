package handler

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"ecomdash/backend/helper"
	apperrors "ecomdash/backend/internal/errors"
	"ecomdash/backend/internal/metrics"
	"ecomdash/backend/internal/report"
	"ecomdash/backend/internal/service"
)

// Database is the part of the connection provider the HTTP layer uses.
type Database interface {
	Ping(ctx context.Context) error
	Stats() service.ProviderStats
	Client() service.DBClient
}

type Config struct {
	Schema      string
	SecretsFile string
	MetricsPath string
	Gatherer    prometheus.Gatherer
	Metrics     metrics.Collector
	Logger      zerolog.Logger
}

type Handler struct {
	dispatcher *report.Dispatcher
	db         Database
	cfg        Config
	tmpl       *template.Template
}

func New(d *report.Dispatcher, db Database, cfg Config) *Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoOpCollector()
	}
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	return &Handler{
		dispatcher: d,
		db:         db,
		cfg:        cfg,
		tmpl:       parseTemplates(),
	}
}

func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), h.logRequests())

	r.GET("/ping", Ping)
	r.GET("/healthz", h.Health)
	r.GET("/", h.Dashboard)

	api := r.Group("/api")
	api.GET("/reports", h.ListReports)
	api.GET("/reports/:report", h.RenderReport)
	api.GET("/schema", h.CheckSchema)
	api.GET("/status", h.Status)

	if h.cfg.MetricsPath != "" {
		r.GET(h.cfg.MetricsPath, gin.WrapH(metrics.Handler(h.cfg.Gatherer)))
	}
	return r
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": apperrors.GetMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type reportSummary struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Header string `json:"header"`
	Panels int    `json:"panels"`
}

func (h *Handler) ListReports(c *gin.Context) {
	reports := h.dispatcher.Catalog().Reports()
	out := make([]reportSummary, len(reports))
	for i, r := range reports {
		out[i] = reportSummary{Name: r.Name, Slug: r.Slug, Header: r.Header, Panels: len(r.Panels())}
	}
	c.JSON(http.StatusOK, gin.H{"reports": out})
}

func (h *Handler) RenderReport(c *gin.Context) {
	page, err := h.dispatcher.Dispatch(c.Request.Context(), c.Param("report"))
	if err != nil {
		h.abortJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) CheckSchema(c *gin.Context) {
	schema := c.DefaultQuery("schema", h.cfg.Schema)
	if !helper.IsValidIdentifier(schema) {
		h.abortJSON(c, apperrors.New(apperrors.CodeInvalidRequest, "invalid schema name"))
		return
	}

	result, err := service.CheckSchema(c.Request.Context(), h.db.Client(), schema, report.Requirements())
	if err != nil {
		h.abortJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": result.OK(), "schema": result})
}

func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"dispatcher": h.dispatcher.State(),
		"queries":    h.db.Stats(),
	})
}

// Dashboard serves the HTML page for ?report=, defaulting to the first report.
func (h *Handler) Dashboard(c *gin.Context) {
	catalog := h.dispatcher.Catalog()
	name := c.Query("report")
	if name == "" {
		name = catalog.First().Name
	}

	data := pageData{
		Reports:     catalog.Reports(),
		Selected:    name,
		SecretsFile: h.cfg.SecretsFile,
	}
	if rep, err := catalog.Lookup(name); err == nil {
		data.Selected = rep.Slug
	}

	status := http.StatusOK
	page, err := h.dispatcher.Dispatch(c.Request.Context(), name)
	if err != nil {
		status = statusFor(err)
		data.Error = &errorView{Code: apperrors.GetCode(err), Message: h.userMessage(err)}
		c.Error(err)
	} else {
		data.Page = page
		data.Connected = true
	}
	h.renderHTML(c, status, "dashboard.html", data)
}

func (h *Handler) userMessage(err error) string {
	if apperrors.IsConnection(err) {
		return "Unable to connect to database. Please check your connection settings in " + h.cfg.SecretsFile
	}
	return apperrors.GetMessage(err)
}

func (h *Handler) abortJSON(c *gin.Context, err error) {
	c.Error(err)
	body := gin.H{"error": h.userMessage(err), "code": apperrors.GetCode(err)}
	var de *apperrors.DashboardError
	if errors.As(err, &de) && len(de.Details) > 0 {
		body["details"] = de.Details
	}
	c.AbortWithStatusJSON(statusFor(err), body)
}

// statusClientClosedRequest is nginx's code for a client that hung up.
const statusClientClosedRequest = 499

func statusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidRequest:
		return http.StatusBadRequest
	case apperrors.CodeConnectionFailed:
		return http.StatusServiceUnavailable
	case apperrors.CodeCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}
