package handler

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"

	"ecomdash/backend/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

const dashboardTitle = "E-Commerce Data Analysis Dashboard"

type errorView struct {
	Code    string
	Message string
}

type pageData struct {
	Reports     []model.Report
	Selected    string
	SecretsFile string
	Connected   bool
	Page        *model.Page
	Error       *errorView
}

func parseTemplates() *template.Template {
	funcMap := template.FuncMap{
		"title": func() string { return dashboardTitle },
		"chartJSON": func(c *model.ChartView) (string, error) {
			b, err := json.Marshal(c)
			return string(b), err
		},
		"cols": func(n int) string {
			if n <= 0 {
				return "cols-1"
			}
			return fmt.Sprintf("cols-%d", n)
		},
	}
	return template.Must(template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html"))
}

func (h *Handler) renderHTML(c *gin.Context, status int, name string, data any) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(c.Writer, name, data); err != nil {
		h.cfg.Logger.Error().Err(err).Str("template", name).Msg("Failed to render template")
	}
}
