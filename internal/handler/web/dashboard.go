package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FinRatio/internal/domain/models"
	xlogger "FinRatio/pkg/logger"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ReportSource returns the latest finished report.
type ReportSource interface {
	Latest() (*models.Report, bool)
	Running() bool
}

// DashboardHandler renders the ratio tables as an HTML page.
type DashboardHandler struct {
	logger *xlogger.Logger
	src    ReportSource
	hub    *Hub
	tmpl   *template.Template
}

func NewDashboardHandler(logger *xlogger.Logger, src ReportSource, hub *Hub) *DashboardHandler {
	funcs := template.FuncMap{
		"ts": func(t time.Time) string { return t.Format("2006-01-02 15:04:05 MST") },
	}
	tmpl := template.Must(template.New("dashboard").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))
	return &DashboardHandler{logger: logger, src: src, hub: hub, tmpl: tmpl}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	if h.hub != nil {
		e.GET("/ws", h.hub.Serve)
	}
}

type dashboardData struct {
	Report  *models.Report
	Tables  []models.Table
	Running bool
}

// Index renders the latest report, or a waiting page before the first run.
func (h *DashboardHandler) Index(c echo.Context) error {
	data := dashboardData{Running: h.src.Running()}
	if r, ok := h.src.Latest(); ok {
		data.Report = r
		data.Tables = r.Tables()
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		h.logger.Error("render dashboard", xlogger.Error(err))
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
