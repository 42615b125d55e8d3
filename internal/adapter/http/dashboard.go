package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/couchcryptid/coldstorage-report/internal/domain"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"date":     func(t time.Time) string { return t.Format("2006-01-02") },
	"selected": func(a, b string) bool { return a == b },
}).ParseFS(templateFS, "templates/dashboard.html"))

type dashboardView struct {
	Report      domain.Report
	Utilization bool

	// Raw form values, echoed back into the filter form.
	State     string
	City      string
	StartDate string
	EndDate   string

	Error string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := dashboardView{
		State:     q.Get("state"),
		City:      q.Get("city"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}

	criteria, err := parseCriteria(q)
	if err != nil {
		view.Error = err.Error()
		s.renderDashboard(w, http.StatusBadRequest, view)
		return
	}

	rep, err := s.reports.Generate(r.Context(), criteria)
	if err != nil {
		s.logger.Error("dashboard report failed", "error", err)
		view.Error = "The report could not be generated. Please try again later."
		s.renderDashboard(w, http.StatusInternalServerError, view)
		return
	}

	view.Report = rep
	view.Utilization = rep.Variant == domain.VariantUtilization
	s.renderDashboard(w, http.StatusOK, view)
}

func (s *Server) renderDashboard(w http.ResponseWriter, status int, view dashboardView) {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, view); err != nil {
		s.logger.Error("render dashboard failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w) //nolint:errcheck // client went away
}
