// Package api serves the run log and generated reports over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/giving-cli/internal/layout"
	"github.com/sells-group/giving-cli/internal/model"
	"github.com/sells-group/giving-cli/internal/report"
	"github.com/sells-group/giving-cli/internal/store"
)

// Server exposes read-only endpoints over the run log and output tree.
type Server struct {
	store  store.Store
	layout layout.Layout
}

// New creates a Server.
func New(st store.Store, l layout.Layout) *Server {
	return &Server{store: st, layout: l}
}

// Router builds the HTTP handler. allowedOrigins configures CORS; empty
// allows any origin.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(requestLogger)

	r.Get("/health", s.health)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.listRuns)
		r.Get("/{id}", s.getRun)
	})
	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.listYears)
		r.Get("/{year}", s.listReports)
		r.Get("/{year}/{name}", s.getReport)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{Status: model.RunStatus(q.Get("status"))}
	for key, dst := range map[string]*int{"year": &filter.Year, "limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid "+key)
			return
		}
		*dst = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

type runDetail struct {
	model.Run
	Steps []model.RunStep `json:"steps"`
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	steps, err := s.store.ListSteps(r.Context(), id)
	if err != nil {
		zap.L().Error("api: list steps", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list steps")
		return
	}
	if steps == nil {
		steps = []model.RunStep{}
	}
	writeJSON(w, http.StatusOK, runDetail{Run: *run, Steps: steps})
}

func (s *Server) listYears(w http.ResponseWriter, _ *http.Request) {
	years, err := report.YearsWithOutputs(s.layout)
	if err != nil {
		zap.L().Error("api: list years", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list years")
		return
	}
	slices.Sort(years)
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, map[string][]int{"years": years})
}

type yearReports struct {
	Year     int              `json:"year"`
	Files    []string         `json:"files"`
	Manifest *report.Manifest `json:"manifest,omitempty"`
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	files := report.Outputs(s.layout, year)
	if len(files) == 0 {
		writeError(w, http.StatusNotFound, "no reports for year")
		return
	}
	out := yearReports{Year: year, Files: files}
	if m, err := report.ReadManifest(s.layout.Summary(year)); err == nil {
		out.Manifest = m
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if !slices.Contains(layout.ReportNames(year), name) {
		writeError(w, http.StatusNotFound, "unknown report")
		return
	}
	p := filepath.Join(s.layout.YearOutputDir(year), name)
	if !slices.Contains(report.Outputs(s.layout, year), name) {
		writeError(w, http.StatusNotFound, "report not generated")
		return
	}
	if filepath.Ext(name) == ".csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/yaml")
	}
	http.ServeFile(w, r, p)
}

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year <= 0 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return 0, false
	}
	return year, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
