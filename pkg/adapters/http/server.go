// Package http exposes a read-only inspection surface over a workflow tree:
// node projections, rendered trees, stats and prometheus metrics. It never
// mutates the tree.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/groundswell-ai/groundswell/pkg/domain"
	"github.com/groundswell-ai/groundswell/pkg/tree"
)

// Engine is the orchestrator surface the server reads from.
type Engine interface {
	Lookup(id string) (*domain.NodeRecord, bool)
	Stats() tree.Stats
	Render() string
}

// NodeView is the JSON projection of one node record. Snapshots are
// sanitized; raw snapshots never leave the process.
type NodeView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Status    domain.Status     `json:"status"`
	ParentID  string            `json:"parent_id,omitempty"`
	Children  []string          `json:"children"`
	Logs      []domain.LogEntry `json:"logs"`
	Snapshot  map[string]any    `json:"snapshot,omitempty"`
	EventsLen int               `json:"events"`
}

// Server serves the inspection routes.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler builds the HTTP handler. If gatherer is non-nil a /metrics
// route is mounted for it.
func NewHandler(engine Engine, logger *slog.Logger, gatherer prometheus.Gatherer) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.getHealth)
	r.Get("/tree", s.getTree)
	r.Get("/stats", s.getStats)
	r.Get("/workflows/{id}", s.getWorkflow)
	r.Get("/workflows/{id}/tree", s.getWorkflowTree)
	r.Get("/workflows/{id}/stats", s.getWorkflowStats)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(s.engine.Render())); err != nil {
		s.logger.Error("tree response write failed", "err", err)
	}
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.engine.Stats())
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, projectNode(rec))
}

func (s *Server) getWorkflowTree(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(tree.Render(rec))); err != nil {
		s.logger.Error("subtree response write failed", "err", err)
	}
}

func (s *Server) getWorkflowStats(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, tree.CollectStats(rec))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*domain.NodeRecord, bool) {
	id := chi.URLParam(r, "id")
	rec, ok := s.engine.Lookup(id)
	if !ok {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return nil, false
	}
	return rec, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func projectNode(rec *domain.NodeRecord) NodeView {
	view := NodeView{
		ID:        rec.ID,
		Name:      rec.Name,
		Status:    rec.Status(),
		Children:  []string{},
		Logs:      rec.Logs(),
		Snapshot:  domain.SanitizeSnapshot(rec.Snapshot()),
		EventsLen: len(rec.Events()),
	}
	if p := rec.Parent(); p != nil {
		view.ParentID = p.ID
	}
	for _, child := range rec.Children() {
		view.Children = append(view.Children, child.ID)
	}
	return view
}
