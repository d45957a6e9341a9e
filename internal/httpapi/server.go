package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/domain"
	apimw "github.com/hamed0406/pagecheck/internal/httpapi/middleware"
	"github.com/hamed0406/pagecheck/internal/probe"
	"github.com/hamed0406/pagecheck/internal/repo"
)

type Server struct {
	Logger  *zap.Logger
	Targets repo.TargetStore
	Results repo.ResultStore
	Checker probe.Checker
}

func NewServer(l *zap.Logger, ts repo.TargetStore, rs repo.ResultStore, c probe.Checker) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Targets: ts, Results: rs, Checker: c}
}

// Router wires routes. Reads need any key; writes and on-demand checks need an
// admin key. A zero rpm disables that limiter.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, apimw.Logger(s.Logger), chimw.Recoverer)
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(pubRPM, pubBurst))
		r.Use(apimw.RequireAny(keys))
		r.Get("/api/targets", s.handleListTargets)
		r.Get("/api/results/latest", s.handleLatest)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(admRPM, admBurst))
		r.Use(apimw.RequireAdmin(keys))
		r.Post("/api/targets", s.handleAddTarget)
		r.Post("/api/targets/{id}/check", s.handleCheckTarget)
	})

	return r
}

type addPayload struct {
	URL         string `json:"url"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	var p addPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || !isValidHTTPURL(p.URL) {
		writeError(w, http.StatusBadRequest, "bad payload: url must be http(s)")
		return
	}
	norm := normalizeHTTPURL(p.URL)

	if existing, _ := s.Targets.GetByURL(r.Context(), norm); existing != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "duplicate", "target": existing})
		return
	}

	t := &domain.Target{
		URL:         norm,
		Label:       strings.TrimSpace(p.Label),
		Placeholder: strings.TrimSpace(p.Placeholder),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Targets.Add(r.Context(), t); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			writeError(w, http.StatusConflict, "duplicate")
			return
		}
		s.Logger.Warn("add_target_error", zap.String("url", norm), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not add")
		return
	}

	// Run a single check synchronously for immediate feedback
	cr := s.runCheck(r, *t)

	s.Logger.Info("added_target",
		zap.String("target_id", string(t.ID)),
		zap.String("url", t.URL),
		zap.String("outcome", string(cr.Outcome)),
		zap.Float64("latency_ms", cr.LatencyMS),
	)
	writeJSON(w, http.StatusOK, map[string]any{"target": t, "summary": cr})
}

func (s *Server) handleCheckTarget(w http.ResponseWriter, r *http.Request) {
	id := domain.TargetID(chi.URLParam(r, "id"))
	t, err := s.Targets.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup error")
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	cr := s.runCheck(r, *t)
	writeJSON(w, http.StatusOK, cr)
}

func (s *Server) runCheck(r *http.Request, t domain.Target) *domain.CheckResult {
	out := s.Checker.Check(r.Context(), t)
	cr := &domain.CheckResult{
		TargetID:   t.ID,
		Outcome:    out.Outcome,
		Message:    out.Message,
		Screenshot: out.Screenshot,
		LatencyMS:  out.LatencyMS,
		CheckedAt:  time.Now().UTC(),
	}
	if err := s.Results.Append(r.Context(), cr); err != nil {
		s.Logger.Warn("append_result_error", zap.String("target_id", string(t.ID)), zap.Error(err))
	}
	return cr
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Targets.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	if ts == nil {
		ts = []*domain.Target{}
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Results.Latest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "latest error")
		return
	}
	if rows == nil {
		rows = []repo.LatestRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func isValidHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Hostname() != ""
}

// normalizeHTTPURL lowercases scheme and host and drops default ports and a
// bare trailing slash, so the same page is not stored twice.
func normalizeHTTPURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}
	u.Host = host
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String()
}
