package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/triage/api"
	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/internal/presentation/graph"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes a session.Manager over JSON HTTP.
type Server struct {
	Manager *session.Manager
	Ledger  ports.OutcomeLedger
	Streams *StreamManager
	Logger  *slog.Logger
	Version string

	metrics http.Handler
	watch   WatchFunc
}

// Option configures the Server.
type Option func(*Server)

// WithLedger enables GET /outcomes.
func WithLedger(ledger ports.OutcomeLedger) Option {
	return func(s *Server) { s.Ledger = ledger }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithWatch streams module reload events on GET /events.
func WithWatch(watch WatchFunc) Option {
	return func(s *Server) { s.watch = watch }
}

// WithVersion is reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// NewHandler creates the HTTP handler for the manager.
func NewHandler(manager *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Manager: manager,
		Streams: NewStreamManager(),
		Logger:  logging.NewNop(),
		Version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)
	if doc, err := api.GetSwagger(); err != nil {
		s.Logger.Error("Failed to load OpenAPI spec, requests are not validated", "error", err)
	} else if validate, err := s.validateRequests(doc); err != nil {
		s.Logger.Error("Failed to build OpenAPI router, requests are not validated", "error", err)
	} else {
		r.Use(validate)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.json", s.GetOpenAPI)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	if s.watch != nil {
		r.Get("/events", s.SubscribeReloads)
	}

	r.Route("/modules", func(r chi.Router) {
		r.Get("/", s.ListModules)
		r.Get("/{moduleID}", s.GetModule)
		r.Get("/{moduleID}/graph", s.GetGraph)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.StartSession)
		r.Get("/", s.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/answers", s.Answer)
			r.Patch("/patient-data", s.PatchPatientData)
			r.Post("/reset", s.ResetSession)
			r.Get("/events", s.SubscribeSession)
		})
	})

	r.Get("/outcomes", s.ListOutcomes)
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// -- Modules --

func (s *Server) ListModules(w http.ResponseWriter, r *http.Request) {
	infos, err := s.Manager.Loader().ListModules(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, infos)
}

type moduleResponse struct {
	domain.ModuleInfo
	Nodes []*domain.Node `json:"nodes"`
}

func (s *Server) GetModule(w http.ResponseWriter, r *http.Request) {
	m, err := s.Manager.Loader().GetModule(r.Context(), chi.URLParam(r, "moduleID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := moduleResponse{ModuleInfo: m.Info()}
	for _, id := range m.NodeIDs() {
		resp.Nodes = append(resp.Nodes, m.Nodes[id])
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetGraph returns the module as a Mermaid flowchart. With ?session=<id> the
// session's path is highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	m, err := s.Manager.Loader().GetModule(r.Context(), chi.URLParam(r, "moduleID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var overlay *graph.Overlay
	if id := r.URL.Query().Get("session"); id != "" {
		sess, err := s.Manager.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		overlay = graph.OverlayOf(sess)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(m, overlay))
}

// -- Sessions --

type startRequest struct {
	SessionID   string             `json:"sessionId,omitempty"`
	ModuleID    string             `json:"moduleId"`
	Entry       string             `json:"entry,omitempty"`
	PatientData domain.PatientData `json:"patientData,omitempty"`
}

func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.ModuleID == "" {
		s.writeProblem(w, http.StatusBadRequest, "moduleId is required")
		return
	}

	var (
		sess *domain.Session
		err  error
	)
	if body.SessionID != "" {
		sess, err = s.Manager.StartWithID(r.Context(), body.SessionID, body.ModuleID, body.Entry, body.PatientData)
	} else {
		sess, err = s.Manager.Start(r.Context(), body.ModuleID, body.Entry, body.PatientData)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeView(w, r, http.StatusCreated, sess)
}

func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Manager.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeView(w, r, http.StatusOK, sess)
}

func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// answerRequest carries either a typed answer or the raw text a user typed,
// which is parsed against the current question.
type answerRequest struct {
	Answer *domain.Value   `json:"answer,omitempty"`
	Input  *string         `json:"input,omitempty"`
	Risk   domain.Severity `json:"risk,omitempty"`
}

type transitionResponse struct {
	*runner.View
	Diff *domain.SessionDiff `json:"diff,omitempty"`
}

func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	var body answerRequest
	if !s.decode(w, r, &body) {
		return
	}
	if (body.Answer == nil) == (body.Input == nil) {
		s.writeProblem(w, http.StatusBadRequest, "exactly one of answer or input is required")
		return
	}

	var input string
	if body.Input != nil {
		clean, err := runner.SanitizeInput(*body.Input)
		if err != nil {
			s.writeProblem(w, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
			return
		}
		input = clean
	}
	prepare := func(q *domain.Node) (domain.Value, error) {
		if body.Input != nil {
			return runner.ParseAnswer(q, input)
		}
		return *body.Answer, q.CheckAnswer(*body.Answer)
	}

	before, after, err := s.Manager.SubmitChecked(r.Context(), id, prepare, body.Risk)
	s.respondTransition(w, r, before, after, err)
}

func (s *Server) PatchPatientData(w http.ResponseWriter, r *http.Request) {
	var data domain.PatientData
	if !s.decode(w, r, &data) {
		return
	}
	before, after, err := s.Manager.SetPatientData(r.Context(), chi.URLParam(r, "sessionID"), data)
	s.respondTransition(w, r, before, after, err)
}

func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	before, after, err := s.Manager.Reset(r.Context(), chi.URLParam(r, "sessionID"))
	s.respondTransition(w, r, before, after, err)
}

// respondTransition writes the new view with its diff and pushes the diff to
// subscribers of the session.
func (s *Server) respondTransition(w http.ResponseWriter, r *http.Request, before, after *domain.Session, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	view, err := runner.Describe(r.Context(), s.Manager.Loader(), after)
	if err != nil {
		s.writeError(w, err)
		return
	}
	diff := domain.Diff(before, after)
	if diff != nil {
		if raw, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(after.ID, string(raw))
		}
	}
	s.writeJSON(w, http.StatusOK, transitionResponse{View: view, Diff: diff})
}

// -- Outcomes --

func (s *Server) ListOutcomes(w http.ResponseWriter, r *http.Request) {
	if s.Ledger == nil {
		s.writeProblem(w, http.StatusNotFound, "outcome ledger is not configured")
		return
	}
	q := r.URL.Query()
	filter := ports.OutcomeFilter{
		ModuleID:  q.Get("module"),
		SessionID: q.Get("session"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeProblem(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	records, err := s.Ledger.ListOutcomes(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.OutcomeRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// -- Meta --

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := api.GetSwagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "triage-http",
		"version":     strings.TrimSpace(s.Version),
		"api_version": apiVersion,
	})
}

// GetOpenAPI serves the API description as JSON.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := api.GetSwagger()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeProblem(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, status int, sess *domain.Session) {
	view, err := runner.Describe(r.Context(), s.Manager.Loader(), sess)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, status, view)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeProblem(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrModuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAnswer), errors.Is(err, domain.ErrMissingPatientData):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionTerminal), errors.Is(err, domain.ErrSessionNotStarted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	}
	s.writeProblem(w, status, err.Error())
}
