package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ViewResponse is the structured result of every session tool.
type ViewResponse struct {
	*runner.View
	Diff *domain.SessionDiff `json:"diff,omitempty" jsonschema_description:"Changes made by this call"`
}

// Server exposes a session.Manager as MCP tools so an assistant can walk a
// patient through a questionnaire.
type Server struct {
	manager   *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(manager *session.Manager, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		manager:   manager,
		logger:    logger,
		mcpServer: server.NewMCPServer("triage-mcp", strings.TrimSpace(version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_modules",
		mcp.WithDescription("List the triage questionnaires that can be started."),
	), s.handleListModules)

	s.mcpServer.AddTool(mcp.NewTool("start_triage",
		mcp.WithDescription("Start a questionnaire and return its first question. Some modules need patient data up front (e.g. ageMonths for pediatrics)."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module to start, see list_modules")),
		mcp.WithString("entry", mcp.Description("Named entry or node id (optional)")),
		mcp.WithString("patient_data", mcp.Description(`JSON object of known patient data, e.g. {"ageMonths": 14}`)),
		mcp.WithString("session_id", mcp.Description("Session id to use (optional, generated when omitted)")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("answer_question",
		mcp.WithDescription("Answer the current question of a session and return the next one or the outcome."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("input", mcp.Description("Answer as the patient typed it: yes/no, a number, option numbers or labels separated by commas")),
		mcp.WithString("answer", mcp.Description(`Typed JSON answer instead of input, e.g. true, 38.5, "OPTION" or ["A","B"]`)),
		mcp.WithString("risk", mcp.Description("Extra severity to apply (A-D, optional)")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the current question, progress and outcome of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Discard the answers of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))
}

func (s *Server) handleListModules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.manager.Loader().ListModules(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list modules failed: %v", err)), nil
	}
	raw, err := json.Marshal(infos)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ViewResponse, error) {
	moduleID := stringArg(args, "module_id")
	if moduleID == "" {
		return ViewResponse{}, errors.New("module_id is required")
	}
	var seed domain.PatientData
	if raw := stringArg(args, "patient_data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &seed); err != nil {
			return ViewResponse{}, fmt.Errorf("patient_data must be a JSON object: %w", err)
		}
	}

	entry := stringArg(args, "entry")
	var (
		sess *domain.Session
		err  error
	)
	if id := stringArg(args, "session_id"); id != "" {
		sess, err = s.manager.StartWithID(ctx, id, moduleID, entry, seed)
	} else {
		sess, err = s.manager.Start(ctx, moduleID, entry, seed)
	}
	if err != nil {
		return ViewResponse{}, err
	}
	return s.respond(ctx, nil, sess)
}

func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ViewResponse, error) {
	id := stringArg(args, "session_id")
	input, hasInput := args["input"].(string)
	rawAnswer, hasAnswer := args["answer"].(string)
	if hasInput == hasAnswer {
		return ViewResponse{}, errors.New("exactly one of input or answer is required")
	}

	var typed domain.Value
	if hasInput {
		clean, err := runner.SanitizeInput(input)
		if err != nil {
			s.logger.Warn("MCP answer: input rejected", "error", err, "size", len(input))
			return ViewResponse{}, fmt.Errorf("input rejected: %w", err)
		}
		input = clean
	} else if err := json.Unmarshal([]byte(rawAnswer), &typed); err != nil {
		return ViewResponse{}, fmt.Errorf("answer must be JSON: %w", err)
	}
	prepare := func(q *domain.Node) (domain.Value, error) {
		if hasInput {
			return runner.ParseAnswer(q, input)
		}
		return typed, q.CheckAnswer(typed)
	}

	var risk domain.Severity
	if raw := stringArg(args, "risk"); raw != "" {
		var err error
		if risk, err = domain.ParseSeverity(raw); err != nil {
			return ViewResponse{}, err
		}
	}

	before, after, err := s.manager.SubmitChecked(ctx, id, prepare, risk)
	if err != nil {
		return ViewResponse{}, err
	}
	return s.respond(ctx, before, after)
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ViewResponse, error) {
	sess, err := s.manager.Get(ctx, stringArg(args, "session_id"))
	if err != nil {
		return ViewResponse{}, err
	}
	view, err := runner.Describe(ctx, s.manager.Loader(), sess)
	if err != nil {
		return ViewResponse{}, err
	}
	return ViewResponse{View: view}, nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ViewResponse, error) {
	before, after, err := s.manager.Reset(ctx, stringArg(args, "session_id"))
	if err != nil {
		return ViewResponse{}, err
	}
	return s.respond(ctx, before, after)
}

func (s *Server) respond(ctx context.Context, before, after *domain.Session) (ViewResponse, error) {
	view, err := runner.Describe(ctx, s.manager.Loader(), after)
	if err != nil {
		return ViewResponse{}, err
	}
	return ViewResponse{View: view, Diff: domain.Diff(before, after)}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("triage://modules", "Available questionnaires",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		infos, err := s.manager.Loader().ListModules(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list modules: %w", err)
		}
		raw, _ := json.Marshal(infos)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "triage://modules",
				MIMEType: "application/json",
				Text:     string(raw),
			},
		}, nil
	})
}
