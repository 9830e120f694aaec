// Package chi implements the HTTP API over the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
	"github.com/kailas-cloud/knosis/internal/metrics"
	healthuc "github.com/kailas-cloud/knosis/internal/usecase/health"
	indexuc "github.com/kailas-cloud/knosis/internal/usecase/index"
	orchestratoruc "github.com/kailas-cloud/knosis/internal/usecase/orchestrator"
)

// Error response codes.
const (
	codeBadRequest           = "bad_request"
	codeValidationFailed     = "validation_failed"
	codeConversationNotFound = "conversation_not_found"
	codeAgentNotRegistered   = "agent_not_registered"
	codeIndexNotInitialized  = "index_not_initialized"
	codeIndexUnavailable     = "index_unavailable"
	codeProviderError        = "provider_error"
	codeInternalError        = "internal_error"
)

const defaultTopK = 5

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the orchestrator and knowledge index over HTTP.
type Server struct {
	orchestrator  *orchestratoruc.Service
	index         *indexuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	orchestrator *orchestratoruc.Service,
	index *indexuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		orchestrator: orchestrator,
		index:        index,
		health:       health,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrConversationNotFound, http.StatusNotFound, codeConversationNotFound),
		sentinelHandler(domain.ErrAgentNotRegistered, http.StatusBadRequest, codeAgentNotRegistered),
		sentinelHandler(domain.ErrIndexNotInitialized, http.StatusConflict, codeIndexNotInitialized),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrContentStoreError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Router builds the chi router. Extra middlewares (recovery, request logging,
// auth) run after request id assignment and before metrics.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	for _, m := range middlewares {
		r.Use(m)
	}
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/context", s.CreateContext)
		r.Post("/context/preview", s.PreviewContext)
		r.Delete("/context/{id}", s.DeleteContext)
		r.Post("/chat", s.Chat)
		r.Post("/search", s.Search)
		r.Post("/documents", s.AddDocument)
		r.Delete("/documents/{id}", s.RemoveDocument)
		r.Post("/index/rebuild", s.RebuildIndex)
		r.Delete("/index", s.ClearIndex)
	})

	return r
}

// CreateContext handles POST /v1/context.
func (s *Server) CreateContext(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string         `json:"user_id"`
		SessionData map[string]any `json:"session_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id := s.orchestrator.CreateContext(req.UserID, req.SessionData)
	writeJSON(w, http.StatusCreated, map[string]string{"conversation_id": id})
}

// PreviewContext handles POST /v1/context/preview. It exposes the context
// block agents would receive for a query, without running any agent.
func (s *Server) PreviewContext(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query      string `json:"query"`
		IncludeWeb bool   `json:"include_web"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	bundle, err := s.index.GetContext(r.Context(), req.Query, req.IncludeWeb)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":    bundle.Text,
		"indexed": searchResultItems(bundle.Indexed),
		"web":     searchResultItems(bundle.Web),
	})
}

// DeleteContext handles DELETE /v1/context/{id}.
func (s *Server) DeleteContext(w http.ResponseWriter, r *http.Request) {
	s.orchestrator.ClearContext(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// Chat handles POST /v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
		Agent          string `json:"agent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "message is required")
		return
	}

	// An omitted conversation_id starts a fresh conversation; the client
	// picks its id up from the response.
	resp, err := s.orchestrator.Chat(r.Context(), req.ConversationID, req.Message, domain.AgentType(req.Agent))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": resp.ConversationID,
		"response":        resp.Response,
		"agent":           resp.Agent,
		"task_id":         resp.TaskID,
		"suggestions":     resp.Suggestions,
	})
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}

	results, err := s.index.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := searchResultItems(results)
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func searchResultItems(results []domain.SearchResult) []map[string]any {
	items := make([]map[string]any, len(results))
	for i, res := range results {
		items[i] = map[string]any{
			"id":     res.ID,
			"text":   res.Text,
			"score":  res.Score,
			"title":  res.Metadata.Title,
			"source": res.Metadata.Source,
			"url":    res.Metadata.URL,
		}
	}
	return items
}

// AddDocument handles POST /v1/documents.
func (s *Server) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "text is required")
		return
	}

	id, err := s.index.AddDocument(r.Context(), req.Title, req.Text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// RemoveDocument handles DELETE /v1/documents/{id}.
func (s *Server) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.index.RemoveDocument(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RebuildIndex handles POST /v1/index/rebuild.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	indexed, err := s.index.IndexAll(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"indexed": indexed})
}

// ClearIndex handles DELETE /v1/index.
func (s *Server) ClearIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Clear(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrConversationNotFound,
		domain.ErrAgentNotRegistered,
		domain.ErrIndexNotInitialized,
		domain.ErrIndexUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationFailed,
		domain.ErrContentStoreError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
