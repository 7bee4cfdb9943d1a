package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/metrics"
	healthuc "github.com/utahisnotastate/utahai-chatbot-api/internal/usecase/health"
)

// Answerer is the chat pipeline consumed by the HTTP layer.
type Answerer interface {
	Answer(ctx context.Context, query, sessionID string) (domain.AnswerResult, error)
}

// ServiceInfo describes the running instance for the root endpoint.
type ServiceInfo struct {
	Service     string `json:"service"`
	Project     string `json:"project"`
	Location    string `json:"location"`
	DataStoreID string `json:"data_store_id"`
	ModelID     string `json:"model_id"`
}

// Server exposes the chat API over HTTP.
type Server struct {
	answerer Answerer
	health   *healthuc.Service
	info     ServiceInfo
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(answerer Answerer, health *healthuc.Service, info ServiceInfo, logger *zap.Logger) *Server {
	return &Server{
		answerer: answerer,
		health:   health,
		info:     info,
		logger:   logger,
	}
}

// Routes mounts the API endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Post("/chat", s.Chat)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// chatRequest is the POST /chat body.
type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'query' in JSON body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Missing 'query' in JSON body")
		return
	}

	res, err := s.answerer.Answer(r.Context(), req.Query, req.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "Missing 'query' in JSON body")
			return
		}
		s.logger.Error("answer pipeline error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	metrics.AnswersTotal.WithLabelValues(answerOutcome(res)).Inc()

	// Degraded answers still return 200: the client always gets an answer body.
	writeJSON(w, http.StatusOK, res)
}

func answerOutcome(res domain.AnswerResult) string {
	switch {
	case res.Err != "":
		return "fallback"
	case res.Answer == domain.AnswerNotFound:
		return "not_found"
	default:
		return "answered"
	}
}

// Root handles GET /. Returns a service descriptor.
func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": s.info.Service,
		"status":  "running",
		"config": map[string]string{
			"project":       s.info.Project,
			"location":      s.info.Location,
			"data_store_id": s.info.DataStoreID,
			"model_id":      s.info.ModelID,
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	// Degraded still reports 200: the service keeps answering with fallbacks.
	writeJSON(w, http.StatusOK, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
