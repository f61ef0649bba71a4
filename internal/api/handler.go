package api

import (
	"ask-relay/internal/entity"
	"ask-relay/internal/usecase/adapters"
	"ask-relay/pkg/apperr"
	"ask-relay/pkg/logg"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const maxRequestBytes = 64 << 10

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Detail    string `json:"detail"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// Handler serves the ask endpoint. Browser sessions are expensive, so it
// bounds both the request rate and the number of sessions in flight.
type Handler struct {
	retriever adapters.RetrieverService
	limiter   *rate.Limiter
	sessions  *semaphore.Weighted
	logger    *zap.Logger
}

func NewHandler(retriever adapters.RetrieverService, limiter *rate.Limiter, maxConcurrent int64, logger *zap.Logger) *Handler {
	return &Handler{
		retriever: retriever,
		limiter:   limiter,
		sessions:  semaphore.NewWeighted(maxConcurrent),
		logger:    logger.With(zap.String(logg.Layer, "AskHandler")),
	}
}

func (h *Handler) Ask(r *http.Request) (any, int, error) {
	const op = "Ask"
	logger := h.logger.With(
		zap.String(logg.Operation, op),
		zap.String("http_request_id", middleware.GetReqID(r.Context())),
	)

	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		return nil, 0, apperr.InvalidReqError(op, "body", err)
	}

	if strings.TrimSpace(req.Question) == "" {
		return nil, 0, apperr.InvalidReqError(op, "question", errors.New("question must not be empty"))
	}

	if !h.limiter.Allow() {
		return nil, 0, apperr.New(op, apperr.KindRateLimited, "too many questions, retry later")
	}

	if err := h.sessions.Acquire(r.Context(), 1); err != nil {
		logger.Warn("Gave up waiting for a free browser slot", zap.Error(err))

		return nil, 0, apperr.WrapWithReason(op, apperr.KindUnavailable, err, "session_slot_unavailable")
	}
	defer h.sessions.Release(1)

	outcome := h.retriever.Run(r.Context(), entity.Question(req.Question))
	if outcome.Err != nil {
		return errorResponse{RequestID: outcome.RequestID.String()}, 0, outcome.Err
	}

	return askResponse{Response: string(outcome.Answer)}, http.StatusOK, nil
}

func (h *Handler) Welcome(*http.Request) (any, int, error) {
	return map[string]string{
		"message": "Welcome to the generalized API for interactive Q&A!",
	}, http.StatusOK, nil
}

func (h *Handler) Health(*http.Request) (any, int, error) {
	return map[string]string{"status": "ok"}, http.StatusOK, nil
}

// handleJSON renders a handler's result or its classified error as JSON.
func handleJSON(logger *zap.Logger, handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeError(w, logger, res, err)
			return
		}

		writeJSON(w, logger, status, res)
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, res any, err error) {
	body, _ := res.(errorResponse)
	kind := apperr.KindOf(err)

	body.Kind = string(kind)
	body.Detail = err.Error()
	if appErr, ok := apperr.As(err); ok {
		body.Detail = appErr.Message()
	}

	writeJSON(w, logger, apperr.HTTPStatus(kind), body)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", zap.Error(err))
	}
}
