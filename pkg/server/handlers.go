package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"solara-hq/quotient/pkg/quota"
)

const maxRequestBody = 64 << 10 // 64 KiB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// CheckHandler evaluates quota checks over HTTP.
type CheckHandler struct {
	checker *quota.Checker
}

// NewCheckHandler creates a handler backed by the given checker.
func NewCheckHandler(checker *quota.Checker) *CheckHandler {
	return &CheckHandler{checker: checker}
}

// ServeHTTP implements http.Handler for POST /v1/check.
func (h *CheckHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed,
			NewErrorResponse("method_not_allowed", "Method not allowed"))
		return
	}

	var req CheckRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest,
			NewErrorResponse("invalid_request", "Invalid JSON in request body"))
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest,
			NewErrorResponse("invalid_request", "user_id is required"))
		return
	}

	user := quota.User{
		ID:          req.UserID,
		Roles:       req.Roles,
		EmailDomain: req.EmailDomain,
	}

	result, err := h.checker.Check(r.Context(), user, req.SessionID, req.ModelID, time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "quota check failed",
			"user_id", req.UserID,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError,
			NewErrorResponse("check_failed", "Quota check failed"))
		return
	}

	writeJSON(w, http.StatusOK, toCheckResponse(result))
}

// InspectHandler explains the resolved policy and usage for a user.
type InspectHandler struct {
	inspector *quota.Inspector
}

// NewInspectHandler creates a handler backed by the given inspector.
func NewInspectHandler(inspector *quota.Inspector) *InspectHandler {
	return &InspectHandler{inspector: inspector}
}

// ServeHTTP implements http.Handler for GET /v1/inspect.
//
// Query parameters: user (required), roles (comma-separated), domain.
func (h *InspectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed,
			NewErrorResponse("method_not_allowed", "Method not allowed"))
		return
	}

	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest,
			NewErrorResponse("invalid_request", "user query parameter is required"))
		return
	}

	user := quota.User{
		ID:          userID,
		EmailDomain: r.URL.Query().Get("domain"),
	}
	if roles := r.URL.Query().Get("roles"); roles != "" {
		user.Roles = strings.Split(roles, ",")
	}

	inspection, err := h.inspector.Inspect(r.Context(), user, time.Now().UTC())
	if err != nil {
		var notFound *quota.NotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusNotFound,
				NewErrorResponse("not_found", err.Error()))
			return
		}
		slog.ErrorContext(r.Context(), "inspection failed",
			"user_id", userID,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError,
			NewErrorResponse("inspect_failed", "Inspection failed"))
		return
	}

	writeJSON(w, http.StatusOK, inspection)
}

// HealthHandler answers liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a liveness handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed,
			NewErrorResponse("method_not_allowed", "Method not allowed"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// ReadyHandler answers readiness probes by pinging the policy store.
type ReadyHandler struct {
	store quota.Store
}

// NewReadyHandler creates a readiness handler backed by the policy store.
func NewReadyHandler(store quota.Store) *ReadyHandler {
	return &ReadyHandler{store: store}
}

// ServeHTTP implements http.Handler for GET /ready.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed,
			NewErrorResponse("method_not_allowed", "Method not allowed"))
		return
	}

	status := "ready"
	statusCode := http.StatusOK
	if _, err := h.store.ListTiers(r.Context()); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		slog.WarnContext(r.Context(), "readiness check failed", "error", err)
	}

	writeJSON(w, statusCode, map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
	})
}
