package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"metricsindexer/apps/indexer/internal/logger"
	"metricsindexer/apps/indexer/internal/usecase"
)

type ConfigSource interface {
	Get(k usecase.Key) (usecase.IngestConfiguration, error)
	All() []usecase.IngestConfiguration
}

type Resolver interface {
	Resolve(ctx context.Context, k usecase.Key, orgID int64, s string) (int64, bool, error)
	ReverseResolve(ctx context.Context, k usecase.Key, id int64) (string, bool, error)
}

// Handler exposes the registered ingest configurations and string lookups
// for operators.
type Handler struct {
	configs  ConfigSource
	resolver Resolver
}

func NewHandler(configs ConfigSource, resolver Resolver) *Handler {
	return &Handler{configs: configs, resolver: resolver}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.configs.All())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	k, ok := h.useCase(w, r)
	if !ok {
		return
	}
	cfg, err := h.configs.Get(k)
	if errors.Is(err, usecase.ErrNotRegistered) {
		h.writeError(r.Context(), w, "NOT_FOUND", err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, cfg)
}

// Resolve handles ?org_id=&string= lookups.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	k, ok := h.useCase(w, r)
	if !ok {
		return
	}
	orgID, err := strconv.ParseInt(r.URL.Query().Get("org_id"), 10, 64)
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "org_id must be an integer", http.StatusBadRequest)
		return
	}
	s := r.URL.Query().Get("string")
	if s == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "string is required", http.StatusBadRequest)
		return
	}

	id, found, err := h.resolver.Resolve(r.Context(), k, orgID, s)
	if err != nil {
		h.writeLookupError(r.Context(), w, err)
		return
	}
	if !found {
		h.writeError(r.Context(), w, "NOT_FOUND", "string not indexed", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]any{"org_id": orgID, "string": s, "id": id})
}

func (h *Handler) ReverseResolve(w http.ResponseWriter, r *http.Request) {
	k, ok := h.useCase(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "id must be an integer", http.StatusBadRequest)
		return
	}

	s, found, err := h.resolver.ReverseResolve(r.Context(), k, id)
	if err != nil {
		h.writeLookupError(r.Context(), w, err)
		return
	}
	if !found {
		h.writeError(r.Context(), w, "NOT_FOUND", "id not indexed", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]any{"id": id, "string": s})
}

func (h *Handler) useCase(w http.ResponseWriter, r *http.Request) (usecase.Key, bool) {
	k, err := usecase.Parse(r.PathValue("use_case"))
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return "", false
	}
	return k, true
}

func (h *Handler) writeLookupError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, usecase.ErrNotRegistered) {
		h.writeError(ctx, w, "NOT_FOUND", err.Error(), http.StatusNotFound)
		return
	}
	h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": logger.CorrelationID(ctx),
	}

	json.NewEncoder(w).Encode(resp)
}
