package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/queued/queued/internal/api/middleware"
	"github.com/queued/queued/internal/api/response"
	"github.com/queued/queued/internal/core"
)

// QueueHandler exposes the queue controller over HTTP.
type QueueHandler struct {
	queues *core.QueueController
}

// NewQueueHandler builds a QueueHandler.
func NewQueueHandler(queues *core.QueueController) *QueueHandler {
	return &QueueHandler{queues: queues}
}

type upsertQueueRequest struct {
	Metadata map[string]interface{} `json:"metadata"`
}

type queueResponse struct {
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Upsert handles PUT /queues/{name}.
func (h *QueueHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	project := middleware.ProjectPtr(r.Context())

	var req upsertQueueRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
	}

	created, err := h.queues.Upsert(r.Context(), project, name, req.Metadata)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if created {
		response.Created(w, queueResponse{Name: name, Metadata: req.Metadata})
		return
	}
	response.OK(w, queueResponse{Name: name, Metadata: req.Metadata})
}

// Get handles GET /queues/{name}.
func (h *QueueHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	project := middleware.ProjectPtr(r.Context())

	queue, err := h.queues.Get(r.Context(), project, name)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response.OK(w, queueResponse{Name: queue.Name, Metadata: queue.Metadata})
}

// List handles GET /queues.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	project := middleware.ProjectPtr(r.Context())
	q := r.URL.Query()
	marker := q.Get("marker")
	detailed := q.Get("detailed") == "true"

	limit := int64(0)
	if l := q.Get("limit"); l != "" {
		parsed, err := strconv.ParseInt(l, 10, 64)
		if err != nil {
			response.BadRequest(w, "limit must be an integer")
			return
		}
		limit = parsed
	}

	queues, err := h.queues.List(r.Context(), project, marker, limit, detailed)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]queueResponse, len(queues))
	for i, qu := range queues {
		item := queueResponse{Name: qu.Name}
		if detailed {
			item.Metadata = qu.Metadata
		}
		out[i] = item
	}
	response.OK(w, out)
}

// Delete handles DELETE /queues/{name}.
func (h *QueueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	project := middleware.ProjectPtr(r.Context())

	if err := h.queues.Delete(r.Context(), project, name); err != nil {
		writeDomainError(w, err)
		return
	}
	response.NoContent(w)
}

// Stats handles GET /queues/{name}/stats.
func (h *QueueHandler) Stats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	project := middleware.ProjectPtr(r.Context())

	stats, err := h.queues.Stats(r.Context(), project, name)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"messages": map[string]int64{
			"claimed": stats.Claimed,
			"free":    stats.Free,
		},
		"actions": 0,
	})
}
