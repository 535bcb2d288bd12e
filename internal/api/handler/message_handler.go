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

// MessageHandler exposes the message controller over HTTP.
type MessageHandler struct {
	messages *core.MessageController
	claims   claimDefaults
}

type claimDefaults struct {
	defaultTTL int
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages *core.MessageController, defaultTTLSeconds int) *MessageHandler {
	return &MessageHandler{messages: messages, claims: claimDefaults{defaultTTL: defaultTTLSeconds}}
}

type postedMessageRequest struct {
	TTL  int                    `json:"ttl"`
	Body map[string]interface{} `json:"body"`
}

type postMessagesRequest struct {
	Messages []postedMessageRequest `json:"messages"`
}

// Post handles POST /queues/{name}/messages.
func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	project := middleware.ProjectPtr(r.Context())
	clientUUID := middleware.GetClientUUID(r.Context())

	var req postMessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	messages := make([]core.PostedMessage, len(req.Messages))
	for i, m := range req.Messages {
		ttl := m.TTL
		if ttl == 0 {
			ttl = h.claims.defaultTTL
		}
		messages[i] = core.PostedMessage{TTL: ttl, Body: m.Body}
	}

	ids, err := h.messages.Post(r.Context(), project, name, messages, clientUUID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response.Created(w, map[string]interface{}{"ids": ids})
}

// Get handles GET /queues/{name}/messages/{id}.
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")
	project := middleware.ProjectPtr(r.Context())

	view, err := h.messages.Get(r.Context(), project, name, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.OK(w, view)
}

// List handles GET /queues/{name}/messages.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	project := middleware.ProjectPtr(r.Context())
	clientUUID := middleware.GetClientUUID(r.Context())

	q := r.URL.Query()
	marker := q.Get("marker")
	echo := q.Get("echo") == "true"

	limit := int64(0)
	if l := q.Get("limit"); l != "" {
		parsed, err := strconv.ParseInt(l, 10, 64)
		if err != nil {
			response.BadRequest(w, "limit must be an integer")
			return
		}
		limit = parsed
	}

	views, nextMarker, err := h.messages.List(r.Context(), project, name, marker, limit, echo, clientUUID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, views, &response.Meta{NextCursor: nextMarker})
}

// Delete handles DELETE /queues/{name}/messages/{id}.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")
	project := middleware.ProjectPtr(r.Context())
	claim := r.URL.Query().Get("claim_id")

	if err := h.messages.Delete(r.Context(), project, name, id, claim); err != nil {
		writeDomainError(w, err)
		return
	}
	response.NoContent(w)
}
