package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/queued/queued/internal/api/middleware"
	"github.com/queued/queued/internal/api/response"
	"github.com/queued/queued/internal/config"
	"github.com/queued/queued/internal/core"
	"github.com/queued/queued/internal/domain"
)

// ClaimHandler exposes the claim controller over HTTP.
type ClaimHandler struct {
	claims   *core.ClaimController
	defaults config.ClaimDefaultsConfig
}

// NewClaimHandler builds a ClaimHandler.
func NewClaimHandler(claims *core.ClaimController, defaults config.ClaimDefaultsConfig) *ClaimHandler {
	return &ClaimHandler{claims: claims, defaults: defaults}
}

type claimOptionsRequest struct {
	TTL   int `json:"ttl"`
	Limit int `json:"limit"`
}

func (h *ClaimHandler) resolveOptions(req claimOptionsRequest) (core.ClaimOptions, error) {
	if req.TTL < 0 {
		return core.ClaimOptions{}, domain.ErrInvalidTTL
	}
	if req.Limit < 0 {
		return core.ClaimOptions{}, domain.ErrInvalidLimit
	}

	ttl := req.TTL
	if ttl == 0 {
		ttl = h.defaults.DefaultTTLSeconds
	}

	limit := req.Limit
	if limit == 0 {
		limit = h.defaults.DefaultLimit
	}
	if limit > h.defaults.MaxLimit {
		limit = h.defaults.MaxLimit
	}

	return core.ClaimOptions{TTL: ttl, Limit: int64(limit)}, nil
}

// Create handles POST /queues/{name}/claims.
func (h *ClaimHandler) Create(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	project := middleware.ProjectPtr(r.Context())

	var req claimOptionsRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
	}

	opts, err := h.resolveOptions(req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	claimID, messages, err := h.claims.Create(r.Context(), project, name, opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response.Created(w, map[string]interface{}{
		"claim_id": claimID,
		"messages": messages,
	})
}

// Get handles GET /queues/{name}/claims/{id}.
func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")
	project := middleware.ProjectPtr(r.Context())

	view, messages, err := h.claims.Get(r.Context(), project, name, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"claim":    view,
		"messages": messages,
	})
}

// Update handles PATCH /queues/{name}/claims/{id}.
func (h *ClaimHandler) Update(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")
	project := middleware.ProjectPtr(r.Context())

	var req claimOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	opts, err := h.resolveOptions(req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.claims.Update(r.Context(), project, name, id, opts); err != nil {
		writeDomainError(w, err)
		return
	}
	response.NoContent(w)
}

// Delete handles DELETE /queues/{name}/claims/{id}.
func (h *ClaimHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.claims.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	response.NoContent(w)
}
