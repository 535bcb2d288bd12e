package handler

import (
	"errors"
	"net/http"

	"github.com/queued/queued/internal/api/response"
	"github.com/queued/queued/internal/domain"
)

// writeDomainError maps a domain error to its HTTP representation. Store
// I/O failures that aren't one of the domain's named errors fall through
// to a 500, unchanged, per §7's "propagated to the caller unchanged, no
// internal retry" rule.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQueueNotFound):
		response.Error(w, http.StatusNotFound, response.ErrCodeQueueNotFound, err.Error())
	case errors.Is(err, domain.ErrMessageNotFound):
		response.Error(w, http.StatusNotFound, response.ErrCodeMessageNotFound, err.Error())
	case errors.Is(err, domain.ErrClaimNotFound):
		response.Error(w, http.StatusNotFound, response.ErrCodeClaimNotFound, err.Error())
	case errors.Is(err, domain.ErrClaimNotPermitted):
		response.Error(w, http.StatusConflict, response.ErrCodeClaimNotPermitted, err.Error())
	case errors.Is(err, domain.ErrInvalidTTL):
		response.Error(w, http.StatusBadRequest, response.ErrCodeInvalidTTL, err.Error())
	case errors.Is(err, domain.ErrInvalidLimit):
		response.Error(w, http.StatusBadRequest, response.ErrCodeInvalidLimit, err.Error())
	default:
		response.InternalError(w, "store operation failed")
	}
}
