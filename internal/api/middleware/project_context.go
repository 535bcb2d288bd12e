package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/queued/queued/internal/api/response"
	"github.com/queued/queued/internal/pkg/logger"
)

const (
	// ProjectIDKey is the context key for project ID
	ProjectIDKey = logger.ProjectIDKey
	// ClientUUIDKey is the context key for client UUID
	ClientUUIDKey = logger.ClientUUIDKey

	// Header names
	ProjectIDHeader  = "X-Project-ID"
	ClientUUIDHeader = "X-Client-UUID"
)

// ProjectContext middleware extracts the project identity and producing
// client's UUID from headers. Per §9, project is an opaque, uninterpreted
// string the core never parses — only the client UUID (used for echo
// suppression) is validated as a UUID.
func ProjectContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if projectID := r.Header.Get(ProjectIDHeader); projectID != "" {
			ctx = context.WithValue(ctx, ProjectIDKey, projectID)
		}

		if clientUUIDStr := r.Header.Get(ClientUUIDHeader); clientUUIDStr != "" {
			clientUUID, err := uuid.Parse(clientUUIDStr)
			if err != nil {
				response.BadRequest(w, "invalid X-Client-UUID format")
				return
			}
			ctx = context.WithValue(ctx, ClientUUIDKey, clientUUID.String())
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetProject extracts the project identity from context as (value,
// present) — an absent project is not an error, it is the null project.
func GetProject(ctx context.Context) (string, bool) {
	project, ok := ctx.Value(ProjectIDKey).(string)
	return project, ok
}

// ProjectPtr returns the project as *string for repository calls: nil
// when absent, matching the domain's null-project convention.
func ProjectPtr(ctx context.Context) *string {
	project, ok := GetProject(ctx)
	if !ok {
		return nil
	}
	return &project
}

// GetClientUUID extracts the producing client's UUID from context.
func GetClientUUID(ctx context.Context) string {
	id, _ := ctx.Value(ClientUUIDKey).(string)
	return id
}
