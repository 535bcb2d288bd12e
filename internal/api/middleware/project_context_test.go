package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/queued/queued/internal/api/middleware"
)

func TestProjectContext_ExtractsProjectIDAsOpaqueString(t *testing.T) {
	handler := middleware.ProjectContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		project, ok := middleware.GetProject(r.Context())
		if !ok {
			t.Error("expected a project in context")
		}
		if project != "not-a-uuid-at-all" {
			t.Errorf("expected %q, got %q", "not-a-uuid-at-all", project)
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Project-ID", "not-a-uuid-at-all")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestProjectContext_MissingProjectIsTheNullProject(t *testing.T) {
	handler := middleware.ProjectContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetProject(r.Context()); ok {
			t.Error("expected no project in context when the header is absent")
		}
		if got := middleware.ProjectPtr(r.Context()); got != nil {
			t.Errorf("expected a nil project pointer, got %v", *got)
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestProjectContext_ExtractsClientUUID(t *testing.T) {
	clientUUID := uuid.New()

	handler := middleware.ProjectContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := middleware.GetClientUUID(r.Context())
		if id != clientUUID.String() {
			t.Errorf("expected %s, got %s", clientUUID, id)
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Client-UUID", clientUUID.String())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestProjectContext_RejectsInvalidClientUUID(t *testing.T) {
	handler := middleware.ProjectContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Client-UUID", "invalid-uuid")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}
