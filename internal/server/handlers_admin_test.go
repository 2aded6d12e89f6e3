package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kyklos/internal/api"
)

func adminRequest(t *testing.T, h http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAdminAPIDisabledWithoutToken(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()

	w := adminRequest(t, h, http.MethodGet, "/v1/admin/users", "", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestAdminAPIRejectsWrongToken(t *testing.T) {
	srv := newTestServer(t)
	srv.adminToken = "secret-token"
	h := srv.routes()

	w := adminRequest(t, h, http.MethodGet, "/v1/admin/users", "not-the-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", w.Code, w.Body.String())
	}

	w = adminRequest(t, h, http.MethodGet, "/v1/admin/users", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing bearer: expected 401, got %d", w.Code)
	}
}

func TestAdminUserLifecycle(t *testing.T) {
	srv := newTestServer(t)
	srv.adminToken = "secret-token"
	h := srv.routes()

	// Create.
	w := adminRequest(t, h, http.MethodPost, "/v1/admin/users", "secret-token",
		api.AdminUserCreateRequest{Username: "Alice", Password: "password-123"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	created := decodeBody[api.AdminUserResponse](t, w)
	if created.Username != "alice" || created.Disabled {
		t.Fatalf("unexpected created user %+v", created)
	}

	// Duplicate create conflicts.
	w = adminRequest(t, h, http.MethodPost, "/v1/admin/users", "secret-token",
		api.AdminUserCreateRequest{Username: "alice", Password: "password-456"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d (%s)", w.Code, w.Body.String())
	}

	// Provisioned user can log in.
	login := postJSON(t, h, "/v1/auth/login", api.AuthCredentialsRequest{Username: "alice", Password: "password-123"})
	if login.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", login.Code, login.Body.String())
	}

	// Disable.
	disabled := true
	w = adminRequest(t, h, http.MethodPatch, "/v1/admin/users/alice", "secret-token",
		api.AdminUserUpdateRequest{Disabled: &disabled})
	if w.Code != http.StatusOK {
		t.Fatalf("disable: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if updated := decodeBody[api.AdminUserResponse](t, w); !updated.Disabled {
		t.Fatalf("expected disabled user, got %+v", updated)
	}

	// Disabled users cannot log in.
	login = postJSON(t, h, "/v1/auth/login", api.AuthCredentialsRequest{Username: "alice", Password: "password-123"})
	if login.Code != http.StatusUnauthorized {
		t.Fatalf("disabled login: expected 401, got %d", login.Code)
	}

	// List.
	w = adminRequest(t, h, http.MethodGet, "/v1/admin/users", "secret-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	list := decodeBody[api.AdminUserListResponse](t, w)
	if list.Count != 1 || len(list.Users) != 1 {
		t.Fatalf("unexpected list %+v", list)
	}

	// Delete.
	w = adminRequest(t, h, http.MethodDelete, "/v1/admin/users/alice", "secret-token", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d (%s)", w.Code, w.Body.String())
	}
	w = adminRequest(t, h, http.MethodDelete, "/v1/admin/users/alice", "secret-token", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("re-delete: expected 404, got %d", w.Code)
	}
}

func TestAdminUserUpdateRequiresDisabledField(t *testing.T) {
	srv := newTestServer(t)
	srv.adminToken = "secret-token"
	h := srv.routes()

	w := adminRequest(t, h, http.MethodPatch, "/v1/admin/users/alice", "secret-token",
		api.AdminUserUpdateRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	resp := decodeBody[api.ErrorResponse](t, w)
	if resp.ErrorCode != ErrCodeMissingRequired {
		t.Fatalf("expected error_code %d, got %d", ErrCodeMissingRequired, resp.ErrorCode)
	}
}
