package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kodik/internal/auth"
)

type stubAdminStore struct {
	isAdminFn func(ctx context.Context, userID string) (bool, bool, error)
}

func (s stubAdminStore) IsAdmin(ctx context.Context, userID string) (bool, bool, error) {
	return s.isAdminFn(ctx, userID)
}

func adminRequest(t *testing.T) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken("secret", "user-1", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRequireAdminForbidden(t *testing.T) {
	store := stubAdminStore{isAdminFn: func(context.Context, string) (bool, bool, error) {
		return false, false, nil
	}}
	handler := Auth("secret")(RequireAdmin(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, adminRequest(t))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRequireAdminStoreError(t *testing.T) {
	store := stubAdminStore{isAdminFn: func(context.Context, string) (bool, bool, error) {
		return false, false, errors.New("db down")
	}}
	handler := Auth("secret")(RequireAdmin(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, adminRequest(t))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestRequireAdminAllows(t *testing.T) {
	store := stubAdminStore{isAdminFn: func(context.Context, string) (bool, bool, error) {
		return true, false, nil
	}}
	called := false
	handler := Auth("secret")(RequireAdmin(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, adminRequest(t))
	if rr.Code != http.StatusOK || !called {
		t.Fatalf("expected handler to run, code %d", rr.Code)
	}
}
