package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kodik/internal/auth"
	"kodik/internal/store"

	"github.com/lib/pq"
)

func TestRegisterSeedsWallet(t *testing.T) {
	var createdRole string
	var seededCash, seededCoins, seededGift int64
	createdAdmins := 0
	audited := 0
	handler := newTestHandler(stubUserStore{
		createFn: func(_ context.Context, _ store.Execer, _, _, _, role, _ string) error {
			createdRole = role
			return nil
		},
	}, stubWalletStore{
		createFn: func(_ context.Context, _ store.Execer, _, _ string, cash, coins, gift int64) error {
			seededCash = cash
			seededCoins = coins
			seededGift = gift
			return nil
		},
	}, stubTransactionStore{}, stubRateStore{}, stubAdminStore{
		hasAnyAdminFn: func(context.Context) (bool, error) {
			return true, nil
		},
		createAdminFn: func(context.Context, store.Execer, string, bool, *string) error {
			createdAdmins++
			return nil
		},
	}, stubAuditStore{
		logFn: func(_ context.Context, _ store.Execer, _, action, _, _, _ string) error {
			if action == "register" {
				audited++
			}
			return nil
		},
	}, stubService{})

	body := []byte(`{"username":"budi","email":"budi@example.com","password":"secret123","role":"buyer"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if createdRole != "buyer" {
		t.Fatalf("unexpected role: %s", createdRole)
	}
	if seededCash != 1000000 || seededCoins != 100 || seededGift != 0 {
		t.Fatalf("unexpected seed balances: %d/%d/%d", seededCash, seededCoins, seededGift)
	}
	if createdAdmins != 0 {
		t.Fatalf("existing admin setup should not mint another admin")
	}
	if audited != 1 {
		t.Fatalf("expected one register audit entry, got %d", audited)
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["token"] == "" {
		t.Fatal("expected a token")
	}
}

func TestRegisterSellerSeedsGiftRevenue(t *testing.T) {
	var seededGift int64
	handler := newTestHandler(stubUserStore{}, stubWalletStore{
		createFn: func(_ context.Context, _ store.Execer, _, _ string, _, _, gift int64) error {
			seededGift = gift
			return nil
		},
	}, stubTransactionStore{}, stubRateStore{}, stubAdminStore{
		hasAnyAdminFn: func(context.Context) (bool, error) {
			return true, nil
		},
	}, stubAuditStore{}, stubService{})

	body := []byte(`{"username":"toko","email":"toko@example.com","password":"secret123","role":"seller"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if seededGift != 250000 {
		t.Fatalf("sellers should start with gift revenue, got %d", seededGift)
	}
}

func TestRegisterFirstUserBecomesSuperAdmin(t *testing.T) {
	var isSuper bool
	created := 0
	handler := newTestHandler(stubUserStore{}, stubWalletStore{}, stubTransactionStore{}, stubRateStore{}, stubAdminStore{
		hasAnyAdminFn: func(context.Context) (bool, error) {
			return false, nil
		},
		createAdminFn: func(_ context.Context, _ store.Execer, _ string, super bool, createdBy *string) error {
			created++
			isSuper = super
			if createdBy != nil {
				t.Fatal("bootstrap admin has no creator")
			}
			return nil
		},
	}, stubAuditStore{}, stubService{})

	body := []byte(`{"username":"pertama","email":"pertama@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if created != 1 || !isSuper {
		t.Fatalf("first user should become super admin, created=%d isSuper=%v", created, isSuper)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	handler := newTestHandler(stubUserStore{
		createFn: func(context.Context, store.Execer, string, string, string, string, string) error {
			return &pq.Error{Code: "23505"}
		},
	}, stubWalletStore{}, stubTransactionStore{}, stubRateStore{}, stubAdminStore{}, stubAuditStore{}, stubService{})

	body := []byte(`{"username":"budi","email":"budi@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRegisterRejectsBadRole(t *testing.T) {
	handler := newTestHandler(stubUserStore{}, stubWalletStore{}, stubTransactionStore{}, stubRateStore{}, stubAdminStore{}, stubAuditStore{}, stubService{})

	body := []byte(`{"username":"budi","email":"budi@example.com","password":"secret123","role":"superuser"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	handler := newTestHandler(stubUserStore{
		getByEmailFn: func(_ context.Context, email string) (map[string]any, error) {
			if email != "budi@example.com" {
				t.Fatalf("unexpected email: %s", email)
			}
			return map[string]any{"id": "USR-1", "password_hash": hash}, nil
		},
	}, stubWalletStore{}, stubTransactionStore{}, stubRateStore{}, stubAdminStore{}, stubAuditStore{}, stubService{})

	body := []byte(`{"email":"budi@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	claims, err := auth.ParseToken("secret", payload["token"])
	if err != nil {
		t.Fatalf("token should parse: %v", err)
	}
	if claims.UserID != "USR-1" {
		t.Fatalf("unexpected subject: %s", claims.UserID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	handler := newTestHandler(stubUserStore{
		getByEmailFn: func(context.Context, string) (map[string]any, error) {
			return map[string]any{"id": "USR-1", "password_hash": hash}, nil
		},
	}, stubWalletStore{}, stubTransactionStore{}, stubRateStore{}, stubAdminStore{}, stubAuditStore{}, stubService{})

	body := []byte(`{"email":"budi@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	handler := newTestHandler(stubUserStore{
		getByEmailFn: func(context.Context, string) (map[string]any, error) {
			return nil, sql.ErrNoRows
		},
	}, stubWalletStore{}, stubTransactionStore{}, stubRateStore{}, stubAdminStore{}, stubAuditStore{}, stubService{})

	body := []byte(`{"email":"ghost@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLogoutAuditsSession(t *testing.T) {
	audited := 0
	handler := newTestHandler(stubUserStore{}, stubWalletStore{}, stubTransactionStore{}, stubRateStore{}, stubAdminStore{}, stubAuditStore{
		logFn: func(_ context.Context, _ store.Execer, actorID, action, _, _, _ string) error {
			if action == "logout" && actorID == "USR-1" {
				audited++
			}
			return nil
		},
	}, stubService{})

	rr := serveAuthed(t, handler.Logout, "USR-1", http.MethodPost, "/auth/logout", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if audited != 1 {
		t.Fatalf("expected one logout audit entry, got %d", audited)
	}
}

func TestMeReturnsProfile(t *testing.T) {
	handler := newTestHandler(stubUserStore{
		getByIDFn: func(_ context.Context, userID string) (map[string]any, error) {
			return map[string]any{
				"id": userID, "username": "budi", "email": "budi@example.com", "role": "buyer",
			}, nil
		},
	}, stubWalletStore{}, stubTransactionStore{}, stubRateStore{}, stubAdminStore{}, stubAuditStore{}, stubService{})

	rr := serveAuthed(t, handler.Me, "USR-1", http.MethodGet, "/auth/me", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["username"] != "budi" || payload["role"] != "buyer" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}
