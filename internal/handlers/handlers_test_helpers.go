package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kodik/internal/auth"
	"kodik/internal/config"
	"kodik/internal/ledger"
	"kodik/internal/middleware"
	"kodik/internal/store"
	"kodik/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Execer, id, username, email, role, passwordHash string) error
	getByEmailFn    func(ctx context.Context, email string) (map[string]any, error)
	getByUsernameFn func(ctx context.Context, username string) (map[string]any, error)
	getByIDFn       func(ctx context.Context, userID string) (map[string]any, error)
	listAllFn       func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, role, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, role, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByUsername(ctx context.Context, username string) (map[string]any, error) {
	if s.getByUsernameFn == nil {
		return nil, nil
	}
	return s.getByUsernameFn(ctx, username)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubWalletStore struct {
	createFn      func(ctx context.Context, tx store.Execer, id, userID string, cash, coins, gift int64) error
	getByUserFn   func(ctx context.Context, userID string) (store.Wallet, error)
	cashSummaryFn func(ctx context.Context, userID string) (store.WalletCashSummary, error)
}

func (s stubWalletStore) Create(ctx context.Context, tx store.Execer, id, userID string, cash, coins, gift int64) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, userID, cash, coins, gift)
}

func (s stubWalletStore) GetByUser(ctx context.Context, userID string) (store.Wallet, error) {
	if s.getByUserFn == nil {
		return store.Wallet{}, nil
	}
	return s.getByUserFn(ctx, userID)
}

func (s stubWalletStore) CashSummary(ctx context.Context, userID string) (store.WalletCashSummary, error) {
	if s.cashSummaryFn == nil {
		return store.WalletCashSummary{}, nil
	}
	return s.cashSummaryFn(ctx, userID)
}

type stubTransactionStore struct {
	listByUserFn func(ctx context.Context, userID, kind string, limit, offset int) ([]map[string]any, error)
	listAllFn    func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID, kind string, limit, offset int) ([]map[string]any, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, kind, limit, offset)
}

func (s stubTransactionStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubRateStore struct {
	getActiveFn func(ctx context.Context) (int64, error)
	setRateFn   func(ctx context.Context, tx store.Tx, rate int64, actorID string) (string, error)
}

func (s stubRateStore) GetActive(ctx context.Context) (int64, error) {
	if s.getActiveFn == nil {
		return 1000, nil
	}
	return s.getActiveFn(ctx)
}

func (s stubRateStore) SetRate(ctx context.Context, tx store.Tx, rate int64, actorID string) (string, error) {
	if s.setRateFn == nil {
		return "", nil
	}
	return s.setRateFn(ctx, tx, rate, actorID)
}

type stubAdminStore struct {
	isAdminFn     func(ctx context.Context, userID string) (bool, bool, error)
	createAdminFn func(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
	hasAnyAdminFn func(ctx context.Context) (bool, error)
}

func (s stubAdminStore) IsAdmin(ctx context.Context, userID string) (bool, bool, error) {
	if s.isAdminFn == nil {
		return false, false, nil
	}
	return s.isAdminFn(ctx, userID)
}

func (s stubAdminStore) CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error {
	if s.createAdminFn == nil {
		return nil
	}
	return s.createAdminFn(ctx, tx, userID, isSuper, createdBy)
}

func (s stubAdminStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	if s.hasAnyAdminFn == nil {
		return true, nil
	}
	return s.hasAnyAdminFn(ctx)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubService struct {
	topUpFn    func(ctx context.Context, req ledger.TopUpRequest) (ledger.WalletView, string, error)
	withdrawFn func(ctx context.Context, req ledger.WithdrawRequest) (ledger.WalletView, string, error)
	buyFn      func(ctx context.Context, req ledger.CoinRequest) (ledger.WalletView, string, error)
	exchangeFn func(ctx context.Context, req ledger.CoinRequest) (ledger.WalletView, string, error)
	cashOutFn  func(ctx context.Context, req ledger.CashOutRequest) (ledger.WalletView, string, error)
	spendFn    func(ctx context.Context, req ledger.CoinRequest) (ledger.WalletView, error)
	giftFn     func(ctx context.Context, req ledger.GiftRequest) (ledger.WalletView, error)
	snapshotFn func(ctx context.Context, userID string) (ledger.WalletView, error)
}

func (s stubService) TopUp(ctx context.Context, req ledger.TopUpRequest) (ledger.WalletView, string, error) {
	if s.topUpFn == nil {
		return ledger.WalletView{}, "", nil
	}
	return s.topUpFn(ctx, req)
}

func (s stubService) Withdraw(ctx context.Context, req ledger.WithdrawRequest) (ledger.WalletView, string, error) {
	if s.withdrawFn == nil {
		return ledger.WalletView{}, "", nil
	}
	return s.withdrawFn(ctx, req)
}

func (s stubService) BuyCoins(ctx context.Context, req ledger.CoinRequest) (ledger.WalletView, string, error) {
	if s.buyFn == nil {
		return ledger.WalletView{}, "", nil
	}
	return s.buyFn(ctx, req)
}

func (s stubService) ExchangeCoins(ctx context.Context, req ledger.CoinRequest) (ledger.WalletView, string, error) {
	if s.exchangeFn == nil {
		return ledger.WalletView{}, "", nil
	}
	return s.exchangeFn(ctx, req)
}

func (s stubService) CashOutGiftRevenue(ctx context.Context, req ledger.CashOutRequest) (ledger.WalletView, string, error) {
	if s.cashOutFn == nil {
		return ledger.WalletView{}, "", nil
	}
	return s.cashOutFn(ctx, req)
}

func (s stubService) SpendCoins(ctx context.Context, req ledger.CoinRequest) (ledger.WalletView, error) {
	if s.spendFn == nil {
		return ledger.WalletView{}, nil
	}
	return s.spendFn(ctx, req)
}

func (s stubService) SendGift(ctx context.Context, req ledger.GiftRequest) (ledger.WalletView, error) {
	if s.giftFn == nil {
		return ledger.WalletView{}, nil
	}
	return s.giftFn(ctx, req)
}

func (s stubService) Snapshot(ctx context.Context, userID string) (ledger.WalletView, error) {
	if s.snapshotFn == nil {
		return ledger.WalletView{}, nil
	}
	return s.snapshotFn(ctx, userID)
}

func newTestHandler(users UserStore, wallets WalletStore, transactions TransactionStore, rates RateStore, admin AdminStore, audit AuditStore, service LedgerService) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
	return New(fakeTxRunner{}, cfg, users, wallets, transactions, rates, admin, audit, service, websocket.NewHub())
}

// serveAuthed runs a single handler behind the auth middleware with a real
// token for userID, the same path a request takes through the router.
func serveAuthed(t *testing.T, handler http.HandlerFunc, userID, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}
