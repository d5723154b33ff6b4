package handlers

import (
	"context"

	"kodik/internal/ledger"
	"kodik/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, role, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (map[string]any, error)
	GetByUsername(ctx context.Context, username string) (map[string]any, error)
	GetByID(ctx context.Context, userID string) (map[string]any, error)
	ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type WalletStore interface {
	Create(ctx context.Context, tx store.Execer, id, userID string, cash, coins, gift int64) error
	GetByUser(ctx context.Context, userID string) (store.Wallet, error)
	CashSummary(ctx context.Context, userID string) (store.WalletCashSummary, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID, kind string, limit, offset int) ([]map[string]any, error)
	ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type RateStore interface {
	GetActive(ctx context.Context) (int64, error)
	SetRate(ctx context.Context, tx store.Tx, rate int64, actorID string) (string, error)
}

type AdminStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, bool, error)
	CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
	HasAnyAdmin(ctx context.Context) (bool, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type LedgerService interface {
	TopUp(ctx context.Context, req ledger.TopUpRequest) (ledger.WalletView, string, error)
	Withdraw(ctx context.Context, req ledger.WithdrawRequest) (ledger.WalletView, string, error)
	BuyCoins(ctx context.Context, req ledger.CoinRequest) (ledger.WalletView, string, error)
	ExchangeCoins(ctx context.Context, req ledger.CoinRequest) (ledger.WalletView, string, error)
	CashOutGiftRevenue(ctx context.Context, req ledger.CashOutRequest) (ledger.WalletView, string, error)
	SpendCoins(ctx context.Context, req ledger.CoinRequest) (ledger.WalletView, error)
	SendGift(ctx context.Context, req ledger.GiftRequest) (ledger.WalletView, error)
	Snapshot(ctx context.Context, userID string) (ledger.WalletView, error)
}
