package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"kodik/internal/db"
	"kodik/internal/store"
	"kodik/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAmountBelowMinimum  = errors.New("amount below minimum")
	ErrMissingDestination  = errors.New("missing destination account")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientCoins   = errors.New("insufficient coins")
	ErrNoGiftRevenue       = errors.New("no gift revenue to cash out")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrSelfGift            = errors.New("cannot send a gift to yourself")
)

// Transaction kinds. The set is closed: every history row carries one of
// these values and consumers switch over them exhaustively.
const (
	KindTopUp        = "top_up"
	KindWithdrawal   = "withdrawal"
	KindCoinPurchase = "coin_purchase"
	KindCoinExchange = "coin_exchange"
	KindGiftCashout  = "gift_cashout"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusPending   = "pending"
)

// Fee and minimum constants in whole rupiah. The top-up fee is charged by the
// payment channel before the money reaches us, so it is recorded on the
// transaction for the statement but never deducted from the credited amount.
const (
	TopUpFee      int64 = 1000
	WithdrawalFee int64 = 5000
	MinTopUp      int64 = 10000
)

type WalletStore interface {
	GetByUser(ctx context.Context, userID string) (store.Wallet, error)
	GetByUserForUpdate(ctx context.Context, tx store.Getter, userID string) (store.Wallet, error)
	UpdateBalances(ctx context.Context, tx store.Execer, walletID string, cash, coins, gift int64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

type RateStore interface {
	GetActive(ctx context.Context) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (map[string]any, error)
}

type WalletHub interface {
	BroadcastWallet(userID string, update websocket.WalletUpdate)
}

type Service struct {
	txRunner db.TxRunner
	wallets  WalletStore
	txStore  TransactionStore
	rates    RateStore
	audit    AuditStore
	users    UserStore
	hub      WalletHub
}

func NewService(txRunner db.TxRunner, wallets WalletStore, txStore TransactionStore, rates RateStore, audit AuditStore, users UserStore, hub WalletHub) *Service {
	return &Service{
		txRunner: txRunner,
		wallets:  wallets,
		txStore:  txStore,
		rates:    rates,
		audit:    audit,
		users:    users,
		hub:      hub,
	}
}

// WalletView is the read-only snapshot handed back to callers after every
// successful operation.
type WalletView struct {
	CashBalance int64
	CoinBalance int64
	GiftBalance int64
}

type TopUpRequest struct {
	UserID string
	Amount int64
	Method string
}

func (s *Service) TopUp(ctx context.Context, req TopUpRequest) (WalletView, string, error) {
	if req.Amount <= 0 {
		return WalletView{}, "", ErrInvalidAmount
	}
	if req.Amount < MinTopUp {
		return WalletView{}, "", ErrAmountBelowMinimum
	}
	if req.Method == "" {
		return WalletView{}, "", ErrMissingDestination
	}
	var view WalletView
	var transactionID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.wallets.GetByUserForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return ErrWalletNotFound
		}
		newCash := wallet.CashBalance + req.Amount
		if err := s.wallets.UpdateBalances(ctx, tx, wallet.ID, newCash, wallet.CoinBalance, wallet.GiftBalance); err != nil {
			return err
		}
		view = WalletView{CashBalance: newCash, CoinBalance: wallet.CoinBalance, GiftBalance: wallet.GiftBalance}
		transactionID = newTransactionID("TRX")
		fee := TopUpFee
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			UserID:      req.UserID,
			Kind:        KindTopUp,
			Status:      StatusCompleted,
			Description: fmt.Sprintf("Top up via %s", req.Method),
			Amount:      req.Amount,
			Fee:         &fee,
			Method:      &req.Method,
			IsCredit:    true,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"amount": req.Amount,
			"method": req.Method,
		})
		return s.audit.Log(ctx, tx, req.UserID, "wallet.topup", "transaction", transactionID, string(data))
	})
	if err != nil {
		return WalletView{}, "", err
	}
	s.broadcast(req.UserID, view)
	return view, transactionID, nil
}

type WithdrawRequest struct {
	UserID        string
	Amount        int64
	BankName      string
	AccountNumber string
}

func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (WalletView, string, error) {
	if req.Amount <= 0 {
		return WalletView{}, "", ErrInvalidAmount
	}
	if req.BankName == "" || req.AccountNumber == "" {
		return WalletView{}, "", ErrMissingDestination
	}
	var view WalletView
	var transactionID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.wallets.GetByUserForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return ErrWalletNotFound
		}
		totalDeduction := req.Amount + WithdrawalFee
		if wallet.CashBalance < totalDeduction {
			return ErrInsufficientBalance
		}
		newCash := wallet.CashBalance - totalDeduction
		if err := s.wallets.UpdateBalances(ctx, tx, wallet.ID, newCash, wallet.CoinBalance, wallet.GiftBalance); err != nil {
			return err
		}
		view = WalletView{CashBalance: newCash, CoinBalance: wallet.CoinBalance, GiftBalance: wallet.GiftBalance}
		transactionID = newTransactionID("WD")
		fee := WithdrawalFee
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			UserID:      req.UserID,
			Kind:        KindWithdrawal,
			Status:      StatusCompleted,
			Description: fmt.Sprintf("Withdrawal to %s (%s)", req.BankName, req.AccountNumber),
			Amount:      req.Amount,
			Fee:         &fee,
			Method:      &req.BankName,
			IsCredit:    false,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"amount": req.Amount,
			"fee":    WithdrawalFee,
			"bank":   req.BankName,
		})
		return s.audit.Log(ctx, tx, req.UserID, "wallet.withdraw", "transaction", transactionID, string(data))
	})
	if err != nil {
		return WalletView{}, "", err
	}
	s.broadcast(req.UserID, view)
	return view, transactionID, nil
}

type CoinRequest struct {
	UserID string
	Coins  int64
}

func (s *Service) BuyCoins(ctx context.Context, req CoinRequest) (WalletView, string, error) {
	if req.Coins <= 0 {
		return WalletView{}, "", ErrInvalidAmount
	}
	var view WalletView
	var transactionID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rate, err := s.rates.GetActive(ctx)
		if err != nil {
			return err
		}
		cost := coinValue(req.Coins, rate)
		wallet, err := s.wallets.GetByUserForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return ErrWalletNotFound
		}
		if wallet.CashBalance < cost {
			return ErrInsufficientBalance
		}
		newCash := wallet.CashBalance - cost
		newCoins := wallet.CoinBalance + req.Coins
		if err := s.wallets.UpdateBalances(ctx, tx, wallet.ID, newCash, newCoins, wallet.GiftBalance); err != nil {
			return err
		}
		view = WalletView{CashBalance: newCash, CoinBalance: newCoins, GiftBalance: wallet.GiftBalance}
		transactionID = newTransactionID("COIN")
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			UserID:      req.UserID,
			Kind:        KindCoinPurchase,
			Status:      StatusCompleted,
			Description: fmt.Sprintf("Purchase of %d coins", req.Coins),
			Amount:      cost,
			IsCredit:    false,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"coins": req.Coins,
			"cost":  cost,
			"rate":  rate,
		})
		return s.audit.Log(ctx, tx, req.UserID, "wallet.buy_coins", "transaction", transactionID, string(data))
	})
	if err != nil {
		return WalletView{}, "", err
	}
	s.broadcast(req.UserID, view)
	return view, transactionID, nil
}

func (s *Service) ExchangeCoins(ctx context.Context, req CoinRequest) (WalletView, string, error) {
	if req.Coins <= 0 {
		return WalletView{}, "", ErrInvalidAmount
	}
	var view WalletView
	var transactionID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rate, err := s.rates.GetActive(ctx)
		if err != nil {
			return err
		}
		value := coinValue(req.Coins, rate)
		wallet, err := s.wallets.GetByUserForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return ErrWalletNotFound
		}
		if wallet.CoinBalance < req.Coins {
			return ErrInsufficientCoins
		}
		newCoins := wallet.CoinBalance - req.Coins
		newCash := wallet.CashBalance + value
		if err := s.wallets.UpdateBalances(ctx, tx, wallet.ID, newCash, newCoins, wallet.GiftBalance); err != nil {
			return err
		}
		view = WalletView{CashBalance: newCash, CoinBalance: newCoins, GiftBalance: wallet.GiftBalance}
		transactionID = newTransactionID("EXC")
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			UserID:      req.UserID,
			Kind:        KindCoinExchange,
			Status:      StatusCompleted,
			Description: fmt.Sprintf("Exchange of %d coins to balance", req.Coins),
			Amount:      value,
			IsCredit:    true,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"coins": req.Coins,
			"value": value,
			"rate":  rate,
		})
		return s.audit.Log(ctx, tx, req.UserID, "wallet.exchange_coins", "transaction", transactionID, string(data))
	})
	if err != nil {
		return WalletView{}, "", err
	}
	s.broadcast(req.UserID, view)
	return view, transactionID, nil
}

type CashOutRequest struct {
	UserID string
}

// CashOutGiftRevenue moves the entire gift balance to cash. Partial cashout is
// not supported.
func (s *Service) CashOutGiftRevenue(ctx context.Context, req CashOutRequest) (WalletView, string, error) {
	var view WalletView
	var transactionID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.wallets.GetByUserForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return ErrWalletNotFound
		}
		if wallet.GiftBalance <= 0 {
			return ErrNoGiftRevenue
		}
		amount := wallet.GiftBalance
		newCash := wallet.CashBalance + amount
		if err := s.wallets.UpdateBalances(ctx, tx, wallet.ID, newCash, wallet.CoinBalance, 0); err != nil {
			return err
		}
		view = WalletView{CashBalance: newCash, CoinBalance: wallet.CoinBalance, GiftBalance: 0}
		transactionID = newTransactionID("GIFT")
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			UserID:      req.UserID,
			Kind:        KindGiftCashout,
			Status:      StatusCompleted,
			Description: "Cashout of live gift revenue",
			Amount:      amount,
			IsCredit:    true,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{"amount": amount})
		return s.audit.Log(ctx, tx, req.UserID, "wallet.gift_cashout", "transaction", transactionID, string(data))
	})
	if err != nil {
		return WalletView{}, "", err
	}
	s.broadcast(req.UserID, view)
	return view, transactionID, nil
}

// SpendCoins debits coins without a history record. Coin spends for gifting
// are kept out of the financial statement; the audit log still captures them.
func (s *Service) SpendCoins(ctx context.Context, req CoinRequest) (WalletView, error) {
	if req.Coins <= 0 {
		return WalletView{}, ErrInvalidAmount
	}
	var view WalletView
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.wallets.GetByUserForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return ErrWalletNotFound
		}
		if wallet.CoinBalance < req.Coins {
			return ErrInsufficientCoins
		}
		newCoins := wallet.CoinBalance - req.Coins
		if err := s.wallets.UpdateBalances(ctx, tx, wallet.ID, wallet.CashBalance, newCoins, wallet.GiftBalance); err != nil {
			return err
		}
		view = WalletView{CashBalance: wallet.CashBalance, CoinBalance: newCoins, GiftBalance: wallet.GiftBalance}
		data, _ := json.Marshal(map[string]any{"coins": req.Coins})
		return s.audit.Log(ctx, tx, req.UserID, "wallet.spend_coins", "wallet", wallet.ID, string(data))
	})
	if err != nil {
		return WalletView{}, err
	}
	s.broadcast(req.UserID, view)
	return view, nil
}

type GiftRequest struct {
	FromUserID string
	ToUsername string
	Coins      int64
}

// SendGift spends the sender's coins and accrues their rupiah value on the
// recipient's gift balance. Like SpendCoins it writes no history record; the
// recipient sees the revenue when they cash it out.
func (s *Service) SendGift(ctx context.Context, req GiftRequest) (WalletView, error) {
	if req.Coins <= 0 {
		return WalletView{}, ErrInvalidAmount
	}
	if req.ToUsername == "" {
		return WalletView{}, ErrMissingDestination
	}
	recipient, err := s.users.GetByUsername(ctx, req.ToUsername)
	if err != nil {
		return WalletView{}, ErrRecipientNotFound
	}
	toUserID, _ := recipient["id"].(string)
	if toUserID == "" {
		return WalletView{}, ErrRecipientNotFound
	}
	if toUserID == req.FromUserID {
		return WalletView{}, ErrSelfGift
	}
	var senderView, recipientView WalletView
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rate, err := s.rates.GetActive(ctx)
		if err != nil {
			return err
		}
		sender, recipientWallet, err := lockTwoWallets(ctx, tx, s.wallets, req.FromUserID, toUserID)
		if err != nil {
			return err
		}
		if sender.CoinBalance < req.Coins {
			return ErrInsufficientCoins
		}
		value := coinValue(req.Coins, rate)
		newSenderCoins := sender.CoinBalance - req.Coins
		newRecipientGift := recipientWallet.GiftBalance + value
		if err := s.wallets.UpdateBalances(ctx, tx, sender.ID, sender.CashBalance, newSenderCoins, sender.GiftBalance); err != nil {
			return err
		}
		if err := s.wallets.UpdateBalances(ctx, tx, recipientWallet.ID, recipientWallet.CashBalance, recipientWallet.CoinBalance, newRecipientGift); err != nil {
			return err
		}
		senderView = WalletView{CashBalance: sender.CashBalance, CoinBalance: newSenderCoins, GiftBalance: sender.GiftBalance}
		recipientView = WalletView{CashBalance: recipientWallet.CashBalance, CoinBalance: recipientWallet.CoinBalance, GiftBalance: newRecipientGift}
		data, _ := json.Marshal(map[string]any{
			"coins": req.Coins,
			"value": value,
			"to":    toUserID,
		})
		return s.audit.Log(ctx, tx, req.FromUserID, "wallet.send_gift", "wallet", recipientWallet.ID, string(data))
	})
	if err != nil {
		return WalletView{}, err
	}
	s.broadcast(req.FromUserID, senderView)
	s.broadcast(toUserID, recipientView)
	return senderView, nil
}

// Snapshot returns the current balances without mutating anything.
func (s *Service) Snapshot(ctx context.Context, userID string) (WalletView, error) {
	wallet, err := s.wallets.GetByUser(ctx, userID)
	if err != nil {
		return WalletView{}, ErrWalletNotFound
	}
	return WalletView{
		CashBalance: wallet.CashBalance,
		CoinBalance: wallet.CoinBalance,
		GiftBalance: wallet.GiftBalance,
	}, nil
}

func (s *Service) broadcast(userID string, view WalletView) {
	s.hub.BroadcastWallet(userID, websocket.WalletUpdate{
		CashBalance: view.CashBalance,
		CoinBalance: view.CoinBalance,
		GiftBalance: view.GiftBalance,
	})
}

func coinValue(coins, rate int64) int64 {
	return decimal.NewFromInt(coins).Mul(decimal.NewFromInt(rate)).IntPart()
}

func newTransactionID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func lockTwoWallets(ctx context.Context, tx store.Getter, wallets WalletStore, firstUserID, secondUserID string) (store.Wallet, store.Wallet, error) {
	leftID, rightID := orderedIDs(firstUserID, secondUserID)
	leftWallet, err := wallets.GetByUserForUpdate(ctx, tx, leftID)
	if err != nil {
		return store.Wallet{}, store.Wallet{}, ErrWalletNotFound
	}
	rightWallet, err := wallets.GetByUserForUpdate(ctx, tx, rightID)
	if err != nil {
		return store.Wallet{}, store.Wallet{}, ErrWalletNotFound
	}
	if firstUserID == leftID {
		return leftWallet, rightWallet, nil
	}
	return rightWallet, leftWallet, nil
}

func orderedIDs(firstID, secondID string) (string, string) {
	if firstID <= secondID {
		return firstID, secondID
	}
	return secondID, firstID
}
