package store

import "context"

type WalletStore struct {
	db DB
}

type Wallet struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	CashBalance int64  `db:"cash_balance"`
	CoinBalance int64  `db:"coin_balance"`
	GiftBalance int64  `db:"gift_balance"`
	OpeningCash int64  `db:"opening_cash"`
	CreatedAt   any    `db:"created_at"`
}

// WalletCashSummary compares the stored cash balance with the balance implied
// by the opening amount plus the signed sum of recorded transactions.
type WalletCashSummary struct {
	WalletID      string `db:"wallet_id"`
	StoredCash    int64  `db:"stored_cash"`
	ComputedCash  int64  `db:"computed_cash"`
	Difference    int64  `db:"difference"`
	CoinBalance   int64  `db:"coin_balance"`
	GiftBalance   int64  `db:"gift_balance"`
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) Create(ctx context.Context, tx Execer, id, userID string, cash, coins, gift int64) error {
	query := `
		INSERT INTO wallets (id, user_id, cash_balance, coin_balance, gift_balance, opening_cash)
		VALUES ($1, $2, $3, $4, $5, $3)
	`
	_, err := tx.ExecContext(ctx, query, id, userID, cash, coins, gift)
	return err
}

func (s *WalletStore) GetByUser(ctx context.Context, userID string) (Wallet, error) {
	var row Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, cash_balance, coin_balance, gift_balance, opening_cash, created_at
		FROM wallets
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) GetByUserForUpdate(ctx context.Context, tx Getter, userID string) (Wallet, error) {
	var row Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, cash_balance, coin_balance, gift_balance, opening_cash
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) UpdateBalances(ctx context.Context, tx Execer, walletID string, cash, coins, gift int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET cash_balance = $1, coin_balance = $2, gift_balance = $3, updated_at = NOW()
		WHERE id = $4
	`, cash, coins, gift, walletID)
	return err
}

// CashSummary reconciles the cash balance against the transaction history.
// Every cash mutation writes a transaction row (coin spends touch coins only),
// so stored and computed cash must agree: credits add the amount, debits
// subtract amount plus fee. The top-up fee is informational and never
// deducted, which the credit branch reflects by ignoring it.
func (s *WalletStore) CashSummary(ctx context.Context, userID string) (WalletCashSummary, error) {
	var row WalletCashSummary
	err := s.db.GetContext(ctx, &row, `
		SELECT w.id AS wallet_id,
		       w.cash_balance AS stored_cash,
		       w.opening_cash + COALESCE(SUM(
		           CASE WHEN t.is_credit THEN t.amount
		                ELSE -(t.amount + COALESCE(t.fee, 0))
		           END), 0) AS computed_cash,
		       w.cash_balance - (w.opening_cash + COALESCE(SUM(
		           CASE WHEN t.is_credit THEN t.amount
		                ELSE -(t.amount + COALESCE(t.fee, 0))
		           END), 0)) AS difference,
		       w.coin_balance,
		       w.gift_balance
		FROM wallets w
		LEFT JOIN transactions t ON t.user_id = w.user_id
		WHERE w.user_id = $1
		GROUP BY w.id, w.cash_balance, w.opening_cash, w.coin_balance, w.gift_balance
	`, userID)
	if err != nil {
		return WalletCashSummary{}, err
	}
	return row, nil
}
