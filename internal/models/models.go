package models

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	Role         string    `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Wallet struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	CashBalance int64     `db:"cash_balance" json:"cash_balance"`
	CoinBalance int64     `db:"coin_balance" json:"coin_balance"`
	GiftBalance int64     `db:"gift_balance" json:"gift_balance"`
	OpeningCash int64     `db:"opening_cash" json:"opening_cash"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Transaction struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Kind        string    `db:"kind" json:"kind"`
	Status      string    `db:"status" json:"status"`
	Description string    `db:"description" json:"description"`
	Amount      int64     `db:"amount" json:"amount"`
	Fee         *int64    `db:"fee" json:"fee,omitempty"`
	Method      *string   `db:"method" json:"method,omitempty"`
	IsCredit    bool      `db:"is_credit" json:"is_credit"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type CoinRate struct {
	ID        string     `db:"id" json:"id"`
	Rate      int64      `db:"rate" json:"rate"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
