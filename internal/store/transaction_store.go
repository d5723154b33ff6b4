package store

import (
	"context"
	"fmt"
)

type TransactionStore struct {
	db DB
}

type transactionRow struct {
	ID          string  `db:"id"`
	UserID      string  `db:"user_id"`
	Username    *string `db:"username"`
	Kind        string  `db:"kind"`
	Status      string  `db:"status"`
	Description string  `db:"description"`
	Amount      int64   `db:"amount"`
	Fee         *int64  `db:"fee"`
	Method      *string `db:"method"`
	IsCredit    bool    `db:"is_credit"`
	CreatedAt   any     `db:"created_at"`
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID          string
	UserID      string
	Kind        string
	Status      string
	Description string
	Amount      int64
	Fee         *int64
	Method      *string
	IsCredit    bool
}

// Create appends one history record. Rows are never updated or deleted; the
// schema has no UPDATE path for this table.
func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, user_id, kind, status, description, amount, fee, method, is_credit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.Kind, input.Status, input.Description,
		input.Amount, input.Fee, input.Method, input.IsCredit,
	)
	return err
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID, kind string, limit, offset int) ([]map[string]any, error) {
	var rows []transactionRow
	query := `
		SELECT t.id, t.user_id, u.username, t.kind, t.status, t.description,
		       t.amount, t.fee, t.method, t.is_credit, t.created_at
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE t.user_id = $1
	`
	args := []any{userID}
	param := 2
	if kind != "" {
		query += " AND t.kind = $2"
		args = append(args, kind)
		param = 3
	}
	query += " ORDER BY t.created_at DESC LIMIT $" + itoa(param) + " OFFSET $" + itoa(param+1)
	args = append(args, limit, offset)
	err := s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}
	return transactionRowsToMaps(rows), nil
}

func (s *TransactionStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1) FROM transactions WHERE user_id = $1
	`, userID)
	return count, err
}

func (s *TransactionStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	var rows []transactionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.id, t.user_id, u.username, t.kind, t.status, t.description,
		       t.amount, t.fee, t.method, t.is_credit, t.created_at
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return transactionRowsToMaps(rows), nil
}

func itoa(value int) string {
	return fmt.Sprintf("%d", value)
}

func transactionRowsToMaps(rows []transactionRow) []map[string]any {
	maps := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		entry := map[string]any{
			"id":          row.ID,
			"user_id":     row.UserID,
			"username":    derefStringPtr(row.Username),
			"kind":        row.Kind,
			"status":      row.Status,
			"description": row.Description,
			"amount":      row.Amount,
			"is_credit":   row.IsCredit,
			"created_at":  row.CreatedAt,
		}
		if row.Fee != nil {
			entry["fee"] = *row.Fee
		}
		if row.Method != nil {
			entry["method"] = *row.Method
		}
		maps = append(maps, entry)
	}
	return maps
}

func derefStringPtr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
