package store

import "context"

// RateStore holds the coin exchange rate in rupiah per coin. One rate serves
// both directions (purchase and exchange use the identical price, no spread),
// which keeps the buy/sell round trip exact.
type RateStore struct {
	db DB
}

type coinRateRow struct {
	ID        string `db:"id"`
	Rate      int64  `db:"rate"`
	CreatedAt any    `db:"created_at"`
}

func NewRateStore(db DB) *RateStore {
	return &RateStore{db: db}
}

func (s *RateStore) GetActive(ctx context.Context) (int64, error) {
	var row coinRateRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, rate, created_at
		FROM coin_rates
		WHERE is_active = TRUE
	`)
	if err != nil {
		return 0, err
	}
	return row.Rate, nil
}

func (s *RateStore) SetRate(ctx context.Context, tx Tx, rate int64, actorID string) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id, `
		INSERT INTO coin_rates (id, rate, is_active, created_by)
		VALUES (gen_random_uuid()::text, $1, TRUE, $2)
		RETURNING id
	`, rate, actorID)
	if err != nil {
		return "", err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE coin_rates
		SET is_active = FALSE, deleted_at = NOW()
		WHERE id <> $1 AND is_active = TRUE
	`, id)
	if err != nil {
		return "", err
	}
	return id, nil
}
