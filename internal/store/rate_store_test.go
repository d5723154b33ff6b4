package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestRateStoreGetActive(t *testing.T) {
	db := stubDB{
		getFn: func(ctx context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE is_active = TRUE") {
				t.Fatalf("unexpected query: %s", query)
			}
			row := dest.(*coinRateRow)
			row.ID = "RATE-1"
			row.Rate = 1000
			return nil
		},
	}
	s := NewRateStore(db)

	rate, err := s.GetActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 1000 {
		t.Fatalf("expected 1000, got %d", rate)
	}
}

func TestRateStoreSetRateDeactivatesPrevious(t *testing.T) {
	var updateQuery string
	var updateArgs []any
	tx := stubTx{
		getFn: func(ctx context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "INSERT INTO coin_rates") {
				t.Fatalf("unexpected insert: %s", query)
			}
			if len(args) != 2 || args[0] != int64(1500) || args[1] != "ADM-1" {
				t.Fatalf("unexpected args: %v", args)
			}
			*dest.(*string) = "RATE-2"
			return nil
		},
		execFn: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			updateQuery = query
			updateArgs = args
			return stubResult{rows: 1}, nil
		},
	}
	s := NewRateStore(stubDB{})

	id, err := s.SetRate(context.Background(), tx, 1500, "ADM-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "RATE-2" {
		t.Fatalf("expected new rate id, got %s", id)
	}
	if !strings.Contains(updateQuery, "SET is_active = FALSE") {
		t.Fatalf("previous rates should be deactivated: %s", updateQuery)
	}
	if len(updateArgs) != 1 || updateArgs[0] != "RATE-2" {
		t.Fatalf("unexpected update args: %v", updateArgs)
	}
}

func TestRateStoreSetRateInsertFailure(t *testing.T) {
	wantErr := errors.New("insert failed")
	tx := stubTx{
		getFn: func(ctx context.Context, dest any, query string, args ...any) error {
			return wantErr
		},
		execFn: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			t.Fatal("deactivation should not run after a failed insert")
			return nil, nil
		},
	}
	s := NewRateStore(stubDB{})

	_, err := s.SetRate(context.Background(), tx, 1500, "ADM-1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected insert error, got %v", err)
	}
}
