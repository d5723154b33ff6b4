package handlers

import (
	"errors"
	"strconv"

	"kodik/internal/money"
)

var errInvalidAmount = errors.New("invalid amount")
var errInvalidCoinAmount = errors.New("invalid coin amount")
var errInvalidRate = errors.New("invalid rate")

func parseAmount(raw string) (int64, error) {
	amount, err := money.ParseAmount(raw)
	if err != nil || amount <= 0 {
		return 0, errInvalidAmount
	}
	return amount, nil
}

func parseCoins(raw int64) (int64, error) {
	if raw <= 0 {
		return 0, errInvalidCoinAmount
	}
	return raw, nil
}

func parseRateValue(raw string) (int64, error) {
	rate, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || rate <= 0 {
		return 0, errInvalidRate
	}
	return rate, nil
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
