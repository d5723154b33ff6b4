package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"kodik/internal/auth"
	"kodik/internal/ledger"
	"kodik/internal/middleware"
	"kodik/internal/validator"
	"kodik/internal/websocket"
)

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	view, err := h.service.Snapshot(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "wallet not found")
		return
	}
	respondJSON(w, http.StatusOK, walletPayload(view))
}

func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summary, err := h.wallets.CashSummary(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to self_check")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"wallet_id":     summary.WalletID,
		"stored_cash":   valueToMoney(summary.StoredCash),
		"computed_cash": valueToMoney(summary.ComputedCash),
		"difference":    valueToMoney(summary.Difference),
	})
}

type topUpRequest struct {
	Amount string `json:"amount"`
	Method string `json:"method"`
}

func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	view, transactionID, err := h.service.TopUp(r.Context(), ledger.TopUpRequest{
		UserID: userID,
		Amount: amount,
		Method: strings.TrimSpace(req.Method),
	})
	if err != nil {
		respondLedgerError(w, err, "topup_failed")
		return
	}
	respondJSON(w, http.StatusCreated, walletResponse(view, transactionID))
}

type withdrawRequest struct {
	Amount        string `json:"amount"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	if err := validator.ValidateAccountNumber(req.AccountNumber); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_account_number")
		return
	}
	view, transactionID, err := h.service.Withdraw(r.Context(), ledger.WithdrawRequest{
		UserID:        userID,
		Amount:        amount,
		BankName:      strings.TrimSpace(req.BankName),
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		respondLedgerError(w, err, "withdrawal_failed")
		return
	}
	respondJSON(w, http.StatusCreated, walletResponse(view, transactionID))
}

type coinRequest struct {
	Coins int64 `json:"coins"`
}

func (h *Handler) BuyCoins(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req coinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	coins, err := parseCoins(req.Coins)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_coin_amount")
		return
	}
	view, transactionID, err := h.service.BuyCoins(r.Context(), ledger.CoinRequest{UserID: userID, Coins: coins})
	if err != nil {
		respondLedgerError(w, err, "coin_purchase_failed")
		return
	}
	respondJSON(w, http.StatusCreated, walletResponse(view, transactionID))
}

func (h *Handler) ExchangeCoins(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req coinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	coins, err := parseCoins(req.Coins)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_coin_amount")
		return
	}
	view, transactionID, err := h.service.ExchangeCoins(r.Context(), ledger.CoinRequest{UserID: userID, Coins: coins})
	if err != nil {
		respondLedgerError(w, err, "coin_exchange_failed")
		return
	}
	respondJSON(w, http.StatusCreated, walletResponse(view, transactionID))
}

func (h *Handler) SpendCoins(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req coinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	coins, err := parseCoins(req.Coins)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_coin_amount")
		return
	}
	view, err := h.service.SpendCoins(r.Context(), ledger.CoinRequest{UserID: userID, Coins: coins})
	if err != nil {
		respondLedgerError(w, err, "coin_spend_failed")
		return
	}
	respondJSON(w, http.StatusOK, walletPayload(view))
}

type giftRequest struct {
	ToUsername string `json:"to_username"`
	Coins      int64  `json:"coins"`
}

func (h *Handler) SendGift(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req giftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	coins, err := parseCoins(req.Coins)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_coin_amount")
		return
	}
	view, err := h.service.SendGift(r.Context(), ledger.GiftRequest{
		FromUserID: userID,
		ToUsername: strings.TrimSpace(req.ToUsername),
		Coins:      coins,
	})
	if err != nil {
		respondLedgerError(w, err, "gift_failed")
		return
	}
	respondJSON(w, http.StatusOK, walletPayload(view))
}

func (h *Handler) CashOutGiftRevenue(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	view, transactionID, err := h.service.CashOutGiftRevenue(r.Context(), ledger.CashOutRequest{UserID: userID})
	if err != nil {
		respondLedgerError(w, err, "cashout_failed")
		return
	}
	respondJSON(w, http.StatusCreated, walletResponse(view, transactionID))
}

func (h *Handler) GetCoinRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.GetActive(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load rate")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"rate":           rate,
		"rate_formatted": valueToMoney(rate),
	})
}

func (h *Handler) WSWallet(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}

func walletPayload(view ledger.WalletView) map[string]any {
	return map[string]any{
		"cash_balance":           view.CashBalance,
		"cash_balance_formatted": valueToMoney(view.CashBalance),
		"coin_balance":           view.CoinBalance,
		"gift_balance":           view.GiftBalance,
		"gift_balance_formatted": valueToMoney(view.GiftBalance),
	}
}

func walletResponse(view ledger.WalletView, transactionID string) map[string]any {
	payload := walletPayload(view)
	payload["transaction_id"] = transactionID
	return payload
}

func respondLedgerError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case ledger.ErrInvalidAmount:
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case ledger.ErrAmountBelowMinimum:
		respondError(w, http.StatusBadRequest, "amount_below_minimum")
	case ledger.ErrMissingDestination:
		respondError(w, http.StatusBadRequest, "missing_destination")
	case ledger.ErrInsufficientBalance:
		respondError(w, http.StatusBadRequest, "insufficient_balance")
	case ledger.ErrInsufficientCoins:
		respondError(w, http.StatusBadRequest, "insufficient_coins")
	case ledger.ErrNoGiftRevenue:
		respondError(w, http.StatusBadRequest, "no_gift_revenue")
	case ledger.ErrWalletNotFound:
		respondError(w, http.StatusNotFound, "wallet_not_found")
	case ledger.ErrRecipientNotFound:
		respondError(w, http.StatusNotFound, "recipient_not_found")
	case ledger.ErrSelfGift:
		respondError(w, http.StatusBadRequest, "self_gift_not_allowed")
	default:
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
