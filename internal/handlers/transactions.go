package handlers

import (
	"net/http"

	"kodik/internal/middleware"
)

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	query := r.URL.Query()
	kind := query.Get("kind")
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 20)
	offset := (page - 1) * limit
	transactions, err := h.transactions.ListByUser(r.Context(), userID, kind, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, normalizeTransactions(transactions))
}

func normalizeTransactions(rows []map[string]any) []map[string]any {
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		entry := map[string]any{
			"id":               valueToString(row["id"]),
			"user_id":          valueToString(row["user_id"]),
			"username":         valueToString(row["username"]),
			"kind":             valueToString(row["kind"]),
			"status":           valueToString(row["status"]),
			"description":      valueToString(row["description"]),
			"amount":           row["amount"],
			"amount_formatted": valueToMoney(row["amount"]),
			"is_credit":        row["is_credit"],
			"created_at":       row["created_at"],
		}
		if fee, ok := row["fee"]; ok {
			entry["fee"] = fee
			entry["fee_formatted"] = valueToMoney(fee)
		}
		if method, ok := row["method"]; ok {
			entry["method"] = valueToString(method)
		}
		normalized = append(normalized, entry)
	}
	return normalized
}
