package handlers

import (
	"net/http"

	"kodik/internal/config"
	"kodik/internal/db"
	"kodik/internal/middleware"
	"kodik/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	users        UserStore
	wallets      WalletStore
	transactions TransactionStore
	rates        RateStore
	admin        AdminStore
	audit        AuditStore
	service      LedgerService
	hub          *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, wallets WalletStore, transactions TransactionStore, rates RateStore, admin AdminStore, audit AuditStore, service LedgerService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:     txRunner,
		cfg:          cfg,
		users:        users,
		wallets:      wallets,
		transactions: transactions,
		rates:        rates,
		admin:        admin,
		audit:        audit,
		service:      service,
		hub:          hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Post("/logout", h.Logout)
	})
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/wallet", h.GetWallet)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/wallet/self-check", h.SelfCheck)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/wallet/topup", h.TopUp)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/wallet/withdraw", h.Withdraw)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/wallet/coins/buy", h.BuyCoins)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/wallet/coins/exchange", h.ExchangeCoins)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/wallet/coins/spend", h.SpendCoins)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/wallet/gift", h.SendGift)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/wallet/gift-revenue/cashout", h.CashOutGiftRevenue)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/wallet/rate", h.GetCoinRate)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/transactions", h.ListTransactions)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/users/username/{username}", h.GetUserByUsername)
	router.Get("/ws/wallet", h.WSWallet)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireAdmin(h.admin))
		r.Get("/users", h.AdminListUsers)
		r.Get("/transactions", h.AdminListTransactions)
		r.Get("/audit", h.ListAuditLogs)
		r.Post("/rate", h.SetCoinRate)
		r.Post("/promote", h.PromoteAdmin)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
