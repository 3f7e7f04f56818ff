// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"xr-wallet/internal/api/handler"
	"xr-wallet/internal/api/types"
)

// NewRouter sets up and returns a new HTTP router. auth guards every route
// except the health check.
func NewRouter(walletHandler *handler.WalletHandler, auth func(http.Handler) http.Handler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		types.JSON(w, http.StatusOK, "OK", nil)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth)

		// Wallet API routes
		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", walletHandler.CreateWallet)
			r.Get("/me", walletHandler.GetMyWallet)

			r.Route("/{walletID}", func(r chi.Router) {
				r.Get("/", walletHandler.GetWallet)
				r.Post("/deposit", walletHandler.Deposit)
				r.Post("/withdraw", walletHandler.Withdraw)
				r.Post("/transfer", walletHandler.Transfer)
				r.Post("/purchases", walletHandler.Purchase)
				r.Post("/listings", walletHandler.ListItem)
				r.Post("/linked-accounts", walletHandler.LinkExternalAccount)
				r.Put("/balance", walletHandler.UpdateBalance)
				r.Put("/status", walletHandler.UpdateStatus)
				r.Get("/transactions", walletHandler.GetTransactionHistory)
				r.Get("/transactions/recent", walletHandler.GetRecentTransactions)
				r.Get("/transactions/stats", walletHandler.GetTransactionStats)
			})
		})

		// Account deletion cascade, called by the user service
		r.Delete("/users/{ownerID}/wallet", walletHandler.DeleteOwnerWallet)
	})

	logger.Debug("Router configured", "allowed_origins", allowedOrigins)
	return r
}
