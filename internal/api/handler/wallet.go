// internal/api/handler/wallet.go
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"xr-wallet/internal/api/middleware"
	"xr-wallet/internal/api/types"
	"xr-wallet/internal/domain"
	"xr-wallet/internal/service"
	"xr-wallet/internal/util" // For custom errors
)

// DefaultTimeout bounds every request handled by the router.
const DefaultTimeout = 30 * time.Second

const (
	defaultWindowDays = 30
	maxWindowDays     = 365
)

// WalletHandler handles HTTP requests related to wallet operations.
type WalletHandler struct {
	service service.WalletService
	logger  *slog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		service: svc,
		logger:  logger,
	}
}

// Helper function to send error responses.
func (h *WalletHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error() // Use the error message directly for invalid input
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusBadRequest
		message = "Insufficient funds"
	case util.IsError(err, util.ErrSameWalletTransfer):
		statusCode = http.StatusBadRequest
		message = "Cannot transfer to the same wallet"
	case util.IsError(err, util.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		message = "Unauthorized"
	case util.IsError(err, util.ErrWalletSuspended):
		statusCode = http.StatusForbidden
		message = "Wallet is suspended"
	case util.IsError(err, util.ErrForbidden):
		statusCode = http.StatusForbidden
		message = "Not allowed to access this wallet"
	case util.IsError(err, util.ErrWalletNotFound):
		statusCode = http.StatusNotFound
		message = "Wallet not found"
	case util.IsError(err, util.ErrConflict):
		statusCode = http.StatusConflict
		message = "Resource already exists or was modified concurrently"
	case util.IsError(err, util.ErrStorageUnavailable):
		statusCode = http.StatusServiceUnavailable
		message = "Storage unavailable, try again later"
		h.logger.Error("Storage failure", "error", err)
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	types.Error(w, statusCode, message)
}

// requester returns the authenticated caller or writes 401.
func (h *WalletHandler) requester(w http.ResponseWriter, r *http.Request) (domain.Requester, bool) {
	requester, ok := middleware.RequesterFrom(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthorized)
	}
	return requester, ok
}

func (h *WalletHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return false
	}
	return true
}

// CreateWalletRequest represents the request body for wallet creation.
type CreateWalletRequest struct {
	OwnerID string `json:"ownerId"`
}

// CreateWallet opens a wallet.
// POST /wallets
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	// The body is optional; an empty one means "my own wallet"
	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	wallet, err := h.service.CreateWallet(r.Context(), requester, req.OwnerID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusCreated, "Wallet created", wallet)
}

// GetMyWallet returns the requester's own wallet.
// GET /wallets/me
func (h *WalletHandler) GetMyWallet(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	wallet, err := h.service.GetMyWallet(r.Context(), requester)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "", wallet)
}

// GetWallet returns a wallet.
// GET /wallets/{walletID}
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	wallet, err := h.service.GetWallet(r.Context(), requester, chi.URLParam(r, "walletID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "", wallet)
}

// DepositRequest represents the request body for deposit.
type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`
	ExternalRef string          `json:"externalRef"`
}

// Deposit handles the deposit request.
// POST /wallets/{walletID}/deposit
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req DepositRequest
	if !h.decode(w, r, &req) {
		return
	}

	details := domain.DepositDetails{Source: req.Source, ExternalRef: req.ExternalRef}
	wallet, transaction, err := h.service.Deposit(r.Context(), requester, chi.URLParam(r, "walletID"), req.Amount, details)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "Deposit successful", types.WalletMutation{Wallet: wallet, Transaction: transaction})
}

// WithdrawRequest represents the request body for withdraw.
type WithdrawRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	DestinationAddress string          `json:"destinationAddress"`
}

// Withdraw handles the withdraw request.
// POST /wallets/{walletID}/withdraw
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req WithdrawRequest
	if !h.decode(w, r, &req) {
		return
	}

	wallet, transaction, err := h.service.Withdraw(r.Context(), requester, chi.URLParam(r, "walletID"), req.Amount, req.DestinationAddress)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "Withdrawal submitted", types.WalletMutation{Wallet: wallet, Transaction: transaction})
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	RecipientWalletID string          `json:"recipientWalletId"`
	RecipientAddress  string          `json:"recipientAddress"`
}

// Transfer handles the transfer request.
// POST /wallets/{walletID}/transfer
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	wallet, transaction, err := h.service.Transfer(r.Context(), requester, service.TransferRequest{
		SourceWalletID:    chi.URLParam(r, "walletID"),
		RecipientWalletID: req.RecipientWalletID,
		RecipientAddress:  req.RecipientAddress,
		Amount:            req.Amount,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "Transfer successful", types.WalletMutation{Wallet: wallet, Transaction: transaction})
}

// PurchaseRequest represents the request body for a marketplace purchase.
type PurchaseRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	SellerWalletID string          `json:"sellerWalletId"`
	ItemID         string          `json:"itemId"`
}

// Purchase pays a seller for an item.
// POST /wallets/{walletID}/purchases
func (h *WalletHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req PurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}

	wallet, transaction, err := h.service.Purchase(r.Context(), requester, service.PurchaseRequest{
		BuyerWalletID:  chi.URLParam(r, "walletID"),
		SellerWalletID: req.SellerWalletID,
		ItemID:         req.ItemID,
		Amount:         req.Amount,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "Purchase successful", types.WalletMutation{Wallet: wallet, Transaction: transaction})
}

// ListingRequest represents the request body for listing an item.
type ListingRequest struct {
	ItemID string `json:"itemId"`
}

// ListItem records a marketplace listing.
// POST /wallets/{walletID}/listings
func (h *WalletHandler) ListItem(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req ListingRequest
	if !h.decode(w, r, &req) {
		return
	}

	transaction, err := h.service.ListItem(r.Context(), requester, chi.URLParam(r, "walletID"), req.ItemID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusCreated, "Item listed", transaction)
}

// LinkAccountRequest represents the request body for linking an external account.
type LinkAccountRequest struct {
	Address string `json:"address"`
	Type    string `json:"type"`
}

// LinkExternalAccount connects an external blockchain address.
// POST /wallets/{walletID}/linked-accounts
func (h *WalletHandler) LinkExternalAccount(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req LinkAccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	wallet, err := h.service.LinkExternalAccount(r.Context(), requester, chi.URLParam(r, "walletID"), req.Address, req.Type)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "External account linked", wallet)
}

// UpdateBalanceRequest represents the request body for an admin balance correction.
type UpdateBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// UpdateBalance applies an admin correction.
// PUT /wallets/{walletID}/balance
func (h *WalletHandler) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req UpdateBalanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	wallet, err := h.service.UpdateBalance(r.Context(), requester, chi.URLParam(r, "walletID"), req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "Balance updated", wallet)
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status domain.WalletStatus `json:"status"`
}

// UpdateStatus suspends or reactivates a wallet.
// PUT /wallets/{walletID}/status
func (h *WalletHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	wallet, err := h.service.SetStatus(r.Context(), requester, chi.URLParam(r, "walletID"), req.Status)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "Status updated", wallet)
}

// DeleteOwnerWallet removes a user's wallet during account deletion.
// DELETE /users/{ownerID}/wallet
func (h *WalletHandler) DeleteOwnerWallet(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteWalletForOwner(r.Context(), requester, chi.URLParam(r, "ownerID")); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTransactionHistory handles the get transaction history request.
// GET /wallets/{walletID}/transactions?page&limit
func (h *WalletHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}

	// Parse query parameters for pagination
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, limit = service.NormalizePage(page, limit)

	transactions, total, err := h.service.GetTransactionHistory(r.Context(), requester, chi.URLParam(r, "walletID"), page, limit)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	types.JSON(w, http.StatusOK, "", types.TransactionPage{
		Transactions: transactions,
		Pagination:   types.NewPagination(total, page, limit),
	})
}

// GetRecentTransactions lists the entries of the last ?days days (30 by default).
// GET /wallets/{walletID}/transactions/recent
func (h *WalletHandler) GetRecentTransactions(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	transactions, err := h.service.GetRecentTransactions(r.Context(), requester, chi.URLParam(r, "walletID"), windowParam(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "", transactions)
}

// GetTransactionStats counts the entries of the last ?days days by type.
// GET /wallets/{walletID}/transactions/stats
func (h *WalletHandler) GetTransactionStats(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	stats, err := h.service.GetTransactionStats(r.Context(), requester, chi.URLParam(r, "walletID"), windowParam(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	types.JSON(w, http.StatusOK, "", stats)
}

func windowParam(r *http.Request) time.Duration {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		days = defaultWindowDays
	}
	if days > maxWindowDays {
		days = maxWindowDays
	}
	return time.Duration(days) * 24 * time.Hour
}
