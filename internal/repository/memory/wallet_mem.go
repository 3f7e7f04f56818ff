// internal/repository/memory/wallet_mem.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"xr-wallet/internal/domain"
	"xr-wallet/internal/repository"
	"xr-wallet/internal/util"

	"github.com/shopspring/decimal"
)

// WalletRepository is an in-process repository.WalletRepository. It applies the
// same rules as the PostgreSQL schema: one wallet per owner, a non-negative
// balance and a version check on balance writes.
type WalletRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Wallet
	byOwner map[string]string
}

// NewWalletRepository creates an empty WalletRepository.
func NewWalletRepository() repository.WalletRepository {
	return &WalletRepository{
		byID:    make(map[string]*domain.Wallet),
		byOwner: make(map[string]string),
	}
}

func (r *WalletRepository) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOwner[wallet.OwnerID]; exists {
		return fmt.Errorf("create wallet for owner %s: %w", wallet.OwnerID, util.ErrConflict)
	}
	if _, exists := r.byID[wallet.ID]; exists {
		return fmt.Errorf("create wallet %s: %w", wallet.ID, util.ErrConflict)
	}
	r.byID[wallet.ID] = wallet.Clone()
	r.byOwner[wallet.OwnerID] = wallet.ID
	return nil
}

func (r *WalletRepository) GetWalletByID(ctx context.Context, id string) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.byID[id]
	if !ok {
		return nil, util.ErrWalletNotFound
	}
	return w.Clone(), nil
}

func (r *WalletRepository) GetWalletByOwnerID(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOwner[ownerID]
	if !ok {
		return nil, util.ErrWalletNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *WalletRepository) UpdateWalletBalance(ctx context.Context, walletID string, newBalance decimal.Decimal, expectedVersion int64) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.byID[walletID]
	if !ok || w.Version != expectedVersion {
		return nil, fmt.Errorf("update balance for wallet %s: %w", walletID, util.ErrVersionConflict)
	}
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("update balance for wallet %s: %w", walletID, util.ErrInsufficientFunds)
	}
	w.Balance = newBalance
	r.touch(w)
	return w.Clone(), nil
}

func (r *WalletRepository) UpdateWalletStatus(ctx context.Context, walletID string, status domain.WalletStatus) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.byID[walletID]
	if !ok {
		return nil, util.ErrWalletNotFound
	}
	w.Status = status
	r.touch(w)
	return w.Clone(), nil
}

func (r *WalletRepository) AddLinkedAccount(ctx context.Context, walletID string, account domain.LinkedAccount) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.byID[walletID]
	if !ok {
		return nil, util.ErrWalletNotFound
	}
	if w.LinkedAccounts.Has(account.Address) {
		return nil, fmt.Errorf("link account %s to wallet %s: %w", account.Address, walletID, util.ErrConflict)
	}
	w.LinkedAccounts = append(w.LinkedAccounts, account)
	r.touch(w)
	return w.Clone(), nil
}

func (r *WalletRepository) DeleteWalletByOwnerID(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byOwner[ownerID]
	if !ok {
		return util.ErrWalletNotFound
	}
	delete(r.byOwner, ownerID)
	delete(r.byID, id)
	return nil
}

// touch must be called with mu held.
func (r *WalletRepository) touch(w *domain.Wallet) {
	w.Version++
	w.UpdatedAt = time.Now().UTC()
}
