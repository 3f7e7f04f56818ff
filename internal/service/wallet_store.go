// internal/service/wallet_store.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"xr-wallet/internal/domain"
	"xr-wallet/internal/repository"
	"xr-wallet/internal/util"

	"github.com/shopspring/decimal"
)

// DefaultBalanceMaxRetries bounds the optimistic retry loop when no value is configured.
const DefaultBalanceMaxRetries = 5

// WalletStore owns wallet records and is the only writer of wallet balances.
type WalletStore interface {
	CreateWallet(ctx context.Context, requester domain.Requester, ownerID string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, walletID string, requester domain.Requester) (*domain.Wallet, error)
	GetWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error)
	// FindWallet looks a wallet up without an ownership check. Used for counterparties.
	FindWallet(ctx context.Context, walletID string) (*domain.Wallet, error)
	// AdjustBalance applies delta to an active wallet. The read-modify-write is
	// serialized per wallet and fails with util.ErrInsufficientFunds if the
	// result would be negative.
	AdjustBalance(ctx context.Context, walletID string, delta decimal.Decimal) (*domain.Wallet, error)
	// Compensate applies delta like AdjustBalance but ignores the wallet status.
	// It exists to undo a leg that was already applied.
	Compensate(ctx context.Context, walletID string, delta decimal.Decimal) (*domain.Wallet, error)
	LinkExternalAccount(ctx context.Context, walletID string, requester domain.Requester, address, accountType string) (*domain.Wallet, error)
	SetStatus(ctx context.Context, walletID string, requester domain.Requester, status domain.WalletStatus) (*domain.Wallet, error)
	DeleteWalletForOwner(ctx context.Context, requester domain.Requester, ownerID string) error
}

type walletStore struct {
	walletRepo repository.WalletRepository
	locks      *keyedMutex
	maxRetries int
	logger     *slog.Logger
}

// NewWalletStore creates a WalletStore. maxRetries below 1 falls back to DefaultBalanceMaxRetries.
func NewWalletStore(walletRepo repository.WalletRepository, maxRetries int, logger *slog.Logger) WalletStore {
	if maxRetries < 1 {
		maxRetries = DefaultBalanceMaxRetries
	}
	return &walletStore{
		walletRepo: walletRepo,
		locks:      newKeyedMutex(),
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// CreateWallet opens the single wallet of ownerID. An empty ownerID means the
// requester; only admins may open a wallet for somebody else.
func (s *walletStore) CreateWallet(ctx context.Context, requester domain.Requester, ownerID string) (*domain.Wallet, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		ownerID = requester.UserID
	}
	if ownerID == "" {
		return nil, fmt.Errorf("create wallet: owner is required: %w", util.ErrInvalidInput)
	}
	if ownerID != requester.UserID && !requester.IsAdmin {
		return nil, fmt.Errorf("create wallet for %s: %w", ownerID, util.ErrForbidden)
	}

	wallet := domain.NewWallet(ownerID)
	if err := s.walletRepo.CreateWallet(ctx, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	s.logger.Info("Wallet created", "wallet_id", wallet.ID, "owner_id", ownerID)
	return wallet, nil
}

// GetWallet returns the wallet if the requester owns it or is an admin.
func (s *walletStore) GetWallet(ctx context.Context, walletID string, requester domain.Requester) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("get wallet %s: %w", walletID, err)
	}
	if !wallet.CanBeAccessedBy(requester) {
		return nil, fmt.Errorf("get wallet %s: %w", walletID, util.ErrForbidden)
	}
	return wallet, nil
}

func (s *walletStore) GetWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	if ownerID == "" {
		return nil, util.ErrUnauthorized
	}
	wallet, err := s.walletRepo.GetWalletByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get wallet of owner %s: %w", ownerID, err)
	}
	return wallet, nil
}

func (s *walletStore) FindWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("find wallet %s: %w", walletID, err)
	}
	return wallet, nil
}

func (s *walletStore) AdjustBalance(ctx context.Context, walletID string, delta decimal.Decimal) (*domain.Wallet, error) {
	return s.adjust(ctx, walletID, delta, true)
}

func (s *walletStore) Compensate(ctx context.Context, walletID string, delta decimal.Decimal) (*domain.Wallet, error) {
	return s.adjust(ctx, walletID, delta, false)
}

// adjust holds the wallet's lock for the whole read-modify-write. The version
// check catches writers outside this process, in which case the wallet is
// re-read and the delta applied again.
func (s *walletStore) adjust(ctx context.Context, walletID string, delta decimal.Decimal, requireActive bool) (*domain.Wallet, error) {
	unlock := s.locks.Lock(walletID)
	defer unlock()

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		wallet, err := s.walletRepo.GetWalletByID(ctx, walletID)
		if err != nil {
			return nil, fmt.Errorf("adjust balance of wallet %s: %w", walletID, err)
		}
		if requireActive && !wallet.IsActive() {
			return nil, fmt.Errorf("adjust balance of wallet %s: %w", walletID, util.ErrWalletSuspended)
		}
		if delta.IsZero() {
			return wallet, nil
		}

		newBalance := wallet.Balance.Add(delta)
		if newBalance.IsNegative() {
			return nil, fmt.Errorf("adjust balance of wallet %s by %s: %w", walletID, delta, util.ErrInsufficientFunds)
		}
		if !domain.AmountInRange(newBalance) {
			return nil, fmt.Errorf("adjust balance of wallet %s: balance must stay below %s: %w", walletID, domain.MaxAmount, util.ErrInvalidInput)
		}

		updated, err := s.walletRepo.UpdateWalletBalance(ctx, walletID, newBalance, wallet.Version)
		if err == nil {
			return updated, nil
		}
		if !util.IsError(err, util.ErrVersionConflict) {
			return nil, fmt.Errorf("adjust balance of wallet %s: %w", walletID, err)
		}
		s.logger.Debug("Wallet version moved, retrying", "wallet_id", walletID, "attempt", attempt)
	}

	return nil, fmt.Errorf("adjust balance of wallet %s: gave up after %d attempts: %w", walletID, s.maxRetries, util.ErrConflict)
}

// LinkExternalAccount connects an external address. Addresses are unique per wallet.
func (s *walletStore) LinkExternalAccount(ctx context.Context, walletID string, requester domain.Requester, address, accountType string) (*domain.Wallet, error) {
	address = strings.TrimSpace(address)
	accountType = strings.TrimSpace(accountType)
	if address == "" || accountType == "" {
		return nil, fmt.Errorf("link account: address and type are required: %w", util.ErrInvalidInput)
	}

	if _, err := s.GetWallet(ctx, walletID, requester); err != nil {
		return nil, err
	}

	account := domain.LinkedAccount{Address: address, Type: accountType, ConnectedAt: time.Now().UTC()}
	wallet, err := s.walletRepo.AddLinkedAccount(ctx, walletID, account)
	if err != nil {
		return nil, fmt.Errorf("link account to wallet %s: %w", walletID, err)
	}
	return wallet, nil
}

// SetStatus suspends or reactivates a wallet. Admin only.
func (s *walletStore) SetStatus(ctx context.Context, walletID string, requester domain.Requester, status domain.WalletStatus) (*domain.Wallet, error) {
	if !requester.IsAdmin {
		return nil, fmt.Errorf("set status of wallet %s: %w", walletID, util.ErrForbidden)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("set status %q: %w", status, util.ErrInvalidInput)
	}

	wallet, err := s.walletRepo.UpdateWalletStatus(ctx, walletID, status)
	if err != nil {
		return nil, fmt.Errorf("set status of wallet %s: %w", walletID, err)
	}

	s.logger.Info("Wallet status changed", "wallet_id", walletID, "status", status, "by", requester.UserID)
	return wallet, nil
}

// DeleteWalletForOwner is the wallet step of the account deletion cascade.
// Transaction records are left in place.
func (s *walletStore) DeleteWalletForOwner(ctx context.Context, requester domain.Requester, ownerID string) error {
	if !requester.IsAdmin {
		return fmt.Errorf("delete wallet of owner %s: %w", ownerID, util.ErrForbidden)
	}
	if err := s.walletRepo.DeleteWalletByOwnerID(ctx, ownerID); err != nil {
		return fmt.Errorf("delete wallet of owner %s: %w", ownerID, err)
	}

	s.logger.Info("Wallet deleted", "owner_id", ownerID, "by", requester.UserID)
	return nil
}
