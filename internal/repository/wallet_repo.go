// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"xr-wallet/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet data operations.
// Implementations return util.ErrWalletNotFound for missing wallets, util.ErrConflict
// for duplicates and wrap util.ErrStorageUnavailable around backend failures.
type WalletRepository interface {
	// CreateWallet stores a new wallet. Fails with util.ErrConflict if the owner already has one.
	CreateWallet(ctx context.Context, wallet *domain.Wallet) error
	// GetWalletByID retrieves a wallet by its ID.
	GetWalletByID(ctx context.Context, id string) (*domain.Wallet, error)
	// GetWalletByOwnerID retrieves the wallet that belongs to ownerID.
	GetWalletByOwnerID(ctx context.Context, ownerID string) (*domain.Wallet, error)
	// UpdateWalletBalance writes newBalance only if the stored version still equals
	// expectedVersion, returning util.ErrVersionConflict otherwise. The returned
	// wallet carries the bumped version.
	UpdateWalletBalance(ctx context.Context, walletID string, newBalance decimal.Decimal, expectedVersion int64) (*domain.Wallet, error)
	// UpdateWalletStatus sets the wallet status.
	UpdateWalletStatus(ctx context.Context, walletID string, status domain.WalletStatus) (*domain.Wallet, error)
	// AddLinkedAccount appends an external account. Fails with util.ErrConflict if
	// the address is already linked to this wallet.
	AddLinkedAccount(ctx context.Context, walletID string, account domain.LinkedAccount) (*domain.Wallet, error)
	// DeleteWalletByOwnerID removes the owner's wallet as part of account deletion.
	DeleteWalletByOwnerID(ctx context.Context, ownerID string) error
}
