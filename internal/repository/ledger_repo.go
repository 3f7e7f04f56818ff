// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"xr-wallet/internal/domain"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one leg of a ledger write: a balance change on a wallet and the
// log record describing it.
type LedgerEntry struct {
	WalletID string
	Delta    decimal.Decimal
	// RequireActive rejects the leg with util.ErrWalletSuspended unless the wallet is active.
	RequireActive bool
	// Transaction is inserted in the same unit as the balance change. May be nil.
	Transaction *domain.Transaction
}

// LedgerRepository is implemented by stores that can commit balance changes and
// their transaction records atomically.
type LedgerRepository interface {
	// ApplyEntries writes every entry or none of them. It returns the updated
	// wallets in the order of entries. A leg that would leave a negative balance
	// fails with util.ErrInsufficientFunds, an unknown wallet with util.ErrWalletNotFound.
	ApplyEntries(ctx context.Context, entries []LedgerEntry) ([]*domain.Wallet, error)
}
