// internal/repository/transaction_repo.go
package repository

import (
	"context"
	"time"

	"xr-wallet/internal/domain"
)

// TransactionRepository defines the interface for the append-only transaction log.
type TransactionRepository interface {
	// CreateTransaction appends a new transaction record.
	CreateTransaction(ctx context.Context, transaction *domain.Transaction) error
	// GetTransactionsByWalletID retrieves a page of a wallet's history, newest first.
	GetTransactionsByWalletID(ctx context.Context, walletID string, limit, offset int) ([]domain.Transaction, error)
	// CountTransactionsByWalletID returns the total number of records for a wallet.
	CountTransactionsByWalletID(ctx context.Context, walletID string) (int64, error)
	// GetTransactionsSince retrieves a wallet's records created at or after since, newest first.
	GetTransactionsSince(ctx context.Context, walletID string, since time.Time) ([]domain.Transaction, error)
	// GetTransactionStats counts a wallet's records created at or after since, by type.
	GetTransactionStats(ctx context.Context, walletID string, since time.Time) (*domain.TransactionStats, error)
}
