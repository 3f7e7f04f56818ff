// internal/repository/memory/transaction_mem.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"xr-wallet/internal/domain"
	"xr-wallet/internal/repository"
	"xr-wallet/internal/util"
)

// TransactionRepository is an in-process append-only log. Records of a wallet
// are kept in insertion order and read back in reverse.
type TransactionRepository struct {
	mu       sync.RWMutex
	ids      map[string]struct{}
	byWallet map[string][]domain.Transaction
}

// NewTransactionRepository creates an empty TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{
		ids:      make(map[string]struct{}),
		byWallet: make(map[string][]domain.Transaction),
	}
}

func (r *TransactionRepository) CreateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[transaction.ID]; exists {
		return fmt.Errorf("create transaction %s: %w", transaction.ID, util.ErrConflict)
	}
	r.ids[transaction.ID] = struct{}{}
	r.byWallet[transaction.WalletID] = append(r.byWallet[transaction.WalletID], *transaction)
	return nil
}

func (r *TransactionRepository) GetTransactionsByWalletID(ctx context.Context, walletID string, limit, offset int) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	newestFirst := reversed(r.byWallet[walletID], time.Time{})
	if offset < 0 || offset >= len(newestFirst) {
		return []domain.Transaction{}, nil
	}
	end := len(newestFirst)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return newestFirst[offset:end], nil
}

func (r *TransactionRepository) CountTransactionsByWalletID(ctx context.Context, walletID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.byWallet[walletID])), nil
}

func (r *TransactionRepository) GetTransactionsSince(ctx context.Context, walletID string, since time.Time) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return reversed(r.byWallet[walletID], since), nil
}

func (r *TransactionRepository) GetTransactionStats(ctx context.Context, walletID string, since time.Time) (*domain.TransactionStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.TransactionStats
	for _, t := range r.byWallet[walletID] {
		if !t.Timestamp.Before(since) {
			stats.Add(t.Type)
		}
	}
	return &stats, nil
}

// reversed copies the records at or after since, newest first.
func reversed(records []domain.Transaction, since time.Time) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Timestamp.Before(since) {
			continue
		}
		out = append(out, records[i])
	}
	return out
}
