// internal/service/transaction_log.go
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"xr-wallet/internal/domain"
	"xr-wallet/internal/repository"
	"xr-wallet/internal/util"

	"github.com/shopspring/decimal"
)

// Pagination limits for history listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*pageSize within int for every allowed page size.
	MaxPage = math.MaxInt / MaxPageSize
)

// TransactionLog is the append-only history of balance-affecting events.
type TransactionLog interface {
	// Record appends an immutable entry. Any store failure is reported as util.ErrStorageUnavailable.
	Record(ctx context.Context, walletID string, amount decimal.Decimal, details domain.Details) (*domain.Transaction, error)
	// ListByWallet returns one page of entries, newest first. page starts at 1.
	ListByWallet(ctx context.Context, walletID string, page, pageSize int) ([]domain.Transaction, error)
	CountByWallet(ctx context.Context, walletID string) (int64, error)
	ListRecent(ctx context.Context, walletID string, since time.Time) ([]domain.Transaction, error)
	Stats(ctx context.Context, walletID string, since time.Time) (*domain.TransactionStats, error)
}

type transactionLog struct {
	transactionRepo repository.TransactionRepository
}

// NewTransactionLog creates a TransactionLog.
func NewTransactionLog(transactionRepo repository.TransactionRepository) TransactionLog {
	return &transactionLog{transactionRepo: transactionRepo}
}

func (l *transactionLog) Record(ctx context.Context, walletID string, amount decimal.Decimal, details domain.Details) (*domain.Transaction, error) {
	transaction, err := newEntry(walletID, amount, details)
	if err != nil {
		return nil, err
	}
	if err := l.transactionRepo.CreateTransaction(ctx, transaction); err != nil {
		if util.IsError(err, util.ErrStorageUnavailable) {
			return nil, fmt.Errorf("record %s for wallet %s: %w", transaction.Type, walletID, err)
		}
		return nil, fmt.Errorf("record %s for wallet %s: %w: %w", transaction.Type, walletID, util.ErrStorageUnavailable, err)
	}
	return transaction, nil
}

// newEntry builds a log record without storing it.
func newEntry(walletID string, amount decimal.Decimal, details domain.Details) (*domain.Transaction, error) {
	if details == nil || !details.TransactionType().Valid() {
		return nil, fmt.Errorf("record transaction: unknown details: %w", util.ErrInvalidInput)
	}
	return domain.NewTransaction(walletID, amount, details), nil
}

func (l *transactionLog) ListByWallet(ctx context.Context, walletID string, page, pageSize int) ([]domain.Transaction, error) {
	page, pageSize = NormalizePage(page, pageSize)
	transactions, err := l.transactionRepo.GetTransactionsByWalletID(ctx, walletID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list transactions of wallet %s: %w", walletID, err)
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	return transactions, nil
}

func (l *transactionLog) CountByWallet(ctx context.Context, walletID string) (int64, error) {
	total, err := l.transactionRepo.CountTransactionsByWalletID(ctx, walletID)
	if err != nil {
		return 0, fmt.Errorf("count transactions of wallet %s: %w", walletID, err)
	}
	return total, nil
}

func (l *transactionLog) ListRecent(ctx context.Context, walletID string, since time.Time) ([]domain.Transaction, error) {
	transactions, err := l.transactionRepo.GetTransactionsSince(ctx, walletID, since)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions of wallet %s: %w", walletID, err)
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	return transactions, nil
}

func (l *transactionLog) Stats(ctx context.Context, walletID string, since time.Time) (*domain.TransactionStats, error) {
	stats, err := l.transactionRepo.GetTransactionStats(ctx, walletID, since)
	if err != nil {
		return nil, fmt.Errorf("transaction stats of wallet %s: %w", walletID, err)
	}
	return stats, nil
}

// NormalizePage applies the listing defaults: page starts at 1 and is capped at
// MaxPage, size defaults to DefaultPageSize and is capped at MaxPageSize.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
