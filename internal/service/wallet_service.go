// internal/service/wallet_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"xr-wallet/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultActivityWindow is used for recent transactions and stats when no window is given.
const DefaultActivityWindow = 30 * 24 * time.Hour

// WalletService defines the wallet business operations exposed over HTTP.
// Every call carries the authenticated requester.
type WalletService interface {
	CreateWallet(ctx context.Context, requester domain.Requester, ownerID string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, requester domain.Requester, walletID string) (*domain.Wallet, error)
	GetMyWallet(ctx context.Context, requester domain.Requester) (*domain.Wallet, error)
	LinkExternalAccount(ctx context.Context, requester domain.Requester, walletID, address, accountType string) (*domain.Wallet, error)
	SetStatus(ctx context.Context, requester domain.Requester, walletID string, status domain.WalletStatus) (*domain.Wallet, error)
	DeleteWalletForOwner(ctx context.Context, requester domain.Requester, ownerID string) error

	Deposit(ctx context.Context, requester domain.Requester, walletID string, amount decimal.Decimal, details domain.DepositDetails) (*domain.Wallet, *domain.Transaction, error)
	Withdraw(ctx context.Context, requester domain.Requester, walletID string, amount decimal.Decimal, destinationAddress string) (*domain.Wallet, *domain.Transaction, error)
	Transfer(ctx context.Context, requester domain.Requester, req TransferRequest) (*domain.Wallet, *domain.Transaction, error)
	Purchase(ctx context.Context, requester domain.Requester, req PurchaseRequest) (*domain.Wallet, *domain.Transaction, error)
	ListItem(ctx context.Context, requester domain.Requester, walletID, itemID string) (*domain.Transaction, error)
	UpdateBalance(ctx context.Context, requester domain.Requester, walletID string, delta decimal.Decimal) (*domain.Wallet, error)

	GetTransactionHistory(ctx context.Context, requester domain.Requester, walletID string, page, limit int) ([]domain.Transaction, int64, error)
	GetRecentTransactions(ctx context.Context, requester domain.Requester, walletID string, window time.Duration) ([]domain.Transaction, error)
	GetTransactionStats(ctx context.Context, requester domain.Requester, walletID string, window time.Duration) (*domain.TransactionStats, error)
}

// walletService implements the WalletService interface on top of the three ledger components.
type walletService struct {
	store       WalletStore
	log         TransactionLog
	coordinator TransferCoordinator
	now         func() time.Time
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(store WalletStore, log TransactionLog, coordinator TransferCoordinator) WalletService {
	return &walletService{
		store:       store,
		log:         log,
		coordinator: coordinator,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *walletService) CreateWallet(ctx context.Context, requester domain.Requester, ownerID string) (*domain.Wallet, error) {
	return s.store.CreateWallet(ctx, requester, ownerID)
}

func (s *walletService) GetWallet(ctx context.Context, requester domain.Requester, walletID string) (*domain.Wallet, error) {
	return s.store.GetWallet(ctx, walletID, requester)
}

func (s *walletService) GetMyWallet(ctx context.Context, requester domain.Requester) (*domain.Wallet, error) {
	return s.store.GetWalletByOwner(ctx, requester.UserID)
}

func (s *walletService) LinkExternalAccount(ctx context.Context, requester domain.Requester, walletID, address, accountType string) (*domain.Wallet, error) {
	return s.store.LinkExternalAccount(ctx, walletID, requester, address, accountType)
}

func (s *walletService) SetStatus(ctx context.Context, requester domain.Requester, walletID string, status domain.WalletStatus) (*domain.Wallet, error) {
	return s.store.SetStatus(ctx, walletID, requester, status)
}

func (s *walletService) DeleteWalletForOwner(ctx context.Context, requester domain.Requester, ownerID string) error {
	return s.store.DeleteWalletForOwner(ctx, requester, ownerID)
}

func (s *walletService) Deposit(ctx context.Context, requester domain.Requester, walletID string, amount decimal.Decimal, details domain.DepositDetails) (*domain.Wallet, *domain.Transaction, error) {
	return s.coordinator.Deposit(ctx, requester, walletID, amount, details)
}

func (s *walletService) Withdraw(ctx context.Context, requester domain.Requester, walletID string, amount decimal.Decimal, destinationAddress string) (*domain.Wallet, *domain.Transaction, error) {
	return s.coordinator.Withdraw(ctx, requester, walletID, amount, destinationAddress)
}

func (s *walletService) Transfer(ctx context.Context, requester domain.Requester, req TransferRequest) (*domain.Wallet, *domain.Transaction, error) {
	return s.coordinator.Transfer(ctx, requester, req)
}

func (s *walletService) Purchase(ctx context.Context, requester domain.Requester, req PurchaseRequest) (*domain.Wallet, *domain.Transaction, error) {
	return s.coordinator.Purchase(ctx, requester, req)
}

func (s *walletService) ListItem(ctx context.Context, requester domain.Requester, walletID, itemID string) (*domain.Transaction, error) {
	return s.coordinator.ListItem(ctx, requester, walletID, itemID)
}

func (s *walletService) UpdateBalance(ctx context.Context, requester domain.Requester, walletID string, delta decimal.Decimal) (*domain.Wallet, error) {
	return s.coordinator.UpdateBalance(ctx, requester, walletID, delta)
}

// GetTransactionHistory retrieves a page of a wallet's transactions and the total count.
func (s *walletService) GetTransactionHistory(ctx context.Context, requester domain.Requester, walletID string, page, limit int) ([]domain.Transaction, int64, error) {
	// First, check that the wallet exists and the requester may see it
	if _, err := s.store.GetWallet(ctx, walletID, requester); err != nil {
		return nil, 0, fmt.Errorf("transaction history: %w", err)
	}

	transactions, err := s.log.ListByWallet(ctx, walletID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("transaction history: %w", err)
	}
	total, err := s.log.CountByWallet(ctx, walletID)
	if err != nil {
		return nil, 0, fmt.Errorf("transaction history: %w", err)
	}
	return transactions, total, nil
}

func (s *walletService) GetRecentTransactions(ctx context.Context, requester domain.Requester, walletID string, window time.Duration) ([]domain.Transaction, error) {
	if _, err := s.store.GetWallet(ctx, walletID, requester); err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return s.log.ListRecent(ctx, walletID, s.since(window))
}

func (s *walletService) GetTransactionStats(ctx context.Context, requester domain.Requester, walletID string, window time.Duration) (*domain.TransactionStats, error) {
	if _, err := s.store.GetWallet(ctx, walletID, requester); err != nil {
		return nil, fmt.Errorf("transaction stats: %w", err)
	}
	return s.log.Stats(ctx, walletID, s.since(window))
}

func (s *walletService) since(window time.Duration) time.Time {
	if window <= 0 {
		window = DefaultActivityWindow
	}
	return s.now().Add(-window)
}
