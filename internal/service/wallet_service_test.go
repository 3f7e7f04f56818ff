// internal/service/wallet_service_test.go
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"xr-wallet/internal/domain"
	"xr-wallet/internal/events"
	"xr-wallet/internal/repository"
	"xr-wallet/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetWalletByID(ctx context.Context, id string) (*domain.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletByOwnerID(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateWalletBalance(ctx context.Context, walletID string, newBalance decimal.Decimal, expectedVersion int64) (*domain.Wallet, error) {
	args := m.Called(ctx, walletID, newBalance, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateWalletStatus(ctx context.Context, walletID string, status domain.WalletStatus) (*domain.Wallet, error) {
	args := m.Called(ctx, walletID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) AddLinkedAccount(ctx context.Context, walletID string, account domain.LinkedAccount) (*domain.Wallet, error) {
	args := m.Called(ctx, walletID, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) DeleteWalletByOwnerID(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetTransactionsByWalletID(ctx context.Context, walletID string, limit, offset int) ([]domain.Transaction, error) {
	args := m.Called(ctx, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountTransactionsByWalletID(ctx context.Context, walletID string) (int64, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) GetTransactionsSince(ctx context.Context, walletID string, since time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, walletID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetTransactionStats(ctx context.Context, walletID string, since time.Time) (*domain.TransactionStats, error) {
	args := m.Called(ctx, walletID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionStats), args.Error(1)
}

// MockLedgerRepository is a mock implementation of repository.LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) ApplyEntries(ctx context.Context, entries []repository.LedgerEntry) ([]*domain.Wallet, error) {
	args := m.Called(ctx, entries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wallet), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event *events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWallet(id, owner string, balance int64, version int64) *domain.Wallet {
	return &domain.Wallet{
		ID:             id,
		OwnerID:        owner,
		Balance:        decimal.NewFromInt(balance),
		LinkedAccounts: domain.LinkedAccounts{},
		Status:         domain.WalletStatusActive,
		Version:        version,
	}
}

func decEq(n int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(n)) })
}

func eventOfType(t events.EventType) interface{} {
	return mock.MatchedBy(func(e *events.Event) bool { return e.Type == t })
}

type mockedLedger struct {
	walletRepo  *MockWalletRepository
	txRepo      *MockTransactionRepository
	publisher   *MockPublisher
	store       WalletStore
	coordinator TransferCoordinator
}

func newMockedLedger(maxRetries int) *mockedLedger {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	publisher := new(MockPublisher)
	store := NewWalletStore(walletRepo, maxRetries, discardLogger())
	return &mockedLedger{
		walletRepo:  walletRepo,
		txRepo:      txRepo,
		publisher:   publisher,
		store:       store,
		coordinator: NewTransferCoordinator(store, NewTransactionLog(txRepo), nil, publisher, discardLogger()),
	}
}

var owner = domain.NewRequester("user-a", false)

type atomicLedger struct {
	walletRepo  *MockWalletRepository
	txRepo      *MockTransactionRepository
	ledgerRepo  *MockLedgerRepository
	publisher   *MockPublisher
	coordinator TransferCoordinator
}

func newAtomicLedger() *atomicLedger {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	ledgerRepo := new(MockLedgerRepository)
	publisher := new(MockPublisher)
	store := NewWalletStore(walletRepo, DefaultBalanceMaxRetries, discardLogger())
	return &atomicLedger{
		walletRepo:  walletRepo,
		txRepo:      txRepo,
		ledgerRepo:  ledgerRepo,
		publisher:   publisher,
		coordinator: NewTransferCoordinator(store, NewTransactionLog(txRepo), ledgerRepo, publisher, discardLogger()),
	}
}

func TestDeposit_CommitsBalanceAndEntryTogether(t *testing.T) {
	l := newAtomicLedger()
	ctx := context.Background()

	l.walletRepo.On("GetWalletByID", mock.Anything, "w1").Return(testWallet("w1", "user-a", 10, 1), nil).Once()
	l.ledgerRepo.On("ApplyEntries", mock.Anything, mock.MatchedBy(func(entries []repository.LedgerEntry) bool {
		return len(entries) == 1 &&
			entries[0].WalletID == "w1" &&
			entries[0].Delta.Equal(decimal.NewFromInt(5)) &&
			entries[0].RequireActive &&
			entries[0].Transaction != nil &&
			entries[0].Transaction.Type == domain.TransactionTypeDeposit &&
			entries[0].Transaction.Amount.Equal(decimal.NewFromInt(5))
	})).Return([]*domain.Wallet{testWallet("w1", "user-a", 15, 2)}, nil).Once()
	l.publisher.On("Publish", mock.Anything, eventOfType(events.EventTransactionRecorded)).Return(nil).Once()

	wallet, entry, err := l.coordinator.Deposit(ctx, owner, "w1", decimal.NewFromInt(5), domain.DepositDetails{Source: "stripe"})

	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, domain.TransactionTypeDeposit, entry.Type)
	l.ledgerRepo.AssertExpectations(t)
	l.publisher.AssertExpectations(t)
	l.walletRepo.AssertNotCalled(t, "UpdateWalletBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	l.txRepo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestTransfer_FailedCommitNeedsNoCompensation(t *testing.T) {
	l := newAtomicLedger()
	ctx := context.Background()

	l.walletRepo.On("GetWalletByID", mock.Anything, "a").Return(testWallet("a", "user-a", 100, 1), nil).Once()
	l.walletRepo.On("GetWalletByID", mock.Anything, "b").Return(testWallet("b", "user-b", 5, 1), nil).Once()
	l.ledgerRepo.On("ApplyEntries", mock.Anything, mock.MatchedBy(func(entries []repository.LedgerEntry) bool {
		return len(entries) == 2 &&
			entries[0].WalletID == "a" && entries[0].Delta.Equal(decimal.NewFromInt(-10)) &&
			entries[1].WalletID == "b" && entries[1].Delta.Equal(decimal.NewFromInt(10)) &&
			entries[0].Transaction.Type == domain.TransactionTypeTransfer &&
			entries[1].Transaction.Type == domain.TransactionTypeTransfer
	})).Return(nil, fmt.Errorf("insert: %w", util.ErrStorageUnavailable)).Once()

	wallet, entry, err := l.coordinator.Transfer(ctx, owner, TransferRequest{SourceWalletID: "a", RecipientWalletID: "b", Amount: decimal.NewFromInt(10)})

	assert.ErrorIs(t, err, util.ErrStorageUnavailable)
	assert.Nil(t, wallet)
	assert.Nil(t, entry)
	l.ledgerRepo.AssertExpectations(t)
	l.walletRepo.AssertNotCalled(t, "UpdateWalletBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	l.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestTransfer_CommittedPublishesBothEntries(t *testing.T) {
	l := newAtomicLedger()
	ctx := context.Background()

	l.walletRepo.On("GetWalletByID", mock.Anything, "a").Return(testWallet("a", "user-a", 100, 1), nil).Once()
	l.walletRepo.On("GetWalletByID", mock.Anything, "b").Return(testWallet("b", "user-b", 5, 1), nil).Once()
	l.ledgerRepo.On("ApplyEntries", mock.Anything, mock.Anything).
		Return([]*domain.Wallet{testWallet("a", "user-a", 90, 2), testWallet("b", "user-b", 15, 2)}, nil).Once()
	l.publisher.On("Publish", mock.Anything, eventOfType(events.EventTransactionRecorded)).Return(nil).Twice()

	wallet, entry, err := l.coordinator.Transfer(ctx, owner, TransferRequest{SourceWalletID: "a", RecipientWalletID: "b", Amount: decimal.NewFromInt(10)})

	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(90)))
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(-10)))
	assert.Equal(t, "a", entry.WalletID)
	l.publisher.AssertExpectations(t)
}

func TestDeposit_ReversedWhenLogUnavailable(t *testing.T) {
	l := newMockedLedger(3)
	ctx := context.Background()

	l.walletRepo.On("GetWalletByID", mock.Anything, "w1").Return(testWallet("w1", "user-a", 10, 1), nil).Twice()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "w1", decEq(15), int64(1)).Return(testWallet("w1", "user-a", 15, 2), nil).Once()
	l.txRepo.On("CreateTransaction", mock.Anything, mock.Anything).Return(fmt.Errorf("insert: %w", util.ErrStorageUnavailable)).Once()
	l.walletRepo.On("GetWalletByID", mock.Anything, "w1").Return(testWallet("w1", "user-a", 15, 2), nil).Once()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "w1", decEq(10), int64(2)).Return(testWallet("w1", "user-a", 10, 3), nil).Once()

	wallet, entry, err := l.coordinator.Deposit(ctx, owner, "w1", decimal.NewFromInt(5), domain.DepositDetails{Source: "stripe"})

	assert.ErrorIs(t, err, util.ErrStorageUnavailable)
	assert.Nil(t, wallet)
	assert.Nil(t, entry)
	l.walletRepo.AssertExpectations(t)
	l.txRepo.AssertExpectations(t)
	l.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRecord_WrapsAnyStoreFailureAsUnavailable(t *testing.T) {
	txRepo := new(MockTransactionRepository)
	log := NewTransactionLog(txRepo)
	txRepo.On("CreateTransaction", mock.Anything, mock.Anything).Return(context.DeadlineExceeded).Once()

	_, err := log.Record(context.Background(), "w1", decimal.NewFromInt(1), domain.DepositDetails{})

	assert.ErrorIs(t, err, util.ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransfer_CreditFailureCompensatesSource(t *testing.T) {
	l := newMockedLedger(3)
	ctx := context.Background()

	// authorization and recipient checks
	l.walletRepo.On("GetWalletByID", mock.Anything, "a").Return(testWallet("a", "user-a", 100, 1), nil).Once()
	l.walletRepo.On("GetWalletByID", mock.Anything, "b").Return(testWallet("b", "user-b", 5, 1), nil).Once()
	// debit
	l.walletRepo.On("GetWalletByID", mock.Anything, "a").Return(testWallet("a", "user-a", 100, 1), nil).Once()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "a", decEq(90), int64(1)).Return(testWallet("a", "user-a", 90, 2), nil).Once()
	// credit fails
	l.walletRepo.On("GetWalletByID", mock.Anything, "b").Return(nil, fmt.Errorf("read: %w", util.ErrStorageUnavailable)).Once()
	// compensation
	l.walletRepo.On("GetWalletByID", mock.Anything, "a").Return(testWallet("a", "user-a", 90, 2), nil).Once()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "a", decEq(100), int64(2)).Return(testWallet("a", "user-a", 100, 3), nil).Once()

	_, _, err := l.coordinator.Transfer(ctx, owner, TransferRequest{SourceWalletID: "a", RecipientWalletID: "b", Amount: decimal.NewFromInt(10)})

	assert.ErrorIs(t, err, util.ErrStorageUnavailable)
	l.walletRepo.AssertExpectations(t)
	l.txRepo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
	l.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestTransfer_FailedCompensationRaisesReconciliation(t *testing.T) {
	l := newMockedLedger(3)
	ctx := context.Background()

	l.walletRepo.On("GetWalletByID", mock.Anything, "a").Return(testWallet("a", "user-a", 100, 1), nil).Twice()
	l.walletRepo.On("GetWalletByID", mock.Anything, "b").Return(testWallet("b", "user-b", 5, 1), nil).Once()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "a", decEq(90), int64(1)).Return(testWallet("a", "user-a", 90, 2), nil).Once()
	l.walletRepo.On("GetWalletByID", mock.Anything, "b").Return(nil, util.ErrWalletNotFound).Once()
	l.walletRepo.On("GetWalletByID", mock.Anything, "a").Return(nil, fmt.Errorf("read: %w", util.ErrStorageUnavailable)).Once()
	l.publisher.On("Publish", mock.Anything, eventOfType(events.EventReconciliationRequired)).Return(nil).Once()

	_, _, err := l.coordinator.Transfer(ctx, owner, TransferRequest{SourceWalletID: "a", RecipientWalletID: "b", Amount: decimal.NewFromInt(10)})

	assert.ErrorIs(t, err, util.ErrWalletNotFound)
	l.walletRepo.AssertExpectations(t)
	l.publisher.AssertExpectations(t)
}

func TestTransfer_SourceLogFailureUndoesBothLegs(t *testing.T) {
	l := newMockedLedger(3)
	ctx := context.Background()

	l.walletRepo.On("GetWalletByID", mock.Anything, "a").Return(testWallet("a", "user-a", 100, 1), nil).Twice()
	l.walletRepo.On("GetWalletByID", mock.Anything, "b").Return(testWallet("b", "user-b", 5, 1), nil).Twice()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "a", decEq(90), int64(1)).Return(testWallet("a", "user-a", 90, 2), nil).Once()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "b", decEq(15), int64(1)).Return(testWallet("b", "user-b", 15, 2), nil).Once()
	l.txRepo.On("CreateTransaction", mock.Anything, mock.Anything).Return(fmt.Errorf("insert: %w", util.ErrStorageUnavailable)).Once()
	l.walletRepo.On("GetWalletByID", mock.Anything, "b").Return(testWallet("b", "user-b", 15, 2), nil).Once()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "b", decEq(5), int64(2)).Return(testWallet("b", "user-b", 5, 3), nil).Once()
	l.walletRepo.On("GetWalletByID", mock.Anything, "a").Return(testWallet("a", "user-a", 90, 2), nil).Once()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "a", decEq(100), int64(2)).Return(testWallet("a", "user-a", 100, 3), nil).Once()

	_, _, err := l.coordinator.Transfer(ctx, owner, TransferRequest{SourceWalletID: "a", RecipientWalletID: "b", Amount: decimal.NewFromInt(10)})

	assert.ErrorIs(t, err, util.ErrStorageUnavailable)
	l.walletRepo.AssertExpectations(t)
	l.txRepo.AssertExpectations(t)
}

func TestTransfer_MissingRecipientEntryIsReported(t *testing.T) {
	l := newMockedLedger(3)
	ctx := context.Background()

	l.walletRepo.On("GetWalletByID", mock.Anything, "a").Return(testWallet("a", "user-a", 100, 1), nil).Twice()
	l.walletRepo.On("GetWalletByID", mock.Anything, "b").Return(testWallet("b", "user-b", 5, 1), nil).Twice()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "a", decEq(90), int64(1)).Return(testWallet("a", "user-a", 90, 2), nil).Once()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "b", decEq(15), int64(1)).Return(testWallet("b", "user-b", 15, 2), nil).Once()
	l.txRepo.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool { return tx.WalletID == "a" })).Return(nil).Once()
	l.txRepo.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool { return tx.WalletID == "b" })).Return(util.ErrStorageUnavailable).Once()
	l.publisher.On("Publish", mock.Anything, eventOfType(events.EventTransactionRecorded)).Return(nil).Once()
	l.publisher.On("Publish", mock.Anything, eventOfType(events.EventReconciliationRequired)).Return(nil).Once()

	wallet, entry, err := l.coordinator.Transfer(ctx, owner, TransferRequest{SourceWalletID: "a", RecipientWalletID: "b", Amount: decimal.NewFromInt(10)})

	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(90)))
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(-10)))
	l.txRepo.AssertExpectations(t)
	l.publisher.AssertExpectations(t)
}

func TestAdjustBalance_RetriesOnVersionConflict(t *testing.T) {
	l := newMockedLedger(3)
	ctx := context.Background()

	l.walletRepo.On("GetWalletByID", mock.Anything, "w1").Return(testWallet("w1", "user-a", 10, 1), nil).Once()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "w1", decEq(7), int64(1)).Return(nil, util.ErrVersionConflict).Once()
	l.walletRepo.On("GetWalletByID", mock.Anything, "w1").Return(testWallet("w1", "user-a", 4, 2), nil).Once()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "w1", decEq(1), int64(2)).Return(testWallet("w1", "user-a", 1, 3), nil).Once()

	wallet, err := l.store.AdjustBalance(ctx, "w1", decimal.NewFromInt(-3))

	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(1)))
	l.walletRepo.AssertExpectations(t)
}

func TestAdjustBalance_GivesUpAfterMaxRetries(t *testing.T) {
	l := newMockedLedger(2)
	ctx := context.Background()

	l.walletRepo.On("GetWalletByID", mock.Anything, "w1").Return(testWallet("w1", "user-a", 10, 1), nil).Twice()
	l.walletRepo.On("UpdateWalletBalance", mock.Anything, "w1", decEq(9), int64(1)).Return(nil, util.ErrVersionConflict).Twice()

	_, err := l.store.AdjustBalance(ctx, "w1", decimal.NewFromInt(-1))

	assert.ErrorIs(t, err, util.ErrConflict)
	assert.NotErrorIs(t, err, util.ErrVersionConflict)
	l.walletRepo.AssertExpectations(t)
}

func TestAdjustBalance_InsufficientFundsNeverWrites(t *testing.T) {
	l := newMockedLedger(3)

	l.walletRepo.On("GetWalletByID", mock.Anything, "w1").Return(testWallet("w1", "user-a", 10, 1), nil).Once()

	_, err := l.store.AdjustBalance(context.Background(), "w1", decimal.NewFromInt(-11))

	assert.ErrorIs(t, err, util.ErrInsufficientFunds)
	l.walletRepo.AssertNotCalled(t, "UpdateWalletBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetTransactionHistory_ChecksAccessFirst(t *testing.T) {
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)
	store := NewWalletStore(walletRepo, 0, discardLogger())
	log := NewTransactionLog(txRepo)
	svc := NewWalletService(store, log, NewTransferCoordinator(store, log, nil, nil, discardLogger()))

	walletRepo.On("GetWalletByID", mock.Anything, "w1").Return(testWallet("w1", "user-a", 0, 1), nil)

	_, _, err := svc.GetTransactionHistory(context.Background(), domain.NewRequester("intruder", false), "w1", 1, 10)
	assert.ErrorIs(t, err, util.ErrForbidden)
	txRepo.AssertNotCalled(t, "GetTransactionsByWalletID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	txRepo.On("GetTransactionsByWalletID", mock.Anything, "w1", 10, 10).Return(nil, nil).Once()
	txRepo.On("CountTransactionsByWalletID", mock.Anything, "w1").Return(int64(12), nil).Once()

	txs, total, err := svc.GetTransactionHistory(context.Background(), owner, "w1", 2, 0)
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
	assert.Equal(t, int64(12), total)
	txRepo.AssertExpectations(t)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name             string
		page, size       int
		wantPage, wantSz int
	}{
		{"defaults", 0, 0, 1, DefaultPageSize},
		{"negative", -3, -1, 1, DefaultPageSize},
		{"capped", 4, 1000, 4, MaxPageSize},
		{"unchanged", 2, 25, 2, 25},
		{"huge page", math.MaxInt, MaxPageSize, MaxPage, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := NormalizePage(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSz, size)
		})
	}
}
