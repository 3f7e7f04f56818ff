// internal/service/transfer_coordinator.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"xr-wallet/internal/domain"
	"xr-wallet/internal/events"
	"xr-wallet/internal/repository"
	"xr-wallet/internal/util"

	"github.com/shopspring/decimal"
)

// compensationTimeout bounds the undo of a partially applied operation,
// which runs even if the request context is already done.
const compensationTimeout = 10 * time.Second

// TransferRequest moves funds to another wallet or to an external address.
// Exactly one of RecipientWalletID and RecipientAddress must be set.
type TransferRequest struct {
	SourceWalletID    string
	RecipientWalletID string
	RecipientAddress  string
	Amount            decimal.Decimal
}

// PurchaseRequest pays a seller for a marketplace item.
type PurchaseRequest struct {
	BuyerWalletID  string
	SellerWalletID string
	ItemID         string
	Amount         decimal.Decimal
}

// TransferCoordinator runs every balance-changing operation together with its
// log entries. With a LedgerRepository the legs and entries commit as one unit;
// otherwise they are applied in sequence and undone when a later step fails.
type TransferCoordinator interface {
	Deposit(ctx context.Context, requester domain.Requester, walletID string, amount decimal.Decimal, details domain.DepositDetails) (*domain.Wallet, *domain.Transaction, error)
	Withdraw(ctx context.Context, requester domain.Requester, walletID string, amount decimal.Decimal, destinationAddress string) (*domain.Wallet, *domain.Transaction, error)
	Transfer(ctx context.Context, requester domain.Requester, req TransferRequest) (*domain.Wallet, *domain.Transaction, error)
	Purchase(ctx context.Context, requester domain.Requester, req PurchaseRequest) (*domain.Wallet, *domain.Transaction, error)
	ListItem(ctx context.Context, requester domain.Requester, walletID, itemID string) (*domain.Transaction, error)
	// UpdateBalance is the admin correction path. It writes no log entry.
	UpdateBalance(ctx context.Context, requester domain.Requester, walletID string, delta decimal.Decimal) (*domain.Wallet, error)
}

type transferCoordinator struct {
	store     WalletStore
	log       TransactionLog
	ledger    repository.LedgerRepository // nil when the store has no transactions
	publisher events.Publisher
	logger    *slog.Logger
}

// NewTransferCoordinator creates a TransferCoordinator. ledger may be nil, in
// which case operations fall back to compensation.
func NewTransferCoordinator(store WalletStore, log TransactionLog, ledger repository.LedgerRepository, publisher events.Publisher, logger *slog.Logger) TransferCoordinator {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &transferCoordinator{store: store, log: log, ledger: ledger, publisher: publisher, logger: logger}
}

func (c *transferCoordinator) Deposit(ctx context.Context, requester domain.Requester, walletID string, amount decimal.Decimal, details domain.DepositDetails) (*domain.Wallet, *domain.Transaction, error) {
	if err := validateAmount("deposit", amount); err != nil {
		return nil, nil, err
	}
	if _, err := c.store.GetWallet(ctx, walletID, requester); err != nil {
		return nil, nil, fmt.Errorf("deposit: %w", err)
	}
	return c.applyAndRecord(ctx, "deposit", walletID, amount, details)
}

func (c *transferCoordinator) Withdraw(ctx context.Context, requester domain.Requester, walletID string, amount decimal.Decimal, destinationAddress string) (*domain.Wallet, *domain.Transaction, error) {
	if err := validateAmount("withdraw", amount); err != nil {
		return nil, nil, err
	}
	destinationAddress = strings.TrimSpace(destinationAddress)
	if destinationAddress == "" {
		return nil, nil, fmt.Errorf("withdraw: destination address is required: %w", util.ErrInvalidInput)
	}
	if _, err := c.store.GetWallet(ctx, walletID, requester); err != nil {
		return nil, nil, fmt.Errorf("withdraw: %w", err)
	}
	return c.applyAndRecord(ctx, "withdraw", walletID, amount.Neg(), domain.WithdrawalDetails{DestinationAddress: destinationAddress})
}

func (c *transferCoordinator) Transfer(ctx context.Context, requester domain.Requester, req TransferRequest) (*domain.Wallet, *domain.Transaction, error) {
	if err := validateAmount("transfer", req.Amount); err != nil {
		return nil, nil, err
	}
	req.RecipientWalletID = strings.TrimSpace(req.RecipientWalletID)
	req.RecipientAddress = strings.TrimSpace(req.RecipientAddress)
	if (req.RecipientWalletID == "") == (req.RecipientAddress == "") {
		return nil, nil, fmt.Errorf("transfer: exactly one of recipient wallet and recipient address is required: %w", util.ErrInvalidInput)
	}

	source, err := c.store.GetWallet(ctx, req.SourceWalletID, requester)
	if err != nil {
		return nil, nil, fmt.Errorf("transfer: %w", err)
	}
	if req.RecipientWalletID != "" {
		if err := c.checkCounterparty(ctx, "transfer", source.ID, req.RecipientWalletID); err != nil {
			return nil, nil, err
		}
	}

	return c.move(ctx, movement{
		op:          "transfer",
		sourceID:    source.ID,
		recipientID: req.RecipientWalletID,
		amount:      req.Amount,
		debit: domain.TransferDetails{
			RecipientWalletID: req.RecipientWalletID,
			RecipientAddress:  req.RecipientAddress,
		},
		credit: domain.TransferDetails{SenderWalletID: source.ID},
	})
}

func (c *transferCoordinator) Purchase(ctx context.Context, requester domain.Requester, req PurchaseRequest) (*domain.Wallet, *domain.Transaction, error) {
	if err := validateAmount("purchase", req.Amount); err != nil {
		return nil, nil, err
	}
	req.ItemID = strings.TrimSpace(req.ItemID)
	req.SellerWalletID = strings.TrimSpace(req.SellerWalletID)
	if req.ItemID == "" || req.SellerWalletID == "" {
		return nil, nil, fmt.Errorf("purchase: item and seller wallet are required: %w", util.ErrInvalidInput)
	}

	buyer, err := c.store.GetWallet(ctx, req.BuyerWalletID, requester)
	if err != nil {
		return nil, nil, fmt.Errorf("purchase: %w", err)
	}
	if err := c.checkCounterparty(ctx, "purchase", buyer.ID, req.SellerWalletID); err != nil {
		return nil, nil, err
	}

	return c.move(ctx, movement{
		op:          "purchase",
		sourceID:    buyer.ID,
		recipientID: req.SellerWalletID,
		amount:      req.Amount,
		debit: domain.TradeDetails{
			Side:                 domain.TransactionTypePurchase,
			ItemID:               req.ItemID,
			CounterpartyWalletID: req.SellerWalletID,
		},
		credit: domain.TradeDetails{
			Side:                 domain.TransactionTypeSale,
			ItemID:               req.ItemID,
			CounterpartyWalletID: buyer.ID,
		},
	})
}

func (c *transferCoordinator) ListItem(ctx context.Context, requester domain.Requester, walletID, itemID string) (*domain.Transaction, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, fmt.Errorf("list item: item is required: %w", util.ErrInvalidInput)
	}
	wallet, err := c.store.GetWallet(ctx, walletID, requester)
	if err != nil {
		return nil, fmt.Errorf("list item: %w", err)
	}
	if !wallet.IsActive() {
		return nil, fmt.Errorf("list item: wallet %s: %w", walletID, util.ErrWalletSuspended)
	}

	entry, err := c.log.Record(ctx, walletID, decimal.Zero, domain.ListingDetails{ItemID: itemID})
	if err != nil {
		return nil, fmt.Errorf("list item: %w", err)
	}
	c.publishRecorded(ctx, entry, nil)
	return entry, nil
}

func (c *transferCoordinator) UpdateBalance(ctx context.Context, requester domain.Requester, walletID string, delta decimal.Decimal) (*domain.Wallet, error) {
	if !requester.IsAdmin {
		return nil, fmt.Errorf("update balance of wallet %s: %w", walletID, util.ErrForbidden)
	}
	if delta.IsZero() {
		return nil, fmt.Errorf("update balance: amount must not be zero: %w", util.ErrInvalidInput)
	}
	if err := checkAmount("update balance", delta); err != nil {
		return nil, err
	}

	wallet, err := c.store.AdjustBalance(ctx, walletID, delta)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	c.logger.Info("Wallet balance corrected", "wallet_id", walletID, "delta", delta.String(), "by", requester.UserID)
	return wallet, nil
}

// checkCounterparty runs before any leg is applied so that an unknown or
// suspended recipient never causes a debit.
func (c *transferCoordinator) checkCounterparty(ctx context.Context, op, sourceID, counterpartyID string) error {
	if counterpartyID == sourceID {
		return fmt.Errorf("%s: %w", op, util.ErrSameWalletTransfer)
	}
	counterparty, err := c.store.FindWallet(ctx, counterpartyID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !counterparty.IsActive() {
		return fmt.Errorf("%s: wallet %s: %w", op, counterpartyID, util.ErrWalletSuspended)
	}
	return nil
}

// applyAndRecord is the single-leg case: one balance change and one entry.
func (c *transferCoordinator) applyAndRecord(ctx context.Context, op, walletID string, delta decimal.Decimal, details domain.Details) (*domain.Wallet, *domain.Transaction, error) {
	if c.ledger != nil {
		return c.commit(ctx, op, leg{walletID: walletID, delta: delta, details: details})
	}

	wallet, err := c.store.AdjustBalance(ctx, walletID, delta)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	entry, err := c.log.Record(ctx, walletID, delta, details)
	if err != nil {
		c.undo(ctx, op, walletID, delta.Neg(), err)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	c.publishRecorded(ctx, entry, &wallet.Balance)
	return wallet, entry, nil
}

type movement struct {
	op          string
	sourceID    string
	recipientID string // empty when funds leave the ledger
	amount      decimal.Decimal
	debit       domain.Details
	credit      domain.Details
}

// move debits the source, credits the recipient and records both sides. On the
// compensating path only one wallet lock is held at a time.
func (c *transferCoordinator) move(ctx context.Context, m movement) (*domain.Wallet, *domain.Transaction, error) {
	if c.ledger != nil {
		legs := []leg{{walletID: m.sourceID, delta: m.amount.Neg(), details: m.debit}}
		if m.recipientID != "" {
			legs = append(legs, leg{walletID: m.recipientID, delta: m.amount, details: m.credit})
		}
		return c.commit(ctx, m.op, legs...)
	}

	debited, err := c.store.AdjustBalance(ctx, m.sourceID, m.amount.Neg())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", m.op, err)
	}

	if m.recipientID != "" {
		if _, err := c.store.AdjustBalance(ctx, m.recipientID, m.amount); err != nil {
			c.undo(ctx, m.op, m.sourceID, m.amount, err)
			return nil, nil, fmt.Errorf("%s: credit wallet %s: %w", m.op, m.recipientID, err)
		}
	}

	entry, err := c.log.Record(ctx, m.sourceID, m.amount.Neg(), m.debit)
	if err != nil {
		if m.recipientID != "" {
			c.undo(ctx, m.op, m.recipientID, m.amount.Neg(), err)
		}
		c.undo(ctx, m.op, m.sourceID, m.amount, err)
		return nil, nil, fmt.Errorf("%s: %w", m.op, err)
	}
	c.publishRecorded(ctx, entry, &debited.Balance)

	if m.recipientID != "" {
		// Both balances are final and the source entry exists, so a missing
		// recipient entry is reported rather than undone.
		credit, err := c.log.Record(ctx, m.recipientID, m.amount, m.credit)
		if err != nil {
			c.reconcile(ctx, m.op, m.recipientID, m.amount, "recipient log entry missing", err)
		} else {
			c.publishRecorded(ctx, credit, nil)
		}
	}

	return debited, entry, nil
}

type leg struct {
	walletID string
	delta    decimal.Decimal
	details  domain.Details
}

// commit writes all legs and their entries in one storage transaction and
// returns the first wallet and entry. Nothing needs undoing on failure.
func (c *transferCoordinator) commit(ctx context.Context, op string, legs ...leg) (*domain.Wallet, *domain.Transaction, error) {
	entries := make([]repository.LedgerEntry, 0, len(legs))
	for _, l := range legs {
		transaction, err := newEntry(l.walletID, l.delta, l.details)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, repository.LedgerEntry{
			WalletID:      l.walletID,
			Delta:         l.delta,
			RequireActive: true,
			Transaction:   transaction,
		})
	}

	wallets, err := c.ledger.ApplyEntries(ctx, entries)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(wallets) != len(entries) {
		return nil, nil, fmt.Errorf("%s: ledger returned %d wallets for %d entries: %w", op, len(wallets), len(entries), util.ErrStorageUnavailable)
	}

	for i, entry := range entries {
		c.publishRecorded(ctx, entry.Transaction, &wallets[i].Balance)
	}
	return wallets[0], entries[0].Transaction, nil
}

// undo applies a compensating delta. If that fails too the ledger needs a
// human, so a reconciliation event is raised.
func (c *transferCoordinator) undo(ctx context.Context, op, walletID string, delta decimal.Decimal, cause error) {
	undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if _, err := c.store.Compensate(undoCtx, walletID, delta); err != nil {
		c.reconcile(undoCtx, op, walletID, delta, fmt.Sprintf("compensation failed after: %v", cause), err)
		return
	}
	c.logger.Warn("Compensated partially applied operation",
		"operation", op, "wallet_id", walletID, "delta", delta.String(), "cause", cause)
}

func (c *transferCoordinator) reconcile(ctx context.Context, op, walletID string, amount decimal.Decimal, reason string, err error) {
	c.logger.Error("Reconciliation required",
		"operation", op, "wallet_id", walletID, "amount", amount.String(), "reason", reason, "error", err)

	event := &events.Event{
		Type:     events.EventReconciliationRequired,
		WalletID: walletID,
		Amount:   amount,
		Reason:   reason,
		Metadata: map[string]string{"operation": op, "error": err.Error()},
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if pubErr := c.publisher.Publish(pubCtx, event); pubErr != nil {
		c.logger.Error("Failed to publish reconciliation event", "wallet_id", walletID, "error", pubErr)
	}
}

func (c *transferCoordinator) publishRecorded(ctx context.Context, entry *domain.Transaction, balanceAfter *decimal.Decimal) {
	event := &events.Event{
		Type:            events.EventTransactionRecorded,
		WalletID:        entry.WalletID,
		TransactionID:   entry.ID,
		TransactionType: string(entry.Type),
		Amount:          entry.Amount,
		BalanceAfter:    balanceAfter,
		Timestamp:       entry.Timestamp,
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("Failed to publish transaction event", "transaction_id", entry.ID, "error", err)
	}
}

func validateAmount(op string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%s: amount must be positive: %w", op, util.ErrInvalidInput)
	}
	return checkAmount(op, amount)
}

// checkAmount bounds a signed amount to what a balance can hold. Nothing here
// formats the amount itself, since an out-of-range value may be enormous.
func checkAmount(op string, amount decimal.Decimal) error {
	if !domain.AmountInRange(amount) {
		return fmt.Errorf("%s: amount must be below %s: %w", op, domain.MaxAmount, util.ErrInvalidInput)
	}
	if !amount.Equal(amount.Truncate(domain.AmountScale)) {
		return fmt.Errorf("%s: amount has more than %d decimal places: %w", op, domain.AmountScale, util.ErrInvalidInput)
	}
	return nil
}
