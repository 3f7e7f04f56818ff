// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the type of a ledger entry.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeNFTList    TransactionType = "nft_list"
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeSale       TransactionType = "sale"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer,
		TransactionTypeNFTList, TransactionTypePurchase, TransactionTypeSale:
		return true
	}
	return false
}

// TransactionStatus defines the status of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is an immutable ledger entry. Amount is signed: positive credits
// the wallet, negative debits it.
type Transaction struct {
	ID        string            `json:"id"`
	WalletID  string            `json:"wallet_id"`
	Type      TransactionType   `json:"type"`
	Amount    decimal.Decimal   `json:"amount"`
	Status    TransactionStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Details   Details           `json:"details"`
}

// NewTransaction creates a new Transaction. Withdrawals start pending until the
// external settlement confirms them; everything else is completed.
func NewTransaction(walletID string, amount decimal.Decimal, details Details) *Transaction {
	txType := details.TransactionType()
	status := TransactionStatusCompleted
	if txType == TransactionTypeWithdrawal {
		status = TransactionStatusPending
	}
	return &Transaction{
		ID:        uuid.NewString(),
		WalletID:  walletID,
		Type:      txType,
		Amount:    amount,
		Status:    status,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
}

// TransactionStats summarizes a wallet's activity over a window.
type TransactionStats struct {
	Total     int64 `json:"total"`
	Purchases int64 `json:"purchases"`
	Sales     int64 `json:"sales"`
	Transfers int64 `json:"transfers"`
}

// Add counts one entry of the given type.
func (s *TransactionStats) Add(t TransactionType) {
	s.Total++
	switch t {
	case TransactionTypePurchase:
		s.Purchases++
	case TransactionTypeSale:
		s.Sales++
	case TransactionTypeTransfer:
		s.Transfers++
	}
}
