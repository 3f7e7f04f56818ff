// internal/domain/wallet.go
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amounts and balances are stored as NUMERIC(30, 8).
const (
	// AmountScale is the number of fractional digits the ledger keeps.
	AmountScale = 8
	// amountIntegerDigits is the number of digits left of the decimal point.
	amountIntegerDigits = 22
	// minAmountExponent admits trailing zeros well past AmountScale while
	// keeping comparisons on hostile input cheap.
	minAmountExponent = -64
)

// MaxAmount is the exclusive upper bound of any amount or balance magnitude.
var MaxAmount = decimal.New(1, amountIntegerDigits)

// AmountInRange reports whether |d| is below MaxAmount. The exponent is checked
// before any arithmetic, so inputs like 1e20000000 are never expanded.
func AmountInRange(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	if exp := d.Exponent(); exp < minAmountExponent || exp >= amountIntegerDigits {
		return false
	}
	return d.Abs().LessThan(MaxAmount)
}

// WalletStatus is the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusSuspended WalletStatus = "suspended"
)

// Valid reports whether s is a known status.
func (s WalletStatus) Valid() bool {
	return s == WalletStatusActive || s == WalletStatusSuspended
}

// LinkedAccount is an external blockchain address connected to a wallet.
type LinkedAccount struct {
	Address     string    `json:"address"`
	Type        string    `json:"type"`
	ConnectedAt time.Time `json:"connected_at"`
}

// LinkedAccounts is stored as a single JSONB column.
type LinkedAccounts []LinkedAccount

// Value implements driver.Valuer.
func (l LinkedAccounts) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *LinkedAccounts) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = LinkedAccounts{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("linked accounts: unsupported scan type %T", src)
	}
	accounts := LinkedAccounts{}
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return fmt.Errorf("linked accounts: %w", err)
	}
	*l = accounts
	return nil
}

// Has reports whether address is already linked.
func (l LinkedAccounts) Has(address string) bool {
	for _, a := range l {
		if a.Address == address {
			return true
		}
	}
	return false
}

// Wallet represents a user's internal token wallet.
type Wallet struct {
	ID             string          `db:"id" json:"id"`
	OwnerID        string          `db:"owner_id" json:"owner_id"`
	Balance        decimal.Decimal `db:"balance" json:"balance"`
	LinkedAccounts LinkedAccounts  `db:"linked_accounts" json:"linked_accounts"`
	Status         WalletStatus    `db:"status" json:"status"`
	Version        int64           `db:"version" json:"version"` // bumped on every write, used for optimistic locking
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// NewWallet creates a new active Wallet with a zero balance.
func NewWallet(ownerID string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Balance:        decimal.Zero,
		LinkedAccounts: LinkedAccounts{},
		Status:         WalletStatusActive,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy so callers never share the linked accounts slice.
func (w *Wallet) Clone() *Wallet {
	c := *w
	c.LinkedAccounts = append(LinkedAccounts{}, w.LinkedAccounts...)
	return &c
}

// IsActive reports whether the wallet accepts balance mutations.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// CanBeAccessedBy reports whether the requester owns the wallet or is an admin.
func (w *Wallet) CanBeAccessedBy(r Requester) bool {
	return r.IsAdmin || (r.UserID != "" && r.UserID == w.OwnerID)
}
