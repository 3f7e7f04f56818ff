// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"xr-wallet/internal/domain"
	"xr-wallet/internal/repository"
	"xr-wallet/internal/util"
	"xr-wallet/pkg/db"

	"github.com/jmoiron/sqlx"
)

// LedgerRepository implements repository.LedgerRepository for PostgreSQL. Every
// call is one database transaction: the wallet rows are locked, the balances
// written and the transaction records inserted before a single commit.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(database *sqlx.DB) repository.LedgerRepository {
	return &LedgerRepository{db: database}
}

// ApplyEntries writes all entries in one transaction or rolls everything back.
func (r *LedgerRepository) ApplyEntries(ctx context.Context, entries []repository.LedgerEntry) ([]*domain.Wallet, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	tx, err := db.BeginTx(ctx, r.db)
	if err != nil {
		return nil, classify("apply ledger entries: failed to begin transaction", err)
	}
	defer db.RollbackTx(tx)

	// Rows are locked in id order so two opposite transfers cannot deadlock.
	wallets := make(map[string]*domain.Wallet, len(entries))
	for _, id := range lockOrder(entries) {
		wallet, err := getWallet(ctx, tx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return nil, fmt.Errorf("lock wallet %s: %w", id, err)
		}
		wallets[id] = wallet
	}

	transactions := &TransactionRepository{db: tx}
	updated := make([]*domain.Wallet, 0, len(entries))
	for _, entry := range entries {
		wallet := wallets[entry.WalletID]
		if entry.RequireActive && !wallet.IsActive() {
			return nil, fmt.Errorf("wallet %s: %w", entry.WalletID, util.ErrWalletSuspended)
		}
		newBalance := wallet.Balance.Add(entry.Delta)
		if newBalance.IsNegative() {
			return nil, fmt.Errorf("adjust balance of wallet %s by %s: %w", entry.WalletID, entry.Delta, util.ErrInsufficientFunds)
		}
		if !domain.AmountInRange(newBalance) {
			return nil, fmt.Errorf("adjust balance of wallet %s: balance must stay below %s: %w", entry.WalletID, domain.MaxAmount, util.ErrInvalidInput)
		}

		query := `UPDATE wallets
		          SET balance = $1, version = version + 1, updated_at = $2
		          WHERE id = $3
		          RETURNING ` + walletColumns
		wallet, err = getWallet(ctx, tx, query, newBalance, time.Now().UTC(), entry.WalletID)
		if err != nil {
			return nil, fmt.Errorf("adjust balance of wallet %s: %w", entry.WalletID, err)
		}
		wallets[entry.WalletID] = wallet

		if entry.Transaction != nil {
			if err := transactions.CreateTransaction(ctx, entry.Transaction); err != nil {
				return nil, fmt.Errorf("record %s for wallet %s: %w", entry.Transaction.Type, entry.WalletID, err)
			}
		}
		updated = append(updated, wallet)
	}

	if err := db.CommitTx(tx); err != nil {
		return nil, classify("apply ledger entries: failed to commit transaction", err)
	}
	return updated, nil
}

func lockOrder(entries []repository.LedgerEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.WalletID]; ok {
			continue
		}
		seen[entry.WalletID] = struct{}{}
		ids = append(ids, entry.WalletID)
	}
	sort.Strings(ids)
	return ids
}
