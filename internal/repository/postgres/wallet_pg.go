// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"xr-wallet/internal/domain"
	"xr-wallet/internal/repository"
	"xr-wallet/internal/util"
	"xr-wallet/pkg/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, owner_id, balance, linked_accounts, status, version, created_at, updated_at`

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(database *sqlx.DB) repository.WalletRepository {
	return &WalletRepository{db: database}
}

// CreateWallet inserts a new wallet. The UNIQUE constraint on owner_id turns a
// second wallet for the same owner into util.ErrConflict.
func (r *WalletRepository) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (` + walletColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		wallet.ID,
		wallet.OwnerID,
		wallet.Balance,
		wallet.LinkedAccounts,
		wallet.Status,
		wallet.Version,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		return classify("failed to create wallet", err)
	}
	return nil
}

// GetWalletByID retrieves a wallet by its ID.
func (r *WalletRepository) GetWalletByID(ctx context.Context, id string) (*domain.Wallet, error) {
	return getWallet(ctx, r.db, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
}

// GetWalletByOwnerID retrieves a wallet by its owner.
func (r *WalletRepository) GetWalletByOwnerID(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	return getWallet(ctx, r.db, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1`, ownerID)
}

// UpdateWalletBalance writes a new balance guarded by the version column.
func (r *WalletRepository) UpdateWalletBalance(ctx context.Context, walletID string, newBalance decimal.Decimal, expectedVersion int64) (*domain.Wallet, error) {
	query := `UPDATE wallets
              SET balance = $1, version = version + 1, updated_at = $2
              WHERE id = $3 AND version = $4
              RETURNING ` + walletColumns
	var wallet domain.Wallet
	err := r.db.GetContext(ctx, &wallet, query, newBalance, time.Now().UTC(), walletID, expectedVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the wallet is gone or someone else wrote first; the caller re-reads to tell which.
			return nil, fmt.Errorf("update balance for wallet %s: %w", walletID, util.ErrVersionConflict)
		}
		return nil, classify(fmt.Sprintf("failed to update balance for wallet %s", walletID), err)
	}
	return &wallet, nil
}

// UpdateWalletStatus sets the status of a wallet.
func (r *WalletRepository) UpdateWalletStatus(ctx context.Context, walletID string, status domain.WalletStatus) (*domain.Wallet, error) {
	query := `UPDATE wallets
              SET status = $1, version = version + 1, updated_at = $2
              WHERE id = $3
              RETURNING ` + walletColumns
	return getWallet(ctx, r.db, query, status, time.Now().UTC(), walletID)
}

// AddLinkedAccount appends an external account inside a transaction holding a
// row lock, so concurrent links to the same wallet cannot drop each other.
func (r *WalletRepository) AddLinkedAccount(ctx context.Context, walletID string, account domain.LinkedAccount) (*domain.Wallet, error) {
	tx, err := db.BeginTx(ctx, r.db)
	if err != nil {
		return nil, classify("link account: failed to begin transaction", err)
	}
	defer db.RollbackTx(tx)

	wallet, err := getWallet(ctx, tx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.LinkedAccounts.Has(account.Address) {
		return nil, fmt.Errorf("link account %s to wallet %s: %w", account.Address, walletID, util.ErrConflict)
	}

	linked := append(wallet.LinkedAccounts, account)
	query := `UPDATE wallets
              SET linked_accounts = $1, version = version + 1, updated_at = $2
              WHERE id = $3
              RETURNING ` + walletColumns
	updated, err := getWallet(ctx, tx, query, linked, time.Now().UTC(), walletID)
	if err != nil {
		return nil, err
	}

	if err := db.CommitTx(tx); err != nil {
		return nil, classify("link account: failed to commit transaction", err)
	}
	return updated, nil
}

// DeleteWalletByOwnerID removes the owner's wallet.
func (r *WalletRepository) DeleteWalletByOwnerID(ctx context.Context, ownerID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wallets WHERE owner_id = $1`, ownerID)
	if err != nil {
		return classify(fmt.Sprintf("failed to delete wallet of owner %s", ownerID), err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify("failed to get rows affected after deleting wallet", err)
	}
	if rowsAffected == 0 {
		return util.ErrWalletNotFound
	}
	return nil
}

func getWallet(ctx context.Context, q repository.DBExecutor, query string, args ...interface{}) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := q.GetContext(ctx, &wallet, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrWalletNotFound
		}
		return nil, classify("failed to get wallet", err)
	}
	return &wallet, nil
}
