// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"xr-wallet/internal/domain"
	"xr-wallet/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// transactionRow is the flat shape of a wallet_transactions row. Details stay
// raw until the type is known.
type transactionRow struct {
	ID        string                   `db:"id"`
	WalletID  string                   `db:"wallet_id"`
	Type      domain.TransactionType   `db:"type"`
	Amount    decimal.Decimal          `db:"amount"`
	Status    domain.TransactionStatus `db:"status"`
	Details   []byte                   `db:"details"`
	CreatedAt time.Time                `db:"created_at"`
}

func (row transactionRow) toDomain() (domain.Transaction, error) {
	details, err := domain.DecodeDetails(row.Type, row.Details)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	return domain.Transaction{
		ID:        row.ID,
		WalletID:  row.WalletID,
		Type:      row.Type,
		Amount:    row.Amount,
		Status:    row.Status,
		Timestamp: row.CreatedAt,
		Details:   details,
	}, nil
}

const transactionColumns = `id, wallet_id, type, amount, status, details, created_at`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct {
	db repository.DBExecutor
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &TransactionRepository{db: db}
}

// CreateTransaction inserts a new transaction record.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	details, err := domain.EncodeDetails(transaction.Details)
	if err != nil {
		return fmt.Errorf("failed to encode details of transaction %s: %w", transaction.ID, err)
	}

	query := `INSERT INTO wallet_transactions (` + transactionColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.ExecContext(ctx, query,
		transaction.ID,
		transaction.WalletID,
		transaction.Type,
		transaction.Amount,
		transaction.Status,
		details,
		transaction.Timestamp,
	)
	if err != nil {
		return classify("failed to create transaction", err)
	}
	return nil
}

// GetTransactionsByWalletID retrieves a page of a wallet's transactions, newest first.
// seq breaks ties between records written within the same timestamp.
func (r *TransactionRepository) GetTransactionsByWalletID(ctx context.Context, walletID string, limit, offset int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3`
	return r.selectMany(ctx, fmt.Sprintf("failed to fetch transactions for wallet %s", walletID), query, walletID, limit, offset)
}

// CountTransactionsByWalletID returns how many records a wallet has.
func (r *TransactionRepository) CountTransactionsByWalletID(ctx context.Context, walletID string) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = $1`, walletID)
	if err != nil {
		return 0, classify(fmt.Sprintf("failed to count transactions for wallet %s", walletID), err)
	}
	return total, nil
}

// GetTransactionsSince retrieves a wallet's records created at or after since.
func (r *TransactionRepository) GetTransactionsSince(ctx context.Context, walletID string, since time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1 AND created_at >= $2
		ORDER BY created_at DESC, seq DESC`
	return r.selectMany(ctx, fmt.Sprintf("failed to fetch recent transactions for wallet %s", walletID), query, walletID, since)
}

// GetTransactionStats counts a wallet's records by type since the given time.
func (r *TransactionRepository) GetTransactionStats(ctx context.Context, walletID string, since time.Time) (*domain.TransactionStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE type = 'purchase') AS purchases,
			COUNT(*) FILTER (WHERE type = 'sale') AS sales,
			COUNT(*) FILTER (WHERE type = 'transfer') AS transfers
		FROM wallet_transactions
		WHERE wallet_id = $1 AND created_at >= $2`

	var stats domain.TransactionStats
	row := r.db.QueryRowxContext(ctx, query, walletID, since)
	if err := row.Scan(&stats.Total, &stats.Purchases, &stats.Sales, &stats.Transfers); err != nil {
		return nil, classify(fmt.Sprintf("failed to get transaction stats for wallet %s", walletID), err)
	}
	return &stats, nil
}

func (r *TransactionRepository) selectMany(ctx context.Context, op, query string, args ...interface{}) ([]domain.Transaction, error) {
	var rows []transactionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(op, err)
	}

	transactions := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}
