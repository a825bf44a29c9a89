package repositories

import (
	"context"
	"time"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// TransactionReader defines read operations for the ledger.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction header without its entries.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindEntriesByTransactionID retrieves all ledger entries owned by one transaction.
	FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)

	// ListTransactions retrieves a token-paginated list of transactions,
	// optionally filtered to one creator (empty string means no filter).
	ListTransactions(ctx context.Context, creatorID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)

	// ListEntriesByAccountID retrieves a token-paginated ledger history for
	// an account, counted entries of processed transactions only.
	ListEntriesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// SumCountedEffects recomputes an account's balance and counters from its
	// counted entries. Reconciliation checks compare this against the
	// denormalized columns.
	SumCountedEffects(ctx context.Context, accountID string) (domain.AccountDelta, error)
}

// TransactionWriter defines write operations for the ledger.
type TransactionWriter interface {
	// SaveTransaction persists a transaction header and its entries in one
	// atomic commit, all entries uncounted, state created.
	SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry) error

	// FindTransactionByIDForUpdate retrieves and row-locks a transaction
	// inside the given database transaction. This is the concurrency gate
	// for process/decline/substitute.
	FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.Transaction, error)

	// UpdateTransactionStateInTx flips the state from exactly the expected
	// prior state (compare-and-swap). Zero rows affected means another
	// caller won the race; implementations return apperrors.ErrConflict.
	UpdateTransactionStateInTx(ctx context.Context, tx pgx.Tx, transactionID string, from, to domain.TransactionState, updatedBy string, now time.Time) error

	// SetEntriesCountedInTx marks every entry of a transaction counted or
	// uncounted, verifying the prior value of each row.
	SetEntriesCountedInTx(ctx context.Context, tx pgx.Tx, transactionID string, counted bool, updatedBy string, now time.Time) error
}

// TransactionRepository combines the ledger repository interfaces.
type TransactionRepository interface {
	TransactionReader
	TransactionWriter
}

// TransactionRepositoryWithTx extends TransactionRepository with transaction capabilities.
type TransactionRepositoryWithTx interface {
	TransactionRepository
	TransactionManager
}
