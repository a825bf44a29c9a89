package repositories

import (
	"context"
	"time"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByUsername retrieves an account by its login name.
	FindAccountByUsername(ctx context.Context, username string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)

	// ListActiveStudents retrieves every active non-privileged account.
	// Assessments (tax, fine runs) iterate over this set.
	ListActiveStudents(ctx context.Context) ([]domain.Account, error)

	// EconomyTotals returns the count and balance sum over active students.
	EconomyTotals(ctx context.Context) (int, decimal.Decimal, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's profile details. Balance
	// and counters are never written through this method.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error

	// UpdateRefreshToken stores the hash and expiry of an account's refresh token.
	UpdateRefreshToken(ctx context.Context, accountID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error

	// ClearRefreshToken removes an account's stored refresh token details.
	ClearRefreshToken(ctx context.Context, accountID string) error
}

// AccountTransactionSupport defines operations used inside ledger processing.
type AccountTransactionSupport interface {
	// FindAccountsByIDsForUpdate selects accounts and locks them for update
	// within the given database transaction. Implementations must lock in a
	// deterministic order to avoid deadlocks between concurrent processors.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// ApplyAccountDeltasInTx applies balance and counter deltas to multiple
	// accounts within a given transaction.
	ApplyAccountDeltasInTx(ctx context.Context, tx pgx.Tx, deltas map[string]domain.AccountDelta, userID string, now time.Time) error
}

// AccountRepository combines all account-related repository interfaces.
type AccountRepository interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}

// AccountRepositoryWithTx extends AccountRepository with transaction capabilities.
type AccountRepositoryWithTx interface {
	AccountRepository
	TransactionManager
}
