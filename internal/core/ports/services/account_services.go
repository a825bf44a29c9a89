package services

import (
	"context"
	"time"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/campeconomy/camp_bank_app/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves an account by ID.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountByUsername retrieves an account by username.
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts.
	ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error)

	// ListActiveStudents retrieves every active student account.
	ListActiveStudents(ctx context.Context) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount registers a new account and grants it the initial money.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)

	// UpdateAccount updates profile fields of an existing account.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, requestingUserID string) (*domain.Account, error)

	// UpdateRefreshToken updates the refresh token details for an account.
	UpdateRefreshToken(ctx context.Context, accountID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error

	// ClearRefreshToken clears the refresh token for an account.
	ClearRefreshToken(ctx context.Context, accountID string) error
}

// AccountLifecycleSvc defines operations for managing account lifecycle
type AccountLifecycleSvc interface {
	// DeactivateAccount marks an account as inactive (soft delete).
	DeactivateAccount(ctx context.Context, accountID string, requestingUserID string) error
}

// AccountAuthSvc defines operations for account authentication
type AccountAuthSvc interface {
	// AuthenticateAccount authenticates an account with username and password.
	AuthenticateAccount(ctx context.Context, username, password string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountLifecycleSvc
	AccountAuthSvc
}
