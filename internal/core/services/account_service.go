package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campeconomy/camp_bank_app/internal/apperrors"
	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	portsrepo "github.com/campeconomy/camp_bank_app/internal/core/ports/repositories"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/dto"
	"github.com/campeconomy/camp_bank_app/internal/middleware"
	"github.com/campeconomy/camp_bank_app/internal/utils"
)

var (
	ErrUsernameTaken   = errors.New("username is already taken")
	ErrInvalidRole     = errors.New("invalid account role")
	ErrAccountInactive = errors.New("account is inactive")
)

// accountService provides account management on top of the account repository.
type accountService struct {
	accountRepo  portsrepo.AccountRepositoryWithTx
	initialMoney decimal.Decimal
	txnSvc       portssvc.TransactionWriterSvc
}

// AccountServiceOption configures optional dependencies of the account service.
type AccountServiceOption func(*accountService)

// WithInitialMoney sets the starting balance granted to new students.
func WithInitialMoney(amount decimal.Decimal) AccountServiceOption {
	return func(s *accountService) {
		s.initialMoney = amount
	}
}

// WithTransactionService wires the transaction service used to record the
// initial money grant as a real ledger transaction.
func WithTransactionService(txnSvc portssvc.TransactionWriterSvc) AccountServiceOption {
	return func(s *accountService) {
		s.txnSvc = txnSvc
	}
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryWithTx, opts ...AccountServiceOption) portssvc.AccountSvcFacade {
	s := &accountService{
		accountRepo: accountRepo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount registers a new participant. New students start with the
// configured initial money, recorded as a processed transaction so the grant
// shows up in their ledger history like any other movement.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	role := domain.RoleStudent
	if req.Role != "" {
		role = domain.Role(req.Role)
		switch role {
		case domain.RoleStudent, domain.RoleStaff, domain.RoleAdmin:
		default:
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, req.Role)
		}
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	account := domain.Account{
		AccountID:    uuid.NewString(),
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MiddleName:   req.MiddleName,
		Party:        req.Party,
		Grade:        req.Grade,
		Role:         role,
		Balance:      decimal.Zero,
		Certificates: decimal.Zero,
		IsActive:     true,
		PasswordHash: passwordHash,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, req.Username)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if role == domain.RoleStudent && s.txnSvc != nil && s.initialMoney.IsPositive() {
		grantReq := dto.CreateTransactionRequest{
			Type:        string(domain.TypeGeneral),
			Description: "Initial balance",
			Recipients: []dto.RecipientRequest{
				{AccountID: account.AccountID, Amount: s.initialMoney},
			},
		}
		granted, err := s.txnSvc.CreateTransaction(ctx, grantReq, creatorUserID)
		if err != nil {
			logger.Error("Failed to create initial money grant", "accountID", account.AccountID, "error", err)
			return nil, fmt.Errorf("failed to grant initial money: %w", err)
		}
		if _, err := s.txnSvc.ProcessTransaction(ctx, granted.TransactionID, creatorUserID); err != nil {
			logger.Error("Failed to process initial money grant", "accountID", account.AccountID, "error", err)
			return nil, fmt.Errorf("failed to process initial money grant: %w", err)
		}
		account.Balance = s.initialMoney
	}

	logger.Info("Account created", "accountID", account.AccountID, "role", string(role))
	return &account, nil
}

// GetAccountByID retrieves an account by ID.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return account, nil
}

// GetAccountByUsername retrieves an account by username.
func (s *accountService) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by username %s: %w", username, err)
	}
	return account, nil
}

// ListAccounts retrieves a paginated list of accounts.
func (s *accountService) ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListActiveStudents retrieves every active student account.
func (s *accountService) ListActiveStudents(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListActiveStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active students: %w", err)
	}
	return accounts, nil
}

// UpdateAccount updates profile fields. Only the account owner or a
// privileged user may update, and balance never moves through here.
func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, requestingUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if requestingUserID != accountID {
		requester, err := s.accountRepo.FindAccountByID(ctx, requestingUserID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify requesting user %s: %w", requestingUserID, err)
		}
		if !requester.Role.Privileged() {
			return nil, apperrors.ErrForbidden
		}
	}

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s for update: %w", accountID, err)
	}

	if req.FirstName != nil {
		account.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		account.LastName = *req.LastName
	}
	if req.MiddleName != nil {
		account.MiddleName = *req.MiddleName
	}
	if req.Party != nil {
		account.Party = *req.Party
	}
	if req.Grade != nil {
		account.Grade = *req.Grade
	}
	account.LastUpdatedAt = time.Now()
	account.LastUpdatedBy = requestingUserID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		return nil, fmt.Errorf("failed to update account %s: %w", accountID, err)
	}

	logger.Info("Account updated", "accountID", accountID)
	return account, nil
}

// DeactivateAccount marks an account as inactive. Privileged users only.
func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, requestingUserID string) error {
	requester, err := s.accountRepo.FindAccountByID(ctx, requestingUserID)
	if err != nil {
		return fmt.Errorf("failed to verify requesting user %s: %w", requestingUserID, err)
	}
	if !requester.Role.Privileged() {
		return apperrors.ErrForbidden
	}

	if err := s.accountRepo.DeactivateAccount(ctx, accountID, requestingUserID, time.Now()); err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}
	return nil
}

// UpdateRefreshToken updates the refresh token details for an account.
func (s *accountService) UpdateRefreshToken(ctx context.Context, accountID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error {
	return s.accountRepo.UpdateRefreshToken(ctx, accountID, refreshTokenHash, refreshTokenExpiryTime)
}

// ClearRefreshToken clears the refresh token for an account.
func (s *accountService) ClearRefreshToken(ctx context.Context, accountID string) error {
	return s.accountRepo.ClearRefreshToken(ctx, accountID)
}

// AuthenticateAccount authenticates an account with username and password.
func (s *accountService) AuthenticateAccount(ctx context.Context, username, password string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up account for authentication: %w", err)
	}

	if !account.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrAccountInactive, username)
	}

	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		return nil, apperrors.ErrUnauthorized
	}

	return account, nil
}
