package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/campeconomy/camp_bank_app/internal/apperrors"
	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	portsrepo "github.com/campeconomy/camp_bank_app/internal/core/ports/repositories"
	"github.com/campeconomy/camp_bank_app/internal/models"
	"github.com/campeconomy/camp_bank_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, username, password_hash, first_name, last_name, middle_name,
	party, grade, role, balance, certificates,
	lab_count, lecture_count, seminar_count, faculty_count,
	is_active, created_at, created_by, last_updated_at, last_updated_by,
	refresh_token_hash, refresh_token_expiry_time`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryWithTx {
	return &PgxAccountRepository{BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryWithTx
var _ portsrepo.AccountRepositoryWithTx = (*PgxAccountRepository)(nil)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Username,
		&m.PasswordHash,
		&m.FirstName,
		&m.LastName,
		&m.MiddleName,
		&m.Party,
		&m.Grade,
		&m.Role,
		&m.Balance,
		&m.Certificates,
		&m.LabCount,
		&m.LectureCount,
		&m.SeminarCount,
		&m.FacultyCount,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&m.RefreshTokenHash,
		&m.RefreshTokenExpiryTime,
	)
	return m, err
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)

	query := `
		INSERT INTO accounts (account_id, username, password_hash, first_name, last_name, middle_name,
			party, grade, role, balance, certificates,
			lab_count, lecture_count, seminar_count, faculty_count,
			is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`

	_, err := r.Pool.Exec(ctx, query,
		m.AccountID,
		m.Username,
		m.PasswordHash,
		m.FirstName,
		m.LastName,
		m.MiddleName,
		m.Party,
		m.Grade,
		m.Role,
		m.Balance,
		m.Certificates,
		m.LabCount,
		m.LectureCount,
		m.SeminarCount,
		m.FacultyCount,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // Unique violation
				return fmt.Errorf("%w: account with username %s already exists", apperrors.ErrDuplicate, m.Username)
			}
		}
		return fmt.Errorf("failed to save account %s: %w", m.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`

	m, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}

	d := mapping.ToDomainAccount(m)
	return &d, nil
}

// FindAccountByUsername retrieves an account by its login name.
func (r *PgxAccountRepository) FindAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1;`

	m, err := scanAccount(r.Pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by username %s: %w", username, err)
	}

	d := mapping.ToDomainAccount(m)
	return &d, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1);`

	rows, err := r.Pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row during batch fetch: %w", err)
		}
		accountsMap[m.AccountID] = mapping.ToDomainAccount(m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows during batch fetch: %w", err)
	}

	// Callers check whether every requested ID came back.
	return accountsMap, nil
}

// ListAccounts retrieves a paginated list of active accounts.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE is_active = TRUE
		ORDER BY last_name, first_name
		LIMIT $1 OFFSET $2;`

	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, mapping.ToDomainAccount(m))
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", rows.Err())
	}

	return accounts, nil
}

// ListActiveStudents retrieves every active student account. Tax and fine
// assessments iterate over this set, so it is not paginated.
func (r *PgxAccountRepository) ListActiveStudents(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE is_active = TRUE AND role = $1
		ORDER BY last_name, first_name;`

	rows, err := r.Pool.Query(ctx, query, string(domain.RoleStudent))
	if err != nil {
		return nil, fmt.Errorf("failed to query active students: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		accounts = append(accounts, mapping.ToDomainAccount(m))
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", rows.Err())
	}

	return accounts, nil
}

// EconomyTotals returns the active student count and their balance sum.
func (r *PgxAccountRepository) EconomyTotals(ctx context.Context) (int, decimal.Decimal, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(balance), 0)
		FROM accounts
		WHERE is_active = TRUE AND role = $1;
	`

	var count int
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, string(domain.RoleStudent)).Scan(&count, &total); err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to query economy totals: %w", err)
	}
	return count, total, nil
}

// UpdateAccount updates an existing account's profile fields.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)

	query := `
		UPDATE accounts
		SET first_name = $2, last_name = $3, middle_name = $4, party = $5, grade = $6,
			is_active = $7, last_updated_at = $8, last_updated_by = $9
		WHERE account_id = $1;
	`
	// Balance, certificates and counters are deliberately absent here; only
	// ApplyAccountDeltasInTx writes them.

	cmdTag, err := r.Pool.Exec(ctx, query,
		m.AccountID,
		m.FirstName,
		m.LastName,
		m.MiddleName,
		m.Party,
		m.Grade,
		m.IsActive,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)

	if err != nil {
		return fmt.Errorf("failed to execute update account %s: %w", m.AccountID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeactivateAccount marks an account as inactive.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND is_active = TRUE;
	`

	cmdTag, err := r.Pool.Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to execute deactivate account %s: %w", accountID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		// Either the account does not exist or it was already inactive.
		_, findErr := r.FindAccountByID(ctx, accountID)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		} else if findErr != nil {
			return fmt.Errorf("failed to check account status after deactivation attempt for %s: %w", accountID, findErr)
		}
		return apperrors.ErrValidation
	}

	return nil
}

// UpdateRefreshToken stores the hash and expiry of an account's refresh token.
func (r *PgxAccountRepository) UpdateRefreshToken(ctx context.Context, accountID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error {
	query := `
		UPDATE accounts
		SET refresh_token_hash = $2, refresh_token_expiry_time = $3, last_updated_at = NOW(), last_updated_by = $1
		WHERE account_id = $1;
	`

	cmdTag, err := r.Pool.Exec(ctx, query, accountID, refreshTokenHash, refreshTokenExpiryTime)
	if err != nil {
		return fmt.Errorf("failed to update refresh token for account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ClearRefreshToken removes an account's stored refresh token details.
func (r *PgxAccountRepository) ClearRefreshToken(ctx context.Context, accountID string) error {
	query := `
		UPDATE accounts
		SET refresh_token_hash = NULL, refresh_token_expiry_time = NULL, last_updated_at = NOW(), last_updated_by = $1
		WHERE account_id = $1;
	`

	cmdTag, err := r.Pool.Exec(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("failed to clear refresh token for account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindAccountsByIDsForUpdate retrieves multiple accounts by IDs and locks the
// rows for update. Must be called within a transaction. IDs are locked in
// sorted order so concurrent processors never deadlock on each other.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	sorted := make([]string, len(accountIDs))
	copy(sorted, accountIDs)
	sort.Strings(sorted)

	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;`

	rows, err := tx.Query(ctx, query, sorted)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs for update: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accountsMap[m.AccountID] = mapping.ToDomainAccount(m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked account rows: %w", err)
	}

	if len(accountsMap) != len(sorted) {
		missing := []string{}
		for _, id := range sorted {
			if _, found := accountsMap[id]; !found {
				missing = append(missing, id)
			}
		}
		slog.WarnContext(ctx, "Some accounts requested for update lock were not found", "missing_accounts", missing)
		return nil, fmt.Errorf("%w: could not find or lock all requested accounts, missing: %v", apperrors.ErrNotFound, missing)
	}

	return accountsMap, nil
}

// ApplyAccountDeltasInTx applies balance, certificate and counter deltas to
// multiple accounts within a transaction.
func (r *PgxAccountRepository) ApplyAccountDeltasInTx(ctx context.Context, tx pgx.Tx, deltas map[string]domain.AccountDelta, userID string, now time.Time) error {
	if len(deltas) == 0 {
		return nil
	}

	query := `
		UPDATE accounts
		SET balance = COALESCE(balance, 0) + $2,
			certificates = COALESCE(certificates, 0) + $3,
			lab_count = lab_count + $4,
			lecture_count = lecture_count + $5,
			seminar_count = seminar_count + $6,
			faculty_count = faculty_count + $7,
			last_updated_at = $8,
			last_updated_by = $9
		WHERE account_id = $1;
	`

	batch := &pgx.Batch{}
	accountIDs := make([]string, 0, len(deltas))
	for accountID, delta := range deltas {
		if delta.IsZero() {
			continue
		}
		batch.Queue(query, accountID, delta.Bucks, delta.Certs, delta.Lab, delta.Lecture, delta.Seminar, delta.Faculty, now, userID)
		accountIDs = append(accountIDs, accountID)
	}

	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	updatedCount := 0
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to apply delta for account %s: %w", accountIDs[i], err)
			}
		} else if ct.RowsAffected() == 0 {
			if batchErr == nil {
				batchErr = fmt.Errorf("%w: account %s not found during delta application", apperrors.ErrNotFound, accountIDs[i])
			}
		} else {
			updatedCount++
		}
	}

	err := br.Close()
	if err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close account delta batch: %w", err)
	}

	if batchErr != nil {
		return batchErr
	}

	if updatedCount != batch.Len() {
		slog.WarnContext(ctx, "Mismatch between expected and actual account delta updates", "expected", batch.Len(), "actual", updatedCount)
	}

	return nil
}
