package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/campeconomy/camp_bank_app/internal/apperrors"
	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	portsrepo "github.com/campeconomy/camp_bank_app/internal/core/ports/repositories"
	"github.com/campeconomy/camp_bank_app/internal/models"
	"github.com/campeconomy/camp_bank_app/internal/utils/mapping"
	"github.com/campeconomy/camp_bank_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `transaction_id, creator_id, type, description, state, supersedes_id,
	created_at, created_by, last_updated_at, last_updated_by`

const entryColumns = `entry_id, transaction_id, account_id, bucks, certificates,
	lab, lecture, seminar, faculty, description, counted,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for ledger data.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryWithTx {
	return &PgxTransactionRepository{BaseRepository{Pool: pool}}
}

// Ensure PgxTransactionRepository implements portsrepo.TransactionRepositoryWithTx
var _ portsrepo.TransactionRepositoryWithTx = (*PgxTransactionRepository)(nil)

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.CreatorID,
		&m.Type,
		&m.Description,
		&m.State,
		&m.SupersedesID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanEntry(row rowScanner) (models.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID,
		&m.TransactionID,
		&m.AccountID,
		&m.Bucks,
		&m.Certificates,
		&m.Lab,
		&m.Lecture,
		&m.Seminar,
		&m.Faculty,
		&m.Description,
		&m.Counted,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveTransaction persists a transaction header and its entries in one atomic
// commit. No account is touched here; balances only move when the transaction
// is processed.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer r.Rollback(ctx, tx) // Ignored if the commit succeeds

	modelTxn := mapping.ToModelTransaction(txn)
	headerQuery := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = tx.Exec(ctx, headerQuery,
		modelTxn.TransactionID,
		modelTxn.CreatorID,
		modelTxn.Type,
		modelTxn.Description,
		modelTxn.State,
		modelTxn.SupersedesID,
		modelTxn.CreatedAt,
		modelTxn.CreatedBy,
		modelTxn.LastUpdatedAt,
		modelTxn.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert transaction "+modelTxn.TransactionID, err)
	}

	batch := &pgx.Batch{}
	entryQuery := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	for _, entry := range entries {
		m := mapping.ToModelLedgerEntry(entry)
		batch.Queue(entryQuery,
			m.EntryID,
			m.TransactionID,
			m.AccountID,
			m.Bucks,
			m.Certificates,
			m.Lab,
			m.Lecture,
			m.Seminar,
			m.Faculty,
			m.Description,
			m.Counted,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute entry batch for transaction "+modelTxn.TransactionID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction "+modelTxn.TransactionID, err)
	}

	return nil
}

// FindTransactionByID retrieves a transaction header without its entries.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}

	d := mapping.ToDomainTransaction(m)
	return &d, nil
}

// FindEntriesByTransactionID retrieves all ledger entries owned by one transaction.
func (r *PgxTransactionRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY entry_id;`

	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row for transaction %s: %w", transactionID, err)
		}
		entries = append(entries, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows for transaction %s: %w", transactionID, err)
	}

	return mapping.ToDomainLedgerEntrySlice(entries), nil
}

// findEntriesByTransactionIDs loads entries for a batch of transactions in one
// query, keyed by transaction ID.
func (r *PgxTransactionRepository) findEntriesByTransactionIDs(ctx context.Context, transactionIDs []string) (map[string][]domain.LedgerEntry, error) {
	if len(transactionIDs) == 0 {
		return map[string][]domain.LedgerEntry{}, nil
	}

	query := `SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, entry_id;`

	rows, err := r.Pool.Query(ctx, query, transactionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for transaction batch: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.LedgerEntry)
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row during batch fetch: %w", err)
		}
		result[m.TransactionID] = append(result[m.TransactionID], mapping.ToDomainLedgerEntry(m))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows during batch fetch: %w", err)
	}

	return result, nil
}

// ListTransactions retrieves a token-paginated list of transactions with
// their entries, newest first, optionally filtered to one creator.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, creatorID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to determine whether there is a next page.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	orderByClause := `ORDER BY created_at DESC, transaction_id DESC`

	args := []interface{}{}
	if creatorID != "" {
		args = append(args, creatorID)
		baseQuery += ` AND creator_id = $` + strconv.Itoa(len(args))
	}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastCreatedAt, lastID)
		baseQuery += ` AND (created_at, transaction_id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions", err)
	}
	defer rows.Close()

	headers := make([]models.Transaction, 0, fetchLimit)
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		headers = append(headers, m)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows", err)
	}

	var nextTokenVal *string
	if len(headers) > limit {
		last := headers[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		nextTokenVal = &token
		headers = headers[:limit]
	}

	txns := mapping.ToDomainTransactionSlice(headers)

	ids := make([]string, len(txns))
	for i := range txns {
		ids[i] = txns[i].TransactionID
	}
	entriesByTxn, err := r.findEntriesByTransactionIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	for i := range txns {
		txns[i].Entries = entriesByTxn[txns[i].TransactionID]
	}

	return txns, nextTokenVal, nil
}

// ListEntriesByAccountID retrieves a token-paginated ledger history for an
// account. Only counted entries of processed transactions appear; declined
// and substituted history is excluded.
func (r *PgxTransactionRepository) ListEntriesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT e.entry_id, e.transaction_id, e.account_id, e.bucks, e.certificates,
			e.lab, e.lecture, e.seminar, e.faculty, e.description, e.counted,
			e.created_at, e.created_by, e.last_updated_at, e.last_updated_by
		FROM ledger_entries e
		JOIN transactions t ON e.transaction_id = t.transaction_id
		WHERE e.account_id = $1 AND e.counted = TRUE AND t.state = $2
	`
	orderByClause := `ORDER BY e.created_at DESC, e.entry_id DESC`

	args := []interface{}{accountID, string(domain.StateProcessed)}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastCreatedAt, lastID)
		baseQuery += ` AND (e.created_at, e.entry_id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query entries for account "+accountID, err)
	}
	defer rows.Close()

	entries := make([]models.LedgerEntry, 0, fetchLimit)
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row for account "+accountID, err)
		}
		entries = append(entries, m)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows for account "+accountID, err)
	}

	var nextTokenVal *string
	if len(entries) > limit {
		last := entries[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		nextTokenVal = &token
		entries = entries[:limit]
	}

	return mapping.ToDomainLedgerEntrySlice(entries), nextTokenVal, nil
}

// SumCountedEffects recomputes an account's balance and counters from its
// counted entries. Transfer debits have no entry row of their own, so the
// bucks total also subtracts the counted entries of every p2p transaction
// the account created. Reconciliation compares the result against the
// denormalized account columns.
func (r *PgxTransactionRepository) SumCountedEffects(ctx context.Context, accountID string) (domain.AccountDelta, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(bucks), 0) FROM ledger_entries
				WHERE account_id = $1 AND counted = TRUE)
			- (SELECT COALESCE(SUM(e.bucks), 0) FROM ledger_entries e
				JOIN transactions t ON t.transaction_id = e.transaction_id
				WHERE t.creator_id = $1 AND t.type = 'p2p' AND e.counted = TRUE),
			COALESCE(SUM(certificates), 0),
			COALESCE(SUM(lab), 0), COALESCE(SUM(lecture), 0),
			COALESCE(SUM(seminar), 0), COALESCE(SUM(faculty), 0)
		FROM ledger_entries
		WHERE account_id = $1 AND counted = TRUE;
	`

	var delta domain.AccountDelta
	err := r.Pool.QueryRow(ctx, query, accountID).Scan(
		&delta.Bucks,
		&delta.Certs,
		&delta.Lab,
		&delta.Lecture,
		&delta.Seminar,
		&delta.Faculty,
	)
	if err != nil {
		return domain.AccountDelta{}, fmt.Errorf("failed to sum counted effects for account %s: %w", accountID, err)
	}
	return delta, nil
}

// FindTransactionByIDForUpdate retrieves and row-locks a transaction inside
// the given database transaction.
func (r *PgxTransactionRepository) FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1 FOR UPDATE;`

	m, err := scanTransaction(tx.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find and lock transaction %s: %w", transactionID, err)
	}

	d := mapping.ToDomainTransaction(m)
	return &d, nil
}

// UpdateTransactionStateInTx flips the state from exactly the expected prior
// state. Zero rows affected means another caller won the race.
func (r *PgxTransactionRepository) UpdateTransactionStateInTx(ctx context.Context, tx pgx.Tx, transactionID string, from, to domain.TransactionState, updatedBy string, now time.Time) error {
	query := `
		UPDATE transactions
		SET state = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1 AND state = $2;
	`

	cmdTag, err := tx.Exec(ctx, query, transactionID, string(from), string(to), now, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update state of transaction %s: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s no longer in state %s", apperrors.ErrConflict, transactionID, from)
	}
	return nil
}

// SetEntriesCountedInTx marks every entry of a transaction counted or
// uncounted, verifying the prior value of each row.
func (r *PgxTransactionRepository) SetEntriesCountedInTx(ctx context.Context, tx pgx.Tx, transactionID string, counted bool, updatedBy string, now time.Time) error {
	var total int
	countQuery := `SELECT COUNT(*) FROM ledger_entries WHERE transaction_id = $1;`
	if err := tx.QueryRow(ctx, countQuery, transactionID).Scan(&total); err != nil {
		return fmt.Errorf("failed to count entries of transaction %s: %w", transactionID, err)
	}

	query := `
		UPDATE ledger_entries
		SET counted = $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = $1 AND counted = $5;
	`

	cmdTag, err := tx.Exec(ctx, query, transactionID, counted, now, updatedBy, !counted)
	if err != nil {
		return fmt.Errorf("failed to update counted flag for transaction %s: %w", transactionID, err)
	}
	if int(cmdTag.RowsAffected()) != total {
		return fmt.Errorf("%w: counted flag of transaction %s entries was not %t for every row", apperrors.ErrConflict, transactionID, !counted)
	}
	return nil
}
