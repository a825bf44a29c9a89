package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campeconomy/camp_bank_app/internal/apperrors"
	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	portsrepo "github.com/campeconomy/camp_bank_app/internal/core/ports/repositories"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/dto"
	"github.com/campeconomy/camp_bank_app/internal/middleware"
)

var (
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrUnknownReference       = errors.New("superseded transaction not found")
	ErrSupersedesMismatch     = errors.New("replacement cannot change the original transaction's creator or type")
	ErrNonPositiveAmount      = errors.New("recipient amount must be positive for peer transfers")
)

// transactionService provides the ledger operations: opening transactions and
// driving them through their lifecycle.
type transactionService struct {
	txnRepo     portsrepo.TransactionRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryWithTx
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(txnRepo portsrepo.TransactionRepositoryWithTx, accountRepo portsrepo.AccountRepositoryWithTx) portssvc.TransactionSvcFacade {
	return &transactionService{
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
	}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// withTx runs fn inside one database transaction, committing on success.
func (s *transactionService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.txnRepo.Begin(ctx)
	if err != nil {
		return err
	}
	defer s.txnRepo.Rollback(ctx, tx) // Ignored if the commit succeeds

	if err := fn(tx); err != nil {
		return err
	}

	return s.txnRepo.Commit(ctx, tx)
}

// effectDeltas accumulates the per-account effect of processing the
// transaction. Undoing is the exact negation.
func effectDeltas(t *domain.Transaction) map[string]domain.AccountDelta {
	deltas := make(map[string]domain.AccountDelta)
	for i := range t.Entries {
		e := &t.Entries[i]
		deltas[e.AccountID] = deltas[e.AccountID].Add(e.Effect())
	}
	if t.Type == domain.TypeP2P {
		deltas[t.CreatorID] = deltas[t.CreatorID].Add(domain.AccountDelta{Bucks: t.TotalBucks().Neg()})
	}
	return deltas
}

func negateDeltas(deltas map[string]domain.AccountDelta) map[string]domain.AccountDelta {
	negated := make(map[string]domain.AccountDelta, len(deltas))
	for id, d := range deltas {
		negated[id] = d.Neg()
	}
	return negated
}

// affectedAccountIDs returns every account a transaction touches: all
// recipients plus, for peer transfers, the creator.
func affectedAccountIDs(t *domain.Transaction) []string {
	seen := make(map[string]struct{}, len(t.Entries)+1)
	ids := make([]string, 0, len(t.Entries)+1)
	for i := range t.Entries {
		if _, ok := seen[t.Entries[i].AccountID]; !ok {
			seen[t.Entries[i].AccountID] = struct{}{}
			ids = append(ids, t.Entries[i].AccountID)
		}
	}
	if t.Type == domain.TypeP2P {
		if _, ok := seen[t.CreatorID]; !ok {
			ids = append(ids, t.CreatorID)
		}
	}
	return ids
}

// CreateTransaction opens a transaction in the created state. Entries are
// persisted uncounted; nothing moves until processing.
func (s *transactionService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, creatorUserID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txnType := domain.TransactionType(req.Type)
	if !txnType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransactionType, req.Type)
	}
	if len(req.Recipients) == 0 {
		return nil, domain.ErrNoRecipients
	}
	if txnType == domain.TypeP2P {
		for _, rec := range req.Recipients {
			if !rec.Amount.IsPositive() {
				return nil, fmt.Errorf("%w: got %s for account %s", ErrNonPositiveAmount, rec.Amount.String(), rec.AccountID)
			}
		}
	}

	// Every referenced account must exist up front.
	ids := make([]string, 0, len(req.Recipients)+1)
	ids = append(ids, creatorUserID)
	for _, rec := range req.Recipients {
		ids = append(ids, rec.AccountID)
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to verify transaction accounts: %w", err)
	}
	for _, id := range ids {
		if _, ok := accounts[id]; !ok {
			return nil, fmt.Errorf("%w: account %s", domain.ErrAccountMissing, id)
		}
	}

	if req.SupersedesID != nil {
		superseded, err := s.txnRepo.FindTransactionByID(ctx, *req.SupersedesID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownReference, *req.SupersedesID)
			}
			return nil, fmt.Errorf("failed to verify superseded transaction: %w", err)
		}
		// The caller declines or substitutes the original in a separate
		// step, so any state is acceptable here. The replacement must keep
		// the original's creator and type.
		if superseded.CreatorID != creatorUserID || superseded.Type != txnType {
			return nil, fmt.Errorf("%w: transaction %s was a %s by %s",
				ErrSupersedesMismatch, superseded.TransactionID, superseded.Type, superseded.CreatorID)
		}
	}

	now := time.Now()
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		CreatorID:     creatorUserID,
		Type:          txnType,
		Description:   req.Description,
		State:         domain.StateCreated,
		SupersedesID:  req.SupersedesID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	entries := make([]domain.LedgerEntry, 0, len(req.Recipients))
	for _, rec := range req.Recipients {
		entries = append(entries, txnType.RecipientEntry(
			uuid.NewString(), txn.TransactionID, rec.AccountID, rec.Amount, rec.Description, creatorUserID, now,
		))
	}
	txn.Entries = entries

	if err := s.txnRepo.SaveTransaction(ctx, txn, entries); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	logger.Info("Transaction created", "transactionID", txn.TransactionID, "type", string(txnType), "recipients", len(entries))
	return &txn, nil
}

// loadForUpdate locks the transaction header and loads its entries.
func (s *transactionService) loadForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.txnRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	txn.Entries = entries
	return txn, nil
}

// ProcessTransaction applies a created transaction to its accounts. The
// creator may process their own transaction; anyone else must be privileged.
func (s *transactionService) ProcessTransaction(ctx context.Context, transactionID string, requestingUserID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	requester, err := s.accountRepo.FindAccountByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify requesting user %s: %w", requestingUserID, err)
	}

	var processed *domain.Transaction
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		txn, err := s.loadForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		if !requester.Role.Privileged() && txn.CreatorID != requestingUserID {
			return apperrors.ErrForbidden
		}

		locked, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, affectedAccountIDs(txn))
		if err != nil {
			return err
		}
		accounts := make(map[string]*domain.Account, len(locked))
		for id := range locked {
			acc := locked[id]
			accounts[id] = &acc
		}

		now := time.Now()
		// The domain state machine does every check before the first
		// mutation: transition legality, counted flags, account presence and
		// p2p balance sufficiency against the locked balances.
		if err := txn.Process(accounts, now); err != nil {
			return err
		}

		if err := s.txnRepo.UpdateTransactionStateInTx(ctx, tx, transactionID, domain.StateCreated, domain.StateProcessed, requestingUserID, now); err != nil {
			return err
		}
		if err := s.txnRepo.SetEntriesCountedInTx(ctx, tx, transactionID, true, requestingUserID, now); err != nil {
			return err
		}
		if err := s.accountRepo.ApplyAccountDeltasInTx(ctx, tx, effectDeltas(txn), requestingUserID, now); err != nil {
			return err
		}

		processed = txn
		return nil
	})
	if err != nil {
		logger.Warn("Failed to process transaction", "transactionID", transactionID, "error", err)
		return nil, err
	}

	logger.Info("Transaction processed", "transactionID", transactionID)
	return processed, nil
}

// DeclineTransaction rejects a created transaction. Privileged users only;
// nothing has been applied, so no account is touched.
func (s *transactionService) DeclineTransaction(ctx context.Context, transactionID string, requestingUserID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	requester, err := s.accountRepo.FindAccountByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify requesting user %s: %w", requestingUserID, err)
	}
	if !requester.Role.Privileged() {
		return nil, apperrors.ErrForbidden
	}

	var declined *domain.Transaction
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		txn, err := s.loadForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := txn.Decline(now); err != nil {
			return err
		}

		if err := s.txnRepo.UpdateTransactionStateInTx(ctx, tx, transactionID, domain.StateCreated, domain.StateDeclined, requestingUserID, now); err != nil {
			return err
		}

		declined = txn
		return nil
	})
	if err != nil {
		logger.Warn("Failed to decline transaction", "transactionID", transactionID, "error", err)
		return nil, err
	}

	logger.Info("Transaction declined", "transactionID", transactionID)
	return declined, nil
}

// SubstituteTransaction undoes a processed transaction so a replacement can
// take its place. Privileged users only.
func (s *transactionService) SubstituteTransaction(ctx context.Context, transactionID string, requestingUserID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	requester, err := s.accountRepo.FindAccountByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify requesting user %s: %w", requestingUserID, err)
	}
	if !requester.Role.Privileged() {
		return nil, apperrors.ErrForbidden
	}

	var substituted *domain.Transaction
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		txn, err := s.loadForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		locked, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, affectedAccountIDs(txn))
		if err != nil {
			return err
		}
		accounts := make(map[string]*domain.Account, len(locked))
		for id := range locked {
			acc := locked[id]
			accounts[id] = &acc
		}

		// Deltas are captured before Substitute marks entries uncounted.
		deltas := effectDeltas(txn)

		now := time.Now()
		if err := txn.Substitute(accounts, now); err != nil {
			return err
		}

		if err := s.txnRepo.UpdateTransactionStateInTx(ctx, tx, transactionID, domain.StateProcessed, domain.StateSubstituted, requestingUserID, now); err != nil {
			return err
		}
		if err := s.txnRepo.SetEntriesCountedInTx(ctx, tx, transactionID, false, requestingUserID, now); err != nil {
			return err
		}
		if err := s.accountRepo.ApplyAccountDeltasInTx(ctx, tx, negateDeltas(deltas), requestingUserID, now); err != nil {
			return err
		}

		substituted = txn
		return nil
	})
	if err != nil {
		logger.Warn("Failed to substitute transaction", "transactionID", transactionID, "error", err)
		return nil, err
	}

	logger.Info("Transaction substituted", "transactionID", transactionID)
	return substituted, nil
}

// GetTransactionByID retrieves a transaction with its entries.
func (s *transactionService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", transactionID, err)
	}
	entries, err := s.txnRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries of transaction %s: %w", transactionID, err)
	}
	txn.Entries = entries
	return txn, nil
}

// ListTransactions retrieves a paginated list of transactions.
func (s *transactionService) ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	var token *string
	if params.NextToken != "" {
		token = &params.NextToken
	}

	txns, nextToken, err := s.txnRepo.ListTransactions(ctx, params.CreatorID, params.Limit, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	resp := &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
	}
	if nextToken != nil {
		resp.NextPageToken = *nextToken
	}
	return resp, nil
}

// ListEntriesByAccount retrieves the ledger history for one account.
func (s *transactionService) ListEntriesByAccount(ctx context.Context, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	var token *string
	if params.NextToken != "" {
		token = &params.NextToken
	}

	entries, nextToken, err := s.txnRepo.ListEntriesByAccountID(ctx, accountID, params.Limit, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for account %s: %w", accountID, err)
	}

	resp := &dto.ListEntriesResponse{
		Entries: dto.ToEntryResponses(entries),
	}
	if nextToken != nil {
		resp.NextPageToken = *nextToken
	}
	return resp, nil
}

// ReconcileAccount recomputes an account's balance and counters from its
// counted ledger entries and compares them against the stored columns.
// Privileged users only.
func (s *transactionService) ReconcileAccount(ctx context.Context, accountID string, requestingUserID string) (*dto.ReconciliationResponse, error) {
	requester, err := s.accountRepo.FindAccountByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find requesting account %s: %w", requestingUserID, err)
	}
	if !requester.Role.Privileged() {
		return nil, fmt.Errorf("%w: account %s may not reconcile accounts", apperrors.ErrForbidden, requestingUserID)
	}

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	delta, err := s.txnRepo.SumCountedEffects(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute ledger totals for account %s: %w", accountID, err)
	}

	stored := dto.ReconciliationTotals{
		Balance:      account.Balance,
		Certificates: account.Certificates,
		LabCount:     account.LabCount,
		LectureCount: account.LectureCount,
		SeminarCount: account.SeminarCount,
		FacultyCount: account.FacultyCount,
	}
	recomputed := dto.ReconciliationTotals{
		Balance:      delta.Bucks,
		Certificates: delta.Certs,
		LabCount:     delta.Lab,
		LectureCount: delta.Lecture,
		SeminarCount: delta.Seminar,
		FacultyCount: delta.Faculty,
	}

	consistent := stored.Balance.Equal(recomputed.Balance) &&
		stored.Certificates.Equal(recomputed.Certificates) &&
		stored.LabCount == recomputed.LabCount &&
		stored.LectureCount == recomputed.LectureCount &&
		stored.SeminarCount == recomputed.SeminarCount &&
		stored.FacultyCount == recomputed.FacultyCount

	if !consistent {
		middleware.GetLoggerFromCtx(ctx).Warn("Account out of sync with ledger",
			slog.String("account_id", accountID))
	}

	return &dto.ReconciliationResponse{
		AccountID:  accountID,
		Stored:     stored,
		Recomputed: recomputed,
		Consistent: consistent,
	}, nil
}
