package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campeconomy/camp_bank_app/internal/apperrors"
	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	portsrepo "github.com/campeconomy/camp_bank_app/internal/core/ports/repositories"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/core/services"
	"github.com/campeconomy/camp_bank_app/internal/dto"
)

// --- Mock TransactionRepository ---

type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.TransactionRepositoryWithTx = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactions(ctx context.Context, creatorID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, creatorID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		val := args.Get(1).(string)
		token = &val
	}
	return args.Get(0).([]domain.Transaction), token, args.Error(2)
}

func (m *MockTransactionRepository) ListEntriesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		val := args.Get(1).(string)
		token = &val
	}
	return args.Get(0).([]domain.LedgerEntry), token, args.Error(2)
}

func (m *MockTransactionRepository) SumCountedEffects(ctx context.Context, accountID string) (domain.AccountDelta, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(domain.AccountDelta), args.Error(1)
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry) error {
	args := m.Called(ctx, txn, entries)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, tx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateTransactionStateInTx(ctx context.Context, tx pgx.Tx, transactionID string, from, to domain.TransactionState, updatedBy string, now time.Time) error {
	args := m.Called(ctx, tx, transactionID, from, to, updatedBy, now)
	return args.Error(0)
}

func (m *MockTransactionRepository) SetEntriesCountedInTx(ctx context.Context, tx pgx.Tx, transactionID string, counted bool, updatedBy string, now time.Time) error {
	args := m.Called(ctx, tx, transactionID, counted, updatedBy, now)
	return args.Error(0)
}

func (m *MockTransactionRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *MockTransactionRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryWithTx = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListActiveStudents(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) EconomyTotals(ctx context.Context) (int, decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateRefreshToken(ctx context.Context, accountID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error {
	args := m.Called(ctx, accountID, refreshTokenHash, refreshTokenExpiryTime)
	return args.Error(0)
}

func (m *MockAccountRepository) ClearRefreshToken(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ApplyAccountDeltasInTx(ctx context.Context, tx pgx.Tx, deltas map[string]domain.AccountDelta, userID string, now time.Time) error {
	args := m.Called(ctx, tx, deltas, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *MockAccountRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockAccountRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Fixtures ---

type txnFixture struct {
	txnRepo     *MockTransactionRepository
	accountRepo *MockAccountRepository
	svc         portssvc.TransactionSvcFacade
}

func newTxnFixture() *txnFixture {
	txnRepo := new(MockTransactionRepository)
	accountRepo := new(MockAccountRepository)
	return &txnFixture{
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		svc:         services.NewTransactionService(txnRepo, accountRepo),
	}
}

func (f *txnFixture) expectTx() {
	f.txnRepo.On("Begin", mock.Anything).Return(nil, nil)
	f.txnRepo.On("Commit", mock.Anything, mock.Anything).Return(nil)
	f.txnRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)
}

func staffAccount(id string) *domain.Account {
	return &domain.Account{AccountID: id, Role: domain.RoleStaff, IsActive: true}
}

func studentAccount(id string, balance int64) domain.Account {
	return domain.Account{
		AccountID: id,
		Role:      domain.RoleStudent,
		Balance:   decimal.NewFromInt(balance),
		IsActive:  true,
	}
}

func seminarTransaction(txnID, creatorID, recipientID string, amount int64) (*domain.Transaction, []domain.LedgerEntry) {
	now := time.Now().Add(-time.Minute)
	txn := &domain.Transaction{
		TransactionID: txnID,
		CreatorID:     creatorID,
		Type:          domain.TypeSeminar,
		State:         domain.StateCreated,
		AuditFields:   domain.AuditFields{CreatedAt: now, CreatedBy: creatorID, LastUpdatedAt: now, LastUpdatedBy: creatorID},
	}
	entries := []domain.LedgerEntry{
		domain.TypeSeminar.RecipientEntry(uuid.NewString(), txnID, recipientID, decimal.NewFromInt(amount), "seminar reward", creatorID, now),
	}
	return txn, entries
}

// --- Tests ---

func TestProcessTransaction_AppliesEntriesAndFlipsState(t *testing.T) {
	f := newTxnFixture()
	ctx := context.Background()

	staffID := "staff-1"
	recipientID := "student-1"
	txnID := "txn-1"

	txn, entries := seminarTransaction(txnID, staffID, recipientID, 20)

	f.accountRepo.On("FindAccountByID", mock.Anything, staffID).Return(staffAccount(staffID), nil)
	f.expectTx()
	f.txnRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, txnID).Return(txn, nil)
	f.txnRepo.On("FindEntriesByTransactionID", mock.Anything, txnID).Return(entries, nil)
	f.accountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, mock.Anything, []string{recipientID}).
		Return(map[string]domain.Account{recipientID: studentAccount(recipientID, 5)}, nil)
	f.txnRepo.On("UpdateTransactionStateInTx", mock.Anything, mock.Anything, txnID, domain.StateCreated, domain.StateProcessed, staffID, mock.Anything).Return(nil)
	f.txnRepo.On("SetEntriesCountedInTx", mock.Anything, mock.Anything, txnID, true, staffID, mock.Anything).Return(nil)
	f.accountRepo.On("ApplyAccountDeltasInTx", mock.Anything, mock.Anything,
		mock.MatchedBy(func(deltas map[string]domain.AccountDelta) bool {
			d, ok := deltas[recipientID]
			return ok && d.Bucks.Equal(decimal.NewFromInt(20))
		}), staffID, mock.Anything).Return(nil)

	processed, err := f.svc.ProcessTransaction(ctx, txnID, staffID)

	require.NoError(t, err)
	assert.Equal(t, domain.StateProcessed, processed.State)
	for _, e := range processed.Entries {
		assert.True(t, e.Counted)
	}
	f.txnRepo.AssertExpectations(t)
	f.accountRepo.AssertExpectations(t)
}

func TestProcessTransaction_AlreadyProcessedRejected(t *testing.T) {
	f := newTxnFixture()
	ctx := context.Background()

	staffID := "staff-1"
	txnID := "txn-1"
	txn, entries := seminarTransaction(txnID, staffID, "student-1", 20)
	txn.State = domain.StateProcessed
	for i := range entries {
		entries[i].Counted = true
	}

	f.accountRepo.On("FindAccountByID", mock.Anything, staffID).Return(staffAccount(staffID), nil)
	f.expectTx()
	f.txnRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, txnID).Return(txn, nil)
	f.txnRepo.On("FindEntriesByTransactionID", mock.Anything, txnID).Return(entries, nil)
	f.accountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]domain.Account{"student-1": studentAccount("student-1", 25)}, nil)

	_, err := f.svc.ProcessTransaction(ctx, txnID, staffID)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.accountRepo.AssertNotCalled(t, "ApplyAccountDeltasInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessTransaction_P2PInsufficientBalance(t *testing.T) {
	f := newTxnFixture()
	ctx := context.Background()

	creatorID := "student-1"
	recipientID := "student-2"
	txnID := "txn-p2p"

	now := time.Now().Add(-time.Minute)
	txn := &domain.Transaction{
		TransactionID: txnID,
		CreatorID:     creatorID,
		Type:          domain.TypeP2P,
		State:         domain.StateCreated,
		AuditFields:   domain.AuditFields{CreatedAt: now, CreatedBy: creatorID},
	}
	entries := []domain.LedgerEntry{
		domain.TypeP2P.RecipientEntry(uuid.NewString(), txnID, recipientID, decimal.NewFromInt(15), "", creatorID, now),
	}

	creator := studentAccount(creatorID, 10)
	f.accountRepo.On("FindAccountByID", mock.Anything, creatorID).Return(&creator, nil)
	f.expectTx()
	f.txnRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, txnID).Return(txn, nil)
	f.txnRepo.On("FindEntriesByTransactionID", mock.Anything, txnID).Return(entries, nil)
	f.accountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]domain.Account{
			creatorID:   studentAccount(creatorID, 10),
			recipientID: studentAccount(recipientID, 0),
		}, nil)

	_, err := f.svc.ProcessTransaction(ctx, txnID, creatorID)

	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	f.txnRepo.AssertNotCalled(t, "UpdateTransactionStateInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.accountRepo.AssertNotCalled(t, "ApplyAccountDeltasInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessTransaction_UnrelatedStudentForbidden(t *testing.T) {
	f := newTxnFixture()
	ctx := context.Background()

	bystanderID := "student-9"
	txnID := "txn-1"
	txn, entries := seminarTransaction(txnID, "staff-1", "student-1", 20)

	bystander := studentAccount(bystanderID, 0)
	f.accountRepo.On("FindAccountByID", mock.Anything, bystanderID).Return(&bystander, nil)
	f.expectTx()
	f.txnRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, txnID).Return(txn, nil)
	f.txnRepo.On("FindEntriesByTransactionID", mock.Anything, txnID).Return(entries, nil)

	_, err := f.svc.ProcessTransaction(ctx, txnID, bystanderID)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestProcessTransaction_StateRaceSurfacesConflict(t *testing.T) {
	f := newTxnFixture()
	ctx := context.Background()

	staffID := "staff-1"
	recipientID := "student-1"
	txnID := "txn-1"
	txn, entries := seminarTransaction(txnID, staffID, recipientID, 20)

	f.accountRepo.On("FindAccountByID", mock.Anything, staffID).Return(staffAccount(staffID), nil)
	f.expectTx()
	f.txnRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, txnID).Return(txn, nil)
	f.txnRepo.On("FindEntriesByTransactionID", mock.Anything, txnID).Return(entries, nil)
	f.accountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]domain.Account{recipientID: studentAccount(recipientID, 0)}, nil)
	f.txnRepo.On("UpdateTransactionStateInTx", mock.Anything, mock.Anything, txnID, domain.StateCreated, domain.StateProcessed, staffID, mock.Anything).
		Return(apperrors.ErrConflict)

	_, err := f.svc.ProcessTransaction(ctx, txnID, staffID)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	f.accountRepo.AssertNotCalled(t, "ApplyAccountDeltasInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeclineTransaction_StaffOnly(t *testing.T) {
	f := newTxnFixture()
	ctx := context.Background()

	studentID := "student-1"
	student := studentAccount(studentID, 0)
	f.accountRepo.On("FindAccountByID", mock.Anything, studentID).Return(&student, nil)

	_, err := f.svc.DeclineTransaction(ctx, "txn-1", studentID)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	f.txnRepo.AssertNotCalled(t, "FindTransactionByIDForUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeclineTransaction_Succeeds(t *testing.T) {
	f := newTxnFixture()
	ctx := context.Background()

	staffID := "staff-1"
	txnID := "txn-1"
	txn, entries := seminarTransaction(txnID, "student-1", "student-2", 20)

	f.accountRepo.On("FindAccountByID", mock.Anything, staffID).Return(staffAccount(staffID), nil)
	f.expectTx()
	f.txnRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, txnID).Return(txn, nil)
	f.txnRepo.On("FindEntriesByTransactionID", mock.Anything, txnID).Return(entries, nil)
	f.txnRepo.On("UpdateTransactionStateInTx", mock.Anything, mock.Anything, txnID, domain.StateCreated, domain.StateDeclined, staffID, mock.Anything).Return(nil)

	declined, err := f.svc.DeclineTransaction(ctx, txnID, staffID)

	require.NoError(t, err)
	assert.Equal(t, domain.StateDeclined, declined.State)
	f.accountRepo.AssertNotCalled(t, "ApplyAccountDeltasInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubstituteTransaction_RestoresBalances(t *testing.T) {
	f := newTxnFixture()
	ctx := context.Background()

	staffID := "staff-1"
	recipientID := "student-1"
	txnID := "txn-1"

	txn, entries := seminarTransaction(txnID, staffID, recipientID, 20)
	txn.State = domain.StateProcessed
	for i := range entries {
		entries[i].Counted = true
	}

	f.accountRepo.On("FindAccountByID", mock.Anything, staffID).Return(staffAccount(staffID), nil)
	f.expectTx()
	f.txnRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, txnID).Return(txn, nil)
	f.txnRepo.On("FindEntriesByTransactionID", mock.Anything, txnID).Return(entries, nil)
	f.accountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, mock.Anything, []string{recipientID}).
		Return(map[string]domain.Account{recipientID: studentAccount(recipientID, 25)}, nil)
	f.txnRepo.On("UpdateTransactionStateInTx", mock.Anything, mock.Anything, txnID, domain.StateProcessed, domain.StateSubstituted, staffID, mock.Anything).Return(nil)
	f.txnRepo.On("SetEntriesCountedInTx", mock.Anything, mock.Anything, txnID, false, staffID, mock.Anything).Return(nil)
	f.accountRepo.On("ApplyAccountDeltasInTx", mock.Anything, mock.Anything,
		mock.MatchedBy(func(deltas map[string]domain.AccountDelta) bool {
			d, ok := deltas[recipientID]
			return ok && d.Bucks.Equal(decimal.NewFromInt(-20))
		}), staffID, mock.Anything).Return(nil)

	substituted, err := f.svc.SubstituteTransaction(ctx, txnID, staffID)

	require.NoError(t, err)
	assert.Equal(t, domain.StateSubstituted, substituted.State)
	f.txnRepo.AssertExpectations(t)
	f.accountRepo.AssertExpectations(t)
}

func TestCreateTransaction_UnknownTypeRejected(t *testing.T) {
	f := newTxnFixture()

	_, err := f.svc.CreateTransaction(context.Background(), dto.CreateTransactionRequest{
		Type:       "bribe",
		Recipients: []dto.RecipientRequest{{AccountID: "student-1", Amount: decimal.NewFromInt(5)}},
	}, "staff-1")

	assert.ErrorIs(t, err, services.ErrUnknownTransactionType)
}

func TestCreateTransaction_MissingRecipientAccount(t *testing.T) {
	f := newTxnFixture()

	f.accountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).
		Return(map[string]domain.Account{"staff-1": *staffAccount("staff-1")}, nil)

	_, err := f.svc.CreateTransaction(context.Background(), dto.CreateTransactionRequest{
		Type:       string(domain.TypeSeminar),
		Recipients: []dto.RecipientRequest{{AccountID: "ghost", Amount: decimal.NewFromInt(5)}},
	}, "staff-1")

	assert.ErrorIs(t, err, domain.ErrAccountMissing)
	f.txnRepo.AssertNotCalled(t, "SaveTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTransaction_SavesCreatedStateWithUncountedEntries(t *testing.T) {
	f := newTxnFixture()

	staffID := "staff-1"
	recipientID := "student-1"

	f.accountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).
		Return(map[string]domain.Account{
			staffID:     *staffAccount(staffID),
			recipientID: studentAccount(recipientID, 0),
		}, nil)
	f.txnRepo.On("SaveTransaction", mock.Anything,
		mock.MatchedBy(func(txn domain.Transaction) bool {
			return txn.State == domain.StateCreated && txn.Type == domain.TypeSemAttend
		}),
		mock.MatchedBy(func(entries []domain.LedgerEntry) bool {
			// Attendance entries carry a counter unit, never money.
			return len(entries) == 1 && !entries[0].Counted &&
				entries[0].Seminar == 1 && entries[0].Bucks.IsZero()
		})).Return(nil)

	txn, err := f.svc.CreateTransaction(context.Background(), dto.CreateTransactionRequest{
		Type:       string(domain.TypeSemAttend),
		Recipients: []dto.RecipientRequest{{AccountID: recipientID, Amount: decimal.NewFromInt(99)}},
	}, staffID)

	require.NoError(t, err)
	assert.Equal(t, domain.StateCreated, txn.State)
	f.txnRepo.AssertExpectations(t)
}

func TestReconcileAccount_ConsistentWhenLedgerMatches(t *testing.T) {
	f := newTxnFixture()

	staffID := "staff-1"
	studentID := "student-1"
	student := studentAccount(studentID, 35)
	student.SeminarCount = 2

	f.accountRepo.On("FindAccountByID", mock.Anything, staffID).Return(staffAccount(staffID), nil)
	f.accountRepo.On("FindAccountByID", mock.Anything, studentID).Return(&student, nil)
	f.txnRepo.On("SumCountedEffects", mock.Anything, studentID).
		Return(domain.AccountDelta{Bucks: decimal.NewFromInt(35), Seminar: 2}, nil)

	resp, err := f.svc.ReconcileAccount(context.Background(), studentID, staffID)

	require.NoError(t, err)
	assert.True(t, resp.Consistent)
	assert.True(t, resp.Stored.Balance.Equal(resp.Recomputed.Balance))
	assert.Equal(t, 2, resp.Recomputed.SeminarCount)
}

func TestReconcileAccount_ReportsDrift(t *testing.T) {
	f := newTxnFixture()

	staffID := "staff-1"
	studentID := "student-1"
	student := studentAccount(studentID, 40)

	f.accountRepo.On("FindAccountByID", mock.Anything, staffID).Return(staffAccount(staffID), nil)
	f.accountRepo.On("FindAccountByID", mock.Anything, studentID).Return(&student, nil)
	f.txnRepo.On("SumCountedEffects", mock.Anything, studentID).
		Return(domain.AccountDelta{Bucks: decimal.NewFromInt(35)}, nil)

	resp, err := f.svc.ReconcileAccount(context.Background(), studentID, staffID)

	require.NoError(t, err)
	assert.False(t, resp.Consistent)
	assert.True(t, resp.Recomputed.Balance.Equal(decimal.NewFromInt(35)))
}

func TestReconcileAccount_StaffOnly(t *testing.T) {
	f := newTxnFixture()

	studentID := "student-1"
	student := studentAccount(studentID, 0)
	f.accountRepo.On("FindAccountByID", mock.Anything, studentID).Return(&student, nil)

	_, err := f.svc.ReconcileAccount(context.Background(), studentID, studentID)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	f.txnRepo.AssertNotCalled(t, "SumCountedEffects", mock.Anything, mock.Anything)
}

func TestCreateTransaction_SupersedesDeclinedOriginal(t *testing.T) {
	f := newTxnFixture()

	staffID := "staff-1"
	recipientID := "student-1"
	originalID := "txn-original"

	f.accountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).
		Return(map[string]domain.Account{
			staffID:     *staffAccount(staffID),
			recipientID: studentAccount(recipientID, 0),
		}, nil)
	f.txnRepo.On("FindTransactionByID", mock.Anything, originalID).
		Return(&domain.Transaction{
			TransactionID: originalID,
			CreatorID:     staffID,
			Type:          domain.TypeSeminar,
			State:         domain.StateDeclined,
		}, nil)
	f.txnRepo.On("SaveTransaction", mock.Anything,
		mock.MatchedBy(func(txn domain.Transaction) bool {
			return txn.SupersedesID != nil && *txn.SupersedesID == originalID &&
				txn.State == domain.StateCreated
		}),
		mock.Anything).Return(nil)

	txn, err := f.svc.CreateTransaction(context.Background(), dto.CreateTransactionRequest{
		Type:         string(domain.TypeSeminar),
		SupersedesID: &originalID,
		Recipients:   []dto.RecipientRequest{{AccountID: recipientID, Amount: decimal.NewFromInt(20)}},
	}, staffID)

	require.NoError(t, err)
	assert.Equal(t, originalID, *txn.SupersedesID)
	f.txnRepo.AssertExpectations(t)
}

func TestCreateTransaction_SupersedesKeepsCreatorAndType(t *testing.T) {
	staffID := "staff-1"
	recipientID := "student-1"
	originalID := "txn-original"

	tests := []struct {
		name     string
		original domain.Transaction
	}{
		{"different creator", domain.Transaction{
			TransactionID: originalID, CreatorID: "someone-else",
			Type: domain.TypeSeminar, State: domain.StateProcessed,
		}},
		{"different type", domain.Transaction{
			TransactionID: originalID, CreatorID: staffID,
			Type: domain.TypeTax, State: domain.StateProcessed,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTxnFixture()
			f.accountRepo.On("FindAccountsByIDs", mock.Anything, mock.Anything).
				Return(map[string]domain.Account{
					staffID:     *staffAccount(staffID),
					recipientID: studentAccount(recipientID, 0),
				}, nil)
			original := tt.original
			f.txnRepo.On("FindTransactionByID", mock.Anything, originalID).Return(&original, nil)

			_, err := f.svc.CreateTransaction(context.Background(), dto.CreateTransactionRequest{
				Type:         string(domain.TypeSeminar),
				SupersedesID: &originalID,
				Recipients:   []dto.RecipientRequest{{AccountID: recipientID, Amount: decimal.NewFromInt(20)}},
			}, staffID)

			assert.ErrorIs(t, err, services.ErrSupersedesMismatch)
			f.txnRepo.AssertNotCalled(t, "SaveTransaction", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
