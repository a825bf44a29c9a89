package domain_test

import (
	"testing"
	"time"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from domain.TransactionState
		to   domain.TransactionState
		want bool
	}{
		{"created to processed", domain.StateCreated, domain.StateProcessed, true},
		{"created to declined", domain.StateCreated, domain.StateDeclined, true},
		{"created to substituted", domain.StateCreated, domain.StateSubstituted, false},
		{"created to created", domain.StateCreated, domain.StateCreated, false},
		{"processed to substituted", domain.StateProcessed, domain.StateSubstituted, true},
		{"processed to declined", domain.StateProcessed, domain.StateDeclined, false},
		{"processed to processed", domain.StateProcessed, domain.StateProcessed, false},
		{"declined is terminal", domain.StateDeclined, domain.StateProcessed, false},
		{"substituted is terminal", domain.StateSubstituted, domain.StateProcessed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransactionState_Terminal(t *testing.T) {
	assert.False(t, domain.StateCreated.Terminal())
	assert.False(t, domain.StateProcessed.Terminal())
	assert.True(t, domain.StateDeclined.Terminal())
	assert.True(t, domain.StateSubstituted.Terminal())
}

func newSeminarTransaction(amount decimal.Decimal) *domain.Transaction {
	return &domain.Transaction{
		TransactionID: "txn1",
		CreatorID:     "staff1",
		Type:          domain.TypeSeminar,
		State:         domain.StateCreated,
		Entries: []domain.LedgerEntry{
			{EntryID: "e1", TransactionID: "txn1", AccountID: "acc1", Bucks: amount},
		},
	}
}

func TestTransaction_ProcessThenSubstitute(t *testing.T) {
	now := time.Now()
	acc := newTestAccount("acc1")
	originalBalance := acc.Balance
	txn := newSeminarTransaction(decimal.NewFromInt(20))
	accounts := map[string]*domain.Account{"acc1": acc}

	require.NoError(t, txn.Process(accounts, now))
	assert.Equal(t, domain.StateProcessed, txn.State)
	assert.True(t, txn.Entries[0].Counted)
	assert.True(t, acc.Balance.Equal(originalBalance.Add(decimal.NewFromInt(20))))

	require.NoError(t, txn.Substitute(accounts, now))
	assert.Equal(t, domain.StateSubstituted, txn.State)
	assert.False(t, txn.Entries[0].Counted)
	assert.True(t, acc.Balance.Equal(originalBalance))

	// Terminal: a second process must be rejected.
	err := txn.Process(accounts, now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransaction_ProcessTwiceRejected(t *testing.T) {
	now := time.Now()
	acc := newTestAccount("acc1")
	txn := newSeminarTransaction(decimal.NewFromInt(10))
	accounts := map[string]*domain.Account{"acc1": acc}

	require.NoError(t, txn.Process(accounts, now))
	err := txn.Process(accounts, now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransaction_DeclineAfterProcessRejected(t *testing.T) {
	now := time.Now()
	acc := newTestAccount("acc1")
	txn := newSeminarTransaction(decimal.NewFromInt(10))
	accounts := map[string]*domain.Account{"acc1": acc}

	require.NoError(t, txn.Process(accounts, now))
	err := txn.Decline(now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StateProcessed, txn.State)
}

func TestTransaction_Decline(t *testing.T) {
	now := time.Now()
	txn := newSeminarTransaction(decimal.NewFromInt(10))

	require.NoError(t, txn.Decline(now))
	assert.Equal(t, domain.StateDeclined, txn.State)
	assert.False(t, txn.Entries[0].Counted)
}

func TestTransaction_P2PInsufficientBalance(t *testing.T) {
	now := time.Now()
	creator := newTestAccount("creator")
	creator.Balance = decimal.NewFromInt(10)
	receiver := newTestAccount("acc1")
	receiverBalance := receiver.Balance

	txn := &domain.Transaction{
		TransactionID: "txn1",
		CreatorID:     "creator",
		Type:          domain.TypeP2P,
		State:         domain.StateCreated,
		Entries: []domain.LedgerEntry{
			{EntryID: "e1", TransactionID: "txn1", AccountID: "acc1", Bucks: decimal.NewFromInt(15)},
		},
	}
	accounts := map[string]*domain.Account{"creator": creator, "acc1": receiver}

	err := txn.Process(accounts, now)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// Both balances and the state remain untouched.
	assert.True(t, creator.Balance.Equal(decimal.NewFromInt(10)))
	assert.True(t, receiver.Balance.Equal(receiverBalance))
	assert.Equal(t, domain.StateCreated, txn.State)
	assert.False(t, txn.Entries[0].Counted)
}

func TestTransaction_P2PDebitsAndCreditsCreator(t *testing.T) {
	now := time.Now()
	creator := newTestAccount("creator")
	creator.Balance = decimal.NewFromInt(100)
	first := newTestAccount("acc1")
	second := newTestAccount("acc2")
	second.AccountID = "acc2"

	txn := &domain.Transaction{
		TransactionID: "txn1",
		CreatorID:     "creator",
		Type:          domain.TypeP2P,
		State:         domain.StateCreated,
		Entries: []domain.LedgerEntry{
			{EntryID: "e1", TransactionID: "txn1", AccountID: "acc1", Bucks: decimal.NewFromInt(30)},
			{EntryID: "e2", TransactionID: "txn1", AccountID: "acc2", Bucks: decimal.NewFromInt(20)},
		},
	}
	accounts := map[string]*domain.Account{"creator": creator, "acc1": first, "acc2": second}

	require.NoError(t, txn.Process(accounts, now))
	assert.True(t, creator.Balance.Equal(decimal.NewFromInt(50)))

	require.NoError(t, txn.Substitute(accounts, now))
	assert.True(t, creator.Balance.Equal(decimal.NewFromInt(100)))
}

func TestTransaction_ProcessWithoutEntries(t *testing.T) {
	txn := &domain.Transaction{
		TransactionID: "txn1",
		CreatorID:     "staff1",
		Type:          domain.TypeGeneral,
		State:         domain.StateCreated,
	}
	err := txn.Process(map[string]*domain.Account{}, time.Now())
	assert.ErrorIs(t, err, domain.ErrNoRecipients)
}

func TestTransaction_ProcessMissingAccount(t *testing.T) {
	txn := newSeminarTransaction(decimal.NewFromInt(10))
	err := txn.Process(map[string]*domain.Account{}, time.Now())
	assert.ErrorIs(t, err, domain.ErrAccountMissing)
	assert.Equal(t, domain.StateCreated, txn.State)
}

func TestTransactionType_RecipientEntry(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		txnType   domain.TransactionType
		amount    decimal.Decimal
		wantBucks decimal.Decimal
		wantDelta domain.AccountDelta
	}{
		{"seminar reward carries money", domain.TypeSeminar, decimal.NewFromInt(20), decimal.NewFromInt(20), domain.AccountDelta{Bucks: decimal.NewFromInt(20)}},
		{"lab pass carries lab counter", domain.TypeLabPass, decimal.NewFromInt(99), decimal.Zero, domain.AccountDelta{Bucks: decimal.Zero, Lab: 1}},
		{"faculty attend carries faculty counter", domain.TypeFacAttend, decimal.Zero, decimal.Zero, domain.AccountDelta{Bucks: decimal.Zero, Faculty: 1}},
		{"seminar attend carries seminar counter", domain.TypeSemAttend, decimal.Zero, decimal.Zero, domain.AccountDelta{Bucks: decimal.Zero, Seminar: 1}},
		{"lecture miss carries lecture counter", domain.TypeLecMiss, decimal.Zero, decimal.Zero, domain.AccountDelta{Bucks: decimal.Zero, Lecture: 1}},
		{"lecture attend moves nothing", domain.TypeLecAttend, decimal.NewFromInt(10), decimal.Zero, domain.AccountDelta{Bucks: decimal.Zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := tt.txnType.RecipientEntry("e1", "txn1", "acc1", tt.amount, "d", "creator", now)
			assert.True(t, entry.Bucks.Equal(tt.wantBucks))
			effect := entry.Effect()
			assert.Equal(t, tt.wantDelta.Lab, effect.Lab)
			assert.Equal(t, tt.wantDelta.Lecture, effect.Lecture)
			assert.Equal(t, tt.wantDelta.Seminar, effect.Seminar)
			assert.Equal(t, tt.wantDelta.Faculty, effect.Faculty)
			assert.False(t, entry.Counted)
		})
	}
}

func TestTransactionType_Valid(t *testing.T) {
	assert.True(t, domain.TypeP2P.Valid())
	assert.True(t, domain.TypeLabPass.Valid())
	assert.False(t, domain.TransactionType("bogus").Valid())
}
