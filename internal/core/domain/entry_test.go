package domain_test

import (
	"testing"
	"time"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(id string) *domain.Account {
	return &domain.Account{
		AccountID:    id,
		Username:     "u-" + id,
		Grade:        7,
		Role:         domain.RoleStudent,
		Balance:      decimal.NewFromFloat(42.5),
		Certificates: decimal.NewFromInt(30),
		LabCount:     1,
		LectureCount: 2,
		SeminarCount: 3,
		FacultyCount: 4,
		IsActive:     true,
	}
}

func TestLedgerEntry_ApplyUndoRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.LedgerEntry
	}{
		{
			name: "money entry",
			entry: domain.LedgerEntry{
				EntryID:   "e1",
				AccountID: "acc1",
				Bucks:     decimal.NewFromFloat(17.3),
			},
		},
		{
			name: "negative money with certificates",
			entry: domain.LedgerEntry{
				EntryID:   "e2",
				AccountID: "acc1",
				Bucks:     decimal.NewFromFloat(-99.99),
				Certs:     decimal.NewFromInt(-30),
			},
		},
		{
			name: "attendance entry",
			entry: domain.LedgerEntry{
				EntryID:   "e3",
				AccountID: "acc1",
				Lab:       1,
				Seminar:   1,
				Faculty:   1,
				Lecture:   2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newTestAccount("acc1")
			before := *acc
			now := time.Now()

			require.NoError(t, tt.entry.Apply(acc, now))
			assert.True(t, tt.entry.Counted)
			assert.True(t, acc.Balance.Equal(before.Balance.Add(tt.entry.Bucks)))

			require.NoError(t, tt.entry.Undo(acc, now))
			assert.False(t, tt.entry.Counted)

			// Exact restoration, bit for bit on numeric fields.
			assert.True(t, acc.Balance.Equal(before.Balance))
			assert.True(t, acc.Certificates.Equal(before.Certificates))
			assert.Equal(t, before.LabCount, acc.LabCount)
			assert.Equal(t, before.LectureCount, acc.LectureCount)
			assert.Equal(t, before.SeminarCount, acc.SeminarCount)
			assert.Equal(t, before.FacultyCount, acc.FacultyCount)
		})
	}
}

func TestLedgerEntry_ApplyTwiceFails(t *testing.T) {
	acc := newTestAccount("acc1")
	entry := domain.LedgerEntry{EntryID: "e1", AccountID: "acc1", Bucks: decimal.NewFromInt(5)}
	now := time.Now()

	require.NoError(t, entry.Apply(acc, now))
	err := entry.Apply(acc, now)
	assert.ErrorIs(t, err, domain.ErrEntryAlreadyCounted)
	// The double apply must not have touched the balance again.
	assert.True(t, acc.Balance.Equal(decimal.NewFromFloat(42.5).Add(decimal.NewFromInt(5))))
}

func TestLedgerEntry_UndoBeforeApplyFails(t *testing.T) {
	acc := newTestAccount("acc1")
	entry := domain.LedgerEntry{EntryID: "e1", AccountID: "acc1", Bucks: decimal.NewFromInt(5)}

	err := entry.Undo(acc, time.Now())
	assert.ErrorIs(t, err, domain.ErrEntryNotCounted)
	assert.True(t, acc.Balance.Equal(decimal.NewFromFloat(42.5)))
}

func TestLedgerEntry_ApplyWrongAccountFails(t *testing.T) {
	acc := newTestAccount("other")
	entry := domain.LedgerEntry{EntryID: "e1", AccountID: "acc1", Bucks: decimal.NewFromInt(5)}

	err := entry.Apply(acc, time.Now())
	assert.Error(t, err)
	assert.False(t, entry.Counted)
}
