package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrEntryAlreadyCounted signals an apply on an entry whose effect is
	// already realized. Never ignored: it means a consistency bug or a race.
	ErrEntryAlreadyCounted = errors.New("ledger entry already counted")

	// ErrEntryNotCounted signals an undo on an entry that was never applied.
	ErrEntryNotCounted = errors.New("ledger entry not counted yet")
)

// LedgerEntry is the smallest unit of value movement: one signed effect on
// one receiving account, owned by exactly one transaction. Counted tracks
// whether the effect has been realized on the account.
type LedgerEntry struct {
	EntryID       string          `json:"entryID"`       // Primary Key (UUID)
	TransactionID string          `json:"transactionID"` // FK -> Transaction (owning)
	AccountID     string          `json:"accountID"`     // FK -> Account (receiver)
	Bucks         decimal.Decimal `json:"bucks"`         // signed balance delta
	Certs         decimal.Decimal `json:"certs"`         // signed certificate delta
	Lab           int             `json:"lab"`
	Lecture       int             `json:"lecture"`
	Seminar       int             `json:"seminar"`
	Faculty       int             `json:"faculty"`
	Description   string          `json:"description"`
	Counted       bool            `json:"counted"`
	AuditFields
}

// Effect returns the entry's full signed effect as an AccountDelta.
func (e *LedgerEntry) Effect() AccountDelta {
	return AccountDelta{
		Bucks:   e.Bucks,
		Certs:   e.Certs,
		Lab:     e.Lab,
		Lecture: e.Lecture,
		Seminar: e.Seminar,
		Faculty: e.Faculty,
	}
}

// Apply realizes the entry's effect on the receiving account and marks it
// counted. Fails with ErrEntryAlreadyCounted if already realized.
func (e *LedgerEntry) Apply(acc *Account, now time.Time) error {
	if e.Counted {
		return fmt.Errorf("%w: entry %s", ErrEntryAlreadyCounted, e.EntryID)
	}
	if acc.AccountID != e.AccountID {
		return fmt.Errorf("entry %s targets account %s, got %s", e.EntryID, e.AccountID, acc.AccountID)
	}
	acc.apply(e.Effect())
	e.Counted = true
	e.LastUpdatedAt = now
	return nil
}

// Undo reverses a previously applied entry. Apply followed by Undo restores
// the account bit-for-bit: decimal arithmetic is exact, so there is no drift.
func (e *LedgerEntry) Undo(acc *Account, now time.Time) error {
	if !e.Counted {
		return fmt.Errorf("%w: entry %s", ErrEntryNotCounted, e.EntryID)
	}
	if acc.AccountID != e.AccountID {
		return fmt.Errorf("entry %s targets account %s, got %s", e.EntryID, e.AccountID, acc.AccountID)
	}
	acc.apply(e.Effect().Neg())
	e.Counted = false
	e.LastUpdatedAt = now
	return nil
}
