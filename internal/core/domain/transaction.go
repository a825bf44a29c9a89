package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidTransition signals a state change not permitted from the
	// transaction's current state.
	ErrInvalidTransition = errors.New("invalid transaction state transition")

	// ErrInsufficientBalance signals a peer transfer whose creator cannot
	// cover the outgoing total at processing time.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNoRecipients signals a transaction constructed without entries.
	ErrNoRecipients = errors.New("transaction has no recipients")

	// ErrAccountMissing signals that a referenced account was not supplied
	// to a state machine operation.
	ErrAccountMissing = errors.New("referenced account missing")
)

// TransactionState is the lifecycle state of a transaction.
type TransactionState string

const (
	StateCreated     TransactionState = "created"
	StateProcessed   TransactionState = "processed"
	StateDeclined    TransactionState = "declined"
	StateSubstituted TransactionState = "substituted"
)

// allowedTransitions is the closed transition table. Terminal states map to
// nothing; re-entering the current state is never allowed.
var allowedTransitions = map[TransactionState][]TransactionState{
	StateCreated:     {StateProcessed, StateDeclined},
	StateProcessed:   {StateSubstituted},
	StateDeclined:    {},
	StateSubstituted: {},
}

// CanTransitionTo reports whether moving to next is permitted from s.
func (s TransactionState) CanTransitionTo(next TransactionState) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s TransactionState) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// TransactionType is the closed set of transaction categories.
type TransactionType string

const (
	TypeP2P      TransactionType = "p2p"
	TypeFine     TransactionType = "fine"
	TypeTax      TransactionType = "tax"
	TypeActivity TransactionType = "activity"
	TypeSeminar  TransactionType = "seminar"
	TypeLecture  TransactionType = "lecture"
	TypePurchase TransactionType = "purchase"
	TypeGeneral  TransactionType = "general"
	TypeWorkout  TransactionType = "workout"
	TypeDuty     TransactionType = "ds"
	TypeExam     TransactionType = "exam"

	// Attendance grants: each recipient line increments one counter.
	TypeFacAttend TransactionType = "fac_attend"
	TypeFacPass   TransactionType = "fac_pass"
	TypeLabPass   TransactionType = "lab_pass"
	TypeLecAttend TransactionType = "lec_attend"
	TypeLecMiss   TransactionType = "lec_miss"
	TypeSemAttend TransactionType = "sem_attend"
	TypeSemPass   TransactionType = "sem_pass"
)

// attendanceCounters maps attendance transaction types to the unit counter
// delta a recipient line carries instead of money.
var attendanceCounters = map[TransactionType]AccountDelta{
	TypeFacAttend: {Faculty: 1},
	TypeFacPass:   {Faculty: 1},
	TypeLabPass:   {Lab: 1},
	// The lecture counter tracks misses for the escalating penalty; an
	// attended lecture stays in the ledger history but moves nothing.
	TypeLecAttend: {},
	TypeLecMiss:   {Lecture: 1},
	TypeSemAttend: {Seminar: 1},
	TypeSemPass:   {Seminar: 1},
}

var knownTypes = map[TransactionType]struct{}{
	TypeP2P: {}, TypeFine: {}, TypeTax: {}, TypeActivity: {}, TypeSeminar: {},
	TypeLecture: {}, TypePurchase: {}, TypeGeneral: {}, TypeWorkout: {},
	TypeDuty: {}, TypeExam: {}, TypeFacAttend: {}, TypeFacPass: {},
	TypeLabPass: {}, TypeLecAttend: {}, TypeLecMiss: {}, TypeSemAttend: {},
	TypeSemPass: {},
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// Attendance reports whether recipient lines of this type carry a counter
// increment rather than money.
func (t TransactionType) Attendance() bool {
	_, ok := attendanceCounters[t]
	return ok
}

// RecipientEntry builds the ledger entry one recipient line expands to. For
// attendance types the amount is ignored and the matching counter gets a unit
// increment; every other type moves amount bucks.
func (t TransactionType) RecipientEntry(entryID, transactionID, accountID string, amount decimal.Decimal, description string, createdBy string, now time.Time) LedgerEntry {
	entry := LedgerEntry{
		EntryID:       entryID,
		TransactionID: transactionID,
		AccountID:     accountID,
		Description:   description,
		AuditFields: AuditFields{
			CreatedAt:     now,
			CreatedBy:     createdBy,
			LastUpdatedAt: now,
			LastUpdatedBy: createdBy,
		},
	}
	if counters, ok := attendanceCounters[t]; ok {
		entry.Lab = counters.Lab
		entry.Lecture = counters.Lecture
		entry.Seminar = counters.Seminar
		entry.Faculty = counters.Faculty
		return entry
	}
	entry.Bucks = amount
	return entry
}

// Transaction groups the ledger entries created together by one actor, with
// its own lifecycle state. It is the unit of atomicity: all of its entries
// share the same counted value except transiently inside apply/undo.
type Transaction struct {
	TransactionID string           `json:"transactionID"` // Primary Key (UUID)
	CreatorID     string           `json:"creatorID"`     // FK -> Account
	Type          TransactionType  `json:"type"`
	Description   string           `json:"description"`
	State         TransactionState `json:"state"`
	SupersedesID  *string          `json:"supersedesID,omitempty"` // prior transaction this one replaces
	Entries       []LedgerEntry    `json:"entries,omitempty"`
	AuditFields
}

// TotalBucks is the sum of money moved to recipients. For a peer transfer
// this is the amount the creator must cover.
func (t *Transaction) TotalBucks() decimal.Decimal {
	total := decimal.Zero
	for i := range t.Entries {
		total = total.Add(t.Entries[i].Bucks)
	}
	return total
}

// ReceiverCount returns the number of distinct receiving accounts.
func (t *Transaction) ReceiverCount() int {
	seen := make(map[string]struct{}, len(t.Entries))
	for i := range t.Entries {
		seen[t.Entries[i].AccountID] = struct{}{}
	}
	return len(seen)
}

// entriesCounted verifies every entry matches the expected counted value.
// This defends against partial or concurrent processing.
func (t *Transaction) entriesCounted(want bool) error {
	for i := range t.Entries {
		if t.Entries[i].Counted != want {
			if want {
				return fmt.Errorf("%w: entry %s", ErrEntryNotCounted, t.Entries[i].EntryID)
			}
			return fmt.Errorf("%w: entry %s", ErrEntryAlreadyCounted, t.Entries[i].EntryID)
		}
	}
	return nil
}

// requireAccounts checks that every receiving account, plus the creator for
// peer transfers, is present in the supplied map.
func (t *Transaction) requireAccounts(accounts map[string]*Account) error {
	for i := range t.Entries {
		if accounts[t.Entries[i].AccountID] == nil {
			return fmt.Errorf("%w: account %s", ErrAccountMissing, t.Entries[i].AccountID)
		}
	}
	if t.Type == TypeP2P && accounts[t.CreatorID] == nil {
		return fmt.Errorf("%w: creator %s", ErrAccountMissing, t.CreatorID)
	}
	return nil
}

// Process applies every entry to its account and flips created->processed.
// For a peer transfer the creator is additionally debited by the recipient
// total; balance sufficiency is checked here, at processing time, because the
// creator's balance may have changed since creation.
//
// All validation happens before the first mutation, so a failure leaves every
// account and entry untouched.
func (t *Transaction) Process(accounts map[string]*Account, now time.Time) error {
	if !t.State.CanTransitionTo(StateProcessed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.State, StateProcessed)
	}
	if len(t.Entries) == 0 {
		return ErrNoRecipients
	}
	if err := t.entriesCounted(false); err != nil {
		return err
	}
	if err := t.requireAccounts(accounts); err != nil {
		return err
	}

	if t.Type == TypeP2P {
		creator := accounts[t.CreatorID]
		total := t.TotalBucks()
		if creator.Balance.LessThan(total) {
			return fmt.Errorf("%w: required %s, available %s",
				ErrInsufficientBalance, total.String(), creator.Balance.String())
		}
		creator.apply(AccountDelta{Bucks: total.Neg()})
	}

	for i := range t.Entries {
		if err := t.Entries[i].Apply(accounts[t.Entries[i].AccountID], now); err != nil {
			// Unreachable after pre-validation; surfaced rather than swallowed.
			return err
		}
	}

	t.State = StateProcessed
	t.LastUpdatedAt = now
	return nil
}

// Decline rejects an unprocessed transaction. Nothing has been applied, so
// there is nothing to undo.
func (t *Transaction) Decline(now time.Time) error {
	if !t.State.CanTransitionTo(StateDeclined) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.State, StateDeclined)
	}
	if err := t.entriesCounted(false); err != nil {
		return err
	}
	t.State = StateDeclined
	t.LastUpdatedAt = now
	return nil
}

// Substitute unwinds a processed transaction in favor of a replacement: every
// entry is undone and, for a peer transfer, the creator is credited back the
// total. Valid only from processed.
func (t *Transaction) Substitute(accounts map[string]*Account, now time.Time) error {
	if !t.State.CanTransitionTo(StateSubstituted) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.State, StateSubstituted)
	}
	if err := t.entriesCounted(true); err != nil {
		return err
	}
	if err := t.requireAccounts(accounts); err != nil {
		return err
	}

	if t.Type == TypeP2P {
		accounts[t.CreatorID].apply(AccountDelta{Bucks: t.TotalBucks()})
	}

	for i := range t.Entries {
		if err := t.Entries[i].Undo(accounts[t.Entries[i].AccountID], now); err != nil {
			return err
		}
	}

	t.State = StateSubstituted
	t.LastUpdatedAt = now
	return nil
}
