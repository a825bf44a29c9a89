package dto

import (
	"time"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecipientRequest is one recipient line of a new transaction.
type RecipientRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// CreateTransactionRequest opens a transaction in the created state.
type CreateTransactionRequest struct {
	Type         string             `json:"type" binding:"required,txntype"`
	Description  string             `json:"description"`
	SupersedesID *string            `json:"supersedesID"`
	Recipients   []RecipientRequest `json:"recipients" binding:"required,min=1,dive"`
}

// ListTransactionsParams carries pagination filters for transaction listings.
type ListTransactionsParams struct {
	CreatorID string `form:"creatorID"`
	Limit     int    `form:"limit"`
	NextToken string `form:"nextToken"`
}

// ListEntriesParams carries pagination filters for an account's ledger history.
type ListEntriesParams struct {
	Limit     int    `form:"limit"`
	NextToken string `form:"nextToken"`
}

// EntryResponse is one ledger line of a transaction.
type EntryResponse struct {
	EntryID      string          `json:"entryID"`
	AccountID    string          `json:"accountID"`
	Bucks        decimal.Decimal `json:"bucks"`
	Certificates decimal.Decimal `json:"certificates"`
	Lab          int             `json:"lab"`
	Lecture      int             `json:"lecture"`
	Seminar      int             `json:"seminar"`
	Faculty      int             `json:"faculty"`
	Description  string          `json:"description,omitempty"`
	Counted      bool            `json:"counted"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// TransactionResponse is the full view of a transaction with its entries.
type TransactionResponse struct {
	TransactionID string          `json:"transactionID"`
	CreatorID     string          `json:"creatorID"`
	Type          string          `json:"type"`
	Description   string          `json:"description,omitempty"`
	State         string          `json:"state"`
	SupersedesID  *string         `json:"supersedesID,omitempty"`
	Entries       []EntryResponse `json:"entries"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// ListTransactionsResponse is a page of transactions with a continuation token.
type ListTransactionsResponse struct {
	Transactions  []TransactionResponse `json:"transactions"`
	NextPageToken string                `json:"nextPageToken,omitempty"`
}

// ListEntriesResponse is a page of ledger entries for one account.
type ListEntriesResponse struct {
	Entries       []EntryResponse `json:"entries"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

// ReconciliationTotals is one side of a reconciliation check: the balance and
// attendance counters either as stored on the account row or as recomputed
// from the ledger.
type ReconciliationTotals struct {
	Balance      decimal.Decimal `json:"balance"`
	Certificates decimal.Decimal `json:"certificates"`
	LabCount     int             `json:"labCount"`
	LectureCount int             `json:"lectureCount"`
	SeminarCount int             `json:"seminarCount"`
	FacultyCount int             `json:"facultyCount"`
}

// ReconciliationResponse compares an account's stored columns against the
// totals recomputed from its counted ledger entries.
type ReconciliationResponse struct {
	AccountID  string               `json:"accountID"`
	Stored     ReconciliationTotals `json:"stored"`
	Recomputed ReconciliationTotals `json:"recomputed"`
	Consistent bool                 `json:"consistent"`
}

// ToEntryResponse maps a domain ledger entry to its API representation.
func ToEntryResponse(e *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		EntryID:      e.EntryID,
		AccountID:    e.AccountID,
		Bucks:        e.Bucks,
		Certificates: e.Certs,
		Lab:          e.Lab,
		Lecture:      e.Lecture,
		Seminar:      e.Seminar,
		Faculty:      e.Faculty,
		Description:  e.Description,
		Counted:      e.Counted,
		CreatedAt:    e.CreatedAt,
	}
}

// ToEntryResponses maps a slice of domain ledger entries.
func ToEntryResponses(entries []domain.LedgerEntry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = ToEntryResponse(&entries[i])
	}
	return out
}

// ToTransactionResponse maps a domain transaction to its API representation.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: t.TransactionID,
		CreatorID:     t.CreatorID,
		Type:          string(t.Type),
		Description:   t.Description,
		State:         string(t.State),
		SupersedesID:  t.SupersedesID,
		Entries:       ToEntryResponses(t.Entries),
		CreatedAt:     t.CreatedAt,
		LastUpdatedAt: t.LastUpdatedAt,
	}
}

// ToTransactionResponses maps a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out
}
