package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Transaction represents a row in the transactions table. Entries are stored
// separately in ledger_entries and loaded alongside.
type Transaction struct {
	TransactionID string         `db:"transaction_id"`
	CreatorID     string         `db:"creator_id"`
	Type          string         `db:"type"`
	Description   string         `db:"description"`
	State         string         `db:"state"`
	SupersedesID  sql.NullString `db:"supersedes_id"`
	AuditFields
}

// LedgerEntry represents a row in the ledger_entries table, one recipient line
// of a transaction.
type LedgerEntry struct {
	EntryID       string          `db:"entry_id"`
	TransactionID string          `db:"transaction_id"`
	AccountID     string          `db:"account_id"`
	Bucks         decimal.Decimal `db:"bucks"`
	Certificates  decimal.Decimal `db:"certificates"`
	Lab           int             `db:"lab"`
	Lecture       int             `db:"lecture"`
	Seminar       int             `db:"seminar"`
	Faculty       int             `db:"faculty"`
	Description   string          `db:"description"`
	Counted       bool            `db:"counted"`
	AuditFields
}
