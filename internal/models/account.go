package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Account represents a participant row in the accounts table.
// Balance and the attendance counters are persisted running totals; they only
// move through ledger entry application inside a database transaction.
type Account struct {
	AccountID    string          `db:"account_id"`
	Username     string          `db:"username"`
	PasswordHash string          `db:"password_hash"`
	FirstName    string          `db:"first_name"`
	LastName     string          `db:"last_name"`
	MiddleName   string          `db:"middle_name"`
	Party        int             `db:"party"`
	Grade        int             `db:"grade"`
	Role         string          `db:"role"`
	Balance      decimal.Decimal `db:"balance"`
	Certificates decimal.Decimal `db:"certificates"`
	LabCount     int             `db:"lab_count"`
	LectureCount int             `db:"lecture_count"`
	SeminarCount int             `db:"seminar_count"`
	FacultyCount int             `db:"faculty_count"`
	IsActive     bool            `db:"is_active"`
	AuditFields

	// Refresh Token Fields
	RefreshTokenHash       sql.NullString `db:"refresh_token_hash"`
	RefreshTokenExpiryTime sql.NullTime   `db:"refresh_token_expiry_time"`
}
