package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Role classifies a participant of the camp economy.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Privileged reports whether the role is exempt from fines and may run
// bank operations (processing, assessments).
func (r Role) Privileged() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Account represents one participant's bank account: balance, the secondary
// certificate currency, and the attendance counters the fine engine reads.
//
// Balance and counters are only ever mutated by the apply/undo of a ledger
// entry belonging to a processed transaction; nothing writes them directly.
type Account struct {
	AccountID    string          `json:"accountID"` // Primary Key (UUID)
	Username     string          `json:"username"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	MiddleName   string          `json:"middleName"`
	Party        int             `json:"party"` // camp squad number
	Grade        int             `json:"grade"` // drives per-grade requirement lookups
	Role         Role            `json:"role"`
	Balance      decimal.Decimal `json:"balance"`
	Certificates decimal.Decimal `json:"certificates"`

	// Attendance counters, denormalized running totals over counted entries.
	// LectureCount counts missed lectures, not attended ones; it drives the
	// escalating miss penalty.
	LabCount     int `json:"labCount"`
	LectureCount int `json:"lectureCount"`
	SeminarCount int `json:"seminarCount"`
	FacultyCount int `json:"facultyCount"`

	IsActive     bool   `json:"isActive"`
	PasswordHash string `json:"-"`

	RefreshTokenHash       *string    `json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`
	AuditFields
}

// LongName returns "Lastname Firstname" as shown in transaction listings.
func (a *Account) LongName() string {
	return fmt.Sprintf("%s %s", a.LastName, a.FirstName)
}

// ShortName returns the last name with initials where available.
func (a *Account) ShortName() string {
	if a.FirstName != "" && a.MiddleName != "" {
		return fmt.Sprintf("%s %c. %c.", a.LastName, []rune(a.FirstName)[0], []rune(a.MiddleName)[0])
	}
	return a.LastName
}

// AccountDelta is the net effect of one or more ledger entries on an account.
type AccountDelta struct {
	Bucks   decimal.Decimal
	Certs   decimal.Decimal
	Lab     int
	Lecture int
	Seminar int
	Faculty int
}

// Add returns the component-wise sum of two deltas.
func (d AccountDelta) Add(o AccountDelta) AccountDelta {
	return AccountDelta{
		Bucks:   d.Bucks.Add(o.Bucks),
		Certs:   d.Certs.Add(o.Certs),
		Lab:     d.Lab + o.Lab,
		Lecture: d.Lecture + o.Lecture,
		Seminar: d.Seminar + o.Seminar,
		Faculty: d.Faculty + o.Faculty,
	}
}

// Neg returns the exact inverse delta.
func (d AccountDelta) Neg() AccountDelta {
	return AccountDelta{
		Bucks:   d.Bucks.Neg(),
		Certs:   d.Certs.Neg(),
		Lab:     -d.Lab,
		Lecture: -d.Lecture,
		Seminar: -d.Seminar,
		Faculty: -d.Faculty,
	}
}

// IsZero reports whether the delta has no effect at all.
func (d AccountDelta) IsZero() bool {
	return d.Bucks.IsZero() && d.Certs.IsZero() &&
		d.Lab == 0 && d.Lecture == 0 && d.Seminar == 0 && d.Faculty == 0
}

// apply mutates the account by the delta.
func (a *Account) apply(d AccountDelta) {
	a.Balance = a.Balance.Add(d.Bucks)
	a.Certificates = a.Certificates.Add(d.Certs)
	a.LabCount += d.Lab
	a.LectureCount += d.Lecture
	a.SeminarCount += d.Seminar
	a.FacultyCount += d.Faculty
}
