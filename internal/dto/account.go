package dto

import (
	"time"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest registers a new participant.
type CreateAccountRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required,min=6"`
	FirstName  string `json:"firstName" binding:"required"`
	LastName   string `json:"lastName" binding:"required"`
	MiddleName string `json:"middleName"`
	Party      int    `json:"party"`
	Grade      int    `json:"grade"`
	Role       string `json:"role" binding:"omitempty,oneof=student staff admin"`
}

// UpdateAccountRequest updates profile fields. Balance and counters are not
// updatable through the API; only processed transactions move them.
type UpdateAccountRequest struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	MiddleName *string `json:"middleName"`
	Party      *int    `json:"party"`
	Grade      *int    `json:"grade"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	AccountID    string          `json:"accountID"`
	Username     string          `json:"username"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	MiddleName   string          `json:"middleName,omitempty"`
	Party        int             `json:"party"`
	Grade        int             `json:"grade"`
	Role         string          `json:"role"`
	Balance      decimal.Decimal `json:"balance"`
	Certificates decimal.Decimal `json:"certificates"`
	LabCount     int             `json:"labCount"`
	LectureCount int             `json:"lectureCount"`
	SeminarCount int             `json:"seminarCount"`
	FacultyCount int             `json:"facultyCount"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ToAccountResponse maps a domain account to its API representation.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:    a.AccountID,
		Username:     a.Username,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		MiddleName:   a.MiddleName,
		Party:        a.Party,
		Grade:        a.Grade,
		Role:         string(a.Role),
		Balance:      a.Balance,
		Certificates: a.Certificates,
		LabCount:     a.LabCount,
		LectureCount: a.LectureCount,
		SeminarCount: a.SeminarCount,
		FacultyCount: a.FacultyCount,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
	}
}

// ToAccountResponses maps a slice of domain accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}
