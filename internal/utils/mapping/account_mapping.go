package mapping

import (
	"database/sql"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/campeconomy/camp_bank_app/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	m := models.Account{
		AccountID:    d.AccountID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		MiddleName:   d.MiddleName,
		Party:        d.Party,
		Grade:        d.Grade,
		Role:         string(d.Role),
		Balance:      d.Balance,
		Certificates: d.Certificates,
		LabCount:     d.LabCount,
		LectureCount: d.LectureCount,
		SeminarCount: d.SeminarCount,
		FacultyCount: d.FacultyCount,
		IsActive:     d.IsActive,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
	if d.RefreshTokenHash != nil {
		m.RefreshTokenHash = sql.NullString{String: *d.RefreshTokenHash, Valid: true}
	}
	if d.RefreshTokenExpiryTime != nil {
		m.RefreshTokenExpiryTime = sql.NullTime{Time: *d.RefreshTokenExpiryTime, Valid: true}
	}
	return m
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	d := domain.Account{
		AccountID:    m.AccountID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		MiddleName:   m.MiddleName,
		Party:        m.Party,
		Grade:        m.Grade,
		Role:         domain.Role(m.Role),
		Balance:      m.Balance,
		Certificates: m.Certificates,
		LabCount:     m.LabCount,
		LectureCount: m.LectureCount,
		SeminarCount: m.SeminarCount,
		FacultyCount: m.FacultyCount,
		IsActive:     m.IsActive,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
	if m.RefreshTokenHash.Valid {
		d.RefreshTokenHash = &m.RefreshTokenHash.String
	}
	if m.RefreshTokenExpiryTime.Valid {
		d.RefreshTokenExpiryTime = &m.RefreshTokenExpiryTime.Time
	}
	return d
}

// ToDomainAccountSlice converts a slice of model Accounts to a slice of domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}
