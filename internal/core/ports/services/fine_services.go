package services

import (
	"context"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/campeconomy/camp_bank_app/internal/dto"
	"github.com/shopspring/decimal"
)

// FineCalculatorSvc defines the pure fine computations over an account's
// counters. Calculations never touch storage.
type FineCalculatorSvc interface {
	// ObligatoryStudyFine returns the progressive penalty for missing
	// obligatory study units (seminars plus faculty sessions attended)
	// against the requirement for the period.
	ObligatoryStudyFine(acc *domain.Account, equator bool) decimal.Decimal

	// NextMissedLecturePenalty returns the escalating charge the next missed
	// lecture would carry for this account.
	NextMissedLecturePenalty(acc *domain.Account) decimal.Decimal

	// LabFine returns the penalty for missing lab passes for the account's grade.
	LabFine(acc *domain.Account, equator bool) decimal.Decimal

	// FacultyFine returns the penalty for missing faculty passes for the
	// account's grade. Not levied at the equator.
	FacultyFine(acc *domain.Account) decimal.Decimal

	// SeminarFine returns the penalty for not having read a seminar. Not
	// levied at the equator.
	SeminarFine(acc *domain.Account) decimal.Decimal

	// TotalFine returns the sum of every fine the account owes for the period.
	TotalFine(acc *domain.Account, equator bool) decimal.Decimal
}

// FineReaderSvc exposes fine previews over stored accounts.
type FineReaderSvc interface {
	// GetFineBreakdown loads an account and explains each fine it would owe.
	GetFineBreakdown(ctx context.Context, accountID string, equator bool) (*dto.FineBreakdownResponse, error)
}

// FineSvcFacade combines fine calculation and preview interfaces
type FineSvcFacade interface {
	FineCalculatorSvc
	FineReaderSvc
}
