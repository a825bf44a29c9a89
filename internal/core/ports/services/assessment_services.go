package services

import (
	"context"

	"github.com/campeconomy/camp_bank_app/internal/dto"
)

// AssessmentSvcFacade defines the bulk operations the bank runs against the
// whole population of active students.
type AssessmentSvcFacade interface {
	// LevyDailyTax charges every active student the daily tax in a single
	// processed transaction.
	LevyDailyTax(ctx context.Context, requestingUserID string) (*dto.AssessmentResponse, error)

	// AssessEquatorFines levies the reduced mid-camp fines on every active
	// student that owes one.
	AssessEquatorFines(ctx context.Context, requestingUserID string) (*dto.AssessmentResponse, error)

	// AssessFinalFines levies the end-of-camp fines on every active student
	// that owes one.
	AssessFinalFines(ctx context.Context, requestingUserID string) (*dto.AssessmentResponse, error)
}

// StatisticsSvcFacade defines aggregate reporting over the economy.
type StatisticsSvcFacade interface {
	// GetEconomyStatistics returns the active student count and money totals.
	GetEconomyStatistics(ctx context.Context) (*dto.EconomyStatisticsResponse, error)
}
