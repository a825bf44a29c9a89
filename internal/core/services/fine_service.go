package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	portsrepo "github.com/campeconomy/camp_bank_app/internal/core/ports/repositories"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/dto"
	"github.com/campeconomy/camp_bank_app/internal/platform/config"
)

// fineService computes penalties from account counters and the configured
// per-grade requirement tables. Calculations are pure; only GetFineBreakdown
// touches storage.
type fineService struct {
	rules       config.FineRules
	accountRepo portsrepo.AccountRepository
}

// NewFineService creates a new FineService.
func NewFineService(rules config.FineRules, accountRepo portsrepo.AccountRepository) portssvc.FineSvcFacade {
	return &fineService{
		rules:       rules,
		accountRepo: accountRepo,
	}
}

var _ portssvc.FineSvcFacade = (*fineService)(nil)

// progression sums deficit terms of the arithmetic progression
// initial, initial+step, initial+2*step, ...
func progression(deficit int, initial, step int64) decimal.Decimal {
	if deficit <= 0 {
		return decimal.Zero
	}
	n := int64(deficit)
	total := n*initial + step*n*(n-1)/2
	return decimal.NewFromInt(total)
}

// ObligatoryStudyFine returns the progressive penalty for missing obligatory
// study units. Seminars and faculty sessions attended both count toward the
// requirement; the per-unit charge grows with the deficit rather than being a
// flat multiply.
func (s *fineService) ObligatoryStudyFine(acc *domain.Account, equator bool) decimal.Decimal {
	if acc.Role.Privileged() {
		return decimal.Zero
	}
	needed := s.rules.OblStudyNeeded
	if equator {
		needed = s.rules.OblStudyNeededEquator
	}
	deficit := needed - (acc.SeminarCount + acc.FacultyCount)
	return progression(deficit, s.rules.InitialStepOblStudy, s.rules.StepOblStudy)
}

// LabFine returns the flat penalty per missing lab pass for the account's grade.
func (s *fineService) LabFine(acc *domain.Account, equator bool) decimal.Decimal {
	if acc.Role.Privileged() {
		return decimal.Zero
	}
	needed := s.rules.LabNeeded(acc.Grade)
	if equator {
		needed = s.rules.LabPassNeededEquator
	}
	deficit := needed - acc.LabCount
	if deficit <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(deficit) * s.rules.LabPenalty)
}

// FacultyFine returns the flat penalty per missing faculty pass for the
// account's grade. Only levied at the final assessment.
func (s *fineService) FacultyFine(acc *domain.Account) decimal.Decimal {
	if acc.Role.Privileged() {
		return decimal.Zero
	}
	deficit := s.rules.FacNeeded(acc.Grade) - acc.FacultyCount
	if deficit <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(deficit) * s.rules.FacPenalty)
}

// SeminarFine returns the flat penalty for not having passed a seminar. Only
// levied at the final assessment.
func (s *fineService) SeminarFine(acc *domain.Account) decimal.Decimal {
	if acc.Role.Privileged() {
		return decimal.Zero
	}
	if acc.SeminarCount >= 1 {
		return decimal.Zero
	}
	return decimal.NewFromInt(s.rules.SemNotReadPenalty)
}

// NextMissedLecturePenalty returns the escalating charge the next missed
// lecture would carry: each prior miss raises the price of the next one.
func (s *fineService) NextMissedLecturePenalty(acc *domain.Account) decimal.Decimal {
	if acc.Role.Privileged() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(acc.LectureCount)*s.rules.LecturePenaltyStep + s.rules.LecturePenaltyInitial)
}

// TotalFine returns the sum of every fine the account owes for the period.
// The equator assessment only charges the reduced study and lab requirements;
// seminar and faculty fines wait for the final assessment.
func (s *fineService) TotalFine(acc *domain.Account, equator bool) decimal.Decimal {
	if acc.Role.Privileged() {
		return decimal.Zero
	}
	total := s.ObligatoryStudyFine(acc, equator).Add(s.LabFine(acc, equator))
	if !equator {
		total = total.Add(s.FacultyFine(acc)).Add(s.SeminarFine(acc))
	}
	return total
}

// GetFineBreakdown loads an account and explains each fine it would owe if
// the assessment ran right now.
func (s *fineService) GetFineBreakdown(ctx context.Context, accountID string, equator bool) (*dto.FineBreakdownResponse, error) {
	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s for fine breakdown: %w", accountID, err)
	}

	resp := &dto.FineBreakdownResponse{
		AccountID:       acc.AccountID,
		Equator:         equator,
		ObligatoryStudy: s.ObligatoryStudyFine(acc, equator),
		Lab:             s.LabFine(acc, equator),
		NextLectureMiss: s.NextMissedLecturePenalty(acc),
	}
	if !equator {
		resp.Faculty = s.FacultyFine(acc)
		resp.Seminar = s.SeminarFine(acc)
	} else {
		resp.Faculty = decimal.Zero
		resp.Seminar = decimal.Zero
	}
	resp.Total = s.TotalFine(acc, equator)
	return resp, nil
}
