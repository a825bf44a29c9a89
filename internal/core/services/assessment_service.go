package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/campeconomy/camp_bank_app/internal/apperrors"
	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	portsrepo "github.com/campeconomy/camp_bank_app/internal/core/ports/repositories"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/dto"
	"github.com/campeconomy/camp_bank_app/internal/middleware"
)

var ErrBadTaxAmount = errors.New("daily tax amount is not a valid decimal")

// assessmentService runs the bulk charges of the camp economy: the daily tax
// and the equator/final fine assessments. Each run that touches anyone
// produces exactly one processed transaction; a run that finds no one owing
// anything persists nothing.
type assessmentService struct {
	accountRepo portsrepo.AccountRepository
	txnSvc      portssvc.TransactionWriterSvc
	fineSvc     portssvc.FineCalculatorSvc
	dailyTax    string
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(accountRepo portsrepo.AccountRepository, txnSvc portssvc.TransactionWriterSvc, fineSvc portssvc.FineCalculatorSvc, dailyTax string) portssvc.AssessmentSvcFacade {
	return &assessmentService{
		accountRepo: accountRepo,
		txnSvc:      txnSvc,
		fineSvc:     fineSvc,
		dailyTax:    dailyTax,
	}
}

var _ portssvc.AssessmentSvcFacade = (*assessmentService)(nil)

func (s *assessmentService) requirePrivileged(ctx context.Context, requestingUserID string) error {
	requester, err := s.accountRepo.FindAccountByID(ctx, requestingUserID)
	if err != nil {
		return fmt.Errorf("failed to verify requesting user %s: %w", requestingUserID, err)
	}
	if !requester.Role.Privileged() {
		return apperrors.ErrForbidden
	}
	return nil
}

// runAssessment creates and immediately processes one transaction charging
// each listed recipient. Charges are positive amounts; the ledger entries
// carry the negated value.
func (s *assessmentService) runAssessment(ctx context.Context, txnType domain.TransactionType, description string, charges map[string]decimal.Decimal, requestingUserID string) (*dto.AssessmentResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	recipients := make([]dto.RecipientRequest, 0, len(charges))
	total := decimal.Zero
	for accountID, amount := range charges {
		if !amount.IsPositive() {
			continue
		}
		recipients = append(recipients, dto.RecipientRequest{
			AccountID:   accountID,
			Amount:      amount.Neg(),
			Description: description,
		})
		total = total.Add(amount)
	}

	if len(recipients) == 0 {
		logger.Info("Assessment found nothing to charge", "type", string(txnType))
		return &dto.AssessmentResponse{Assessed: 0, TotalAmount: decimal.Zero}, nil
	}

	txn, err := s.txnSvc.CreateTransaction(ctx, dto.CreateTransactionRequest{
		Type:        string(txnType),
		Description: description,
		Recipients:  recipients,
	}, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment transaction: %w", err)
	}
	if _, err := s.txnSvc.ProcessTransaction(ctx, txn.TransactionID, requestingUserID); err != nil {
		return nil, fmt.Errorf("failed to process assessment transaction %s: %w", txn.TransactionID, err)
	}

	logger.Info("Assessment processed", "type", string(txnType), "transactionID", txn.TransactionID, "assessed", len(recipients), "total", total.String())
	return &dto.AssessmentResponse{
		TransactionID: txn.TransactionID,
		Assessed:      len(recipients),
		TotalAmount:   total,
	}, nil
}

// LevyDailyTax charges every active student the daily tax.
func (s *assessmentService) LevyDailyTax(ctx context.Context, requestingUserID string) (*dto.AssessmentResponse, error) {
	if err := s.requirePrivileged(ctx, requestingUserID); err != nil {
		return nil, err
	}

	tax, err := decimal.NewFromString(s.dailyTax)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadTaxAmount, s.dailyTax)
	}

	students, err := s.accountRepo.ListActiveStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students for tax: %w", err)
	}

	charges := make(map[string]decimal.Decimal, len(students))
	for i := range students {
		charges[students[i].AccountID] = tax
	}

	return s.runAssessment(ctx, domain.TypeTax, "Daily tax", charges, requestingUserID)
}

// AssessEquatorFines levies the reduced mid-camp fines.
func (s *assessmentService) AssessEquatorFines(ctx context.Context, requestingUserID string) (*dto.AssessmentResponse, error) {
	return s.assessFines(ctx, requestingUserID, true, "Equator fines")
}

// AssessFinalFines levies the end-of-camp fines.
func (s *assessmentService) AssessFinalFines(ctx context.Context, requestingUserID string) (*dto.AssessmentResponse, error) {
	return s.assessFines(ctx, requestingUserID, false, "Final fines")
}

func (s *assessmentService) assessFines(ctx context.Context, requestingUserID string, equator bool, description string) (*dto.AssessmentResponse, error) {
	if err := s.requirePrivileged(ctx, requestingUserID); err != nil {
		return nil, err
	}

	students, err := s.accountRepo.ListActiveStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students for fines: %w", err)
	}

	charges := make(map[string]decimal.Decimal)
	for i := range students {
		fine := s.fineSvc.TotalFine(&students[i], equator)
		if fine.IsPositive() {
			charges[students[i].AccountID] = fine
		}
	}

	return s.runAssessment(ctx, domain.TypeFine, description, charges, requestingUserID)
}
