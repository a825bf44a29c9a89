package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	portsrepo "github.com/campeconomy/camp_bank_app/internal/core/ports/repositories"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/dto"
)

// statisticsService aggregates the economy-wide numbers shown on dashboards.
type statisticsService struct {
	accountRepo portsrepo.AccountRepository
}

// NewStatisticsService creates a new StatisticsService.
func NewStatisticsService(accountRepo portsrepo.AccountRepository) portssvc.StatisticsSvcFacade {
	return &statisticsService{accountRepo: accountRepo}
}

var _ portssvc.StatisticsSvcFacade = (*statisticsService)(nil)

// GetEconomyStatistics returns the active student count, the total money in
// circulation and the average balance.
func (s *statisticsService) GetEconomyStatistics(ctx context.Context) (*dto.EconomyStatisticsResponse, error) {
	count, total, err := s.accountRepo.EconomyTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get economy totals: %w", err)
	}

	average := decimal.Zero
	if count > 0 {
		average = total.Div(decimal.NewFromInt(int64(count))).Round(2)
	}

	return &dto.EconomyStatisticsResponse{
		ActiveStudents: count,
		TotalMoney:     total,
		AverageMoney:   average,
	}, nil
}
