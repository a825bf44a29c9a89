package dto

import "github.com/shopspring/decimal"

// EconomyStatisticsResponse is the aggregate snapshot of the camp economy.
type EconomyStatisticsResponse struct {
	ActiveStudents int             `json:"activeStudents"`
	TotalMoney     decimal.Decimal `json:"totalMoney"`
	AverageMoney   decimal.Decimal `json:"averageMoney"`
}
