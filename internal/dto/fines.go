package dto

import "github.com/shopspring/decimal"

// FineBreakdownResponse explains each fine an account would owe if the
// assessment ran right now. Amounts are positive.
type FineBreakdownResponse struct {
	AccountID       string          `json:"accountID"`
	Equator         bool            `json:"equator"`
	ObligatoryStudy decimal.Decimal `json:"obligatoryStudy"`
	Lab             decimal.Decimal `json:"lab"`
	Faculty         decimal.Decimal `json:"faculty"`
	Seminar         decimal.Decimal `json:"seminar"`
	NextLectureMiss decimal.Decimal `json:"nextLectureMiss"`
	Total           decimal.Decimal `json:"total"`
}

// AssessmentResponse reports the outcome of a bulk assessment run.
type AssessmentResponse struct {
	TransactionID string          `json:"transactionID,omitempty"`
	Assessed      int             `json:"assessed"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}
