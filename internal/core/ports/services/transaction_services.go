package services

import (
	"context"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	"github.com/campeconomy/camp_bank_app/internal/dto"
)

// TransactionReaderSvc defines read operations for transaction data
type TransactionReaderSvc interface {
	// GetTransactionByID retrieves a specific transaction with its entries.
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves a paginated list of transactions.
	ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)

	// ListEntriesByAccount retrieves the ledger history for one account.
	ListEntriesByAccount(ctx context.Context, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// ReconcileAccount recomputes an account's balance and counters from the
	// ledger and compares them against the stored columns. Privileged users
	// only.
	ReconcileAccount(ctx context.Context, accountID string, requestingUserID string) (*dto.ReconciliationResponse, error)
}

// TransactionWriterSvc defines write operations for transaction data
type TransactionWriterSvc interface {
	// CreateTransaction persists a new transaction with its entries in the
	// created state. Nothing is applied to any account yet.
	CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, creatorUserID string) (*domain.Transaction, error)

	// ProcessTransaction applies every entry of a created transaction to its
	// recipient accounts and marks the transaction processed.
	ProcessTransaction(ctx context.Context, transactionID string, requestingUserID string) (*domain.Transaction, error)

	// DeclineTransaction rejects a created transaction without touching any
	// account.
	DeclineTransaction(ctx context.Context, transactionID string, requestingUserID string) (*domain.Transaction, error)

	// SubstituteTransaction undoes every entry of a processed transaction and
	// marks it substituted.
	SubstituteTransaction(ctx context.Context, transactionID string, requestingUserID string) (*domain.Transaction, error)
}

// TransactionSvcFacade combines all transaction-related service interfaces
type TransactionSvcFacade interface {
	TransactionReaderSvc
	TransactionWriterSvc
}
