package services

import (
	"log"

	"github.com/shopspring/decimal"

	portsrepo "github.com/campeconomy/camp_bank_app/internal/core/ports/repositories"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Transaction service first since account creation records the initial
	// money grant through it.
	container.Transaction = NewTransactionService(repos.TransactionRepo, repos.AccountRepo)

	initialMoney, err := decimal.NewFromString(cfg.InitialMoney)
	if err != nil {
		log.Printf("Warning: INITIAL_MONEY %q is not a valid decimal, new students start at zero\n", cfg.InitialMoney)
		initialMoney = decimal.Zero
	}
	container.Account = NewAccountService(
		repos.AccountRepo,
		WithInitialMoney(initialMoney),
		WithTransactionService(container.Transaction),
	)

	container.Fine = NewFineService(cfg.Fines, repos.AccountRepo)
	container.Assessment = NewAssessmentService(repos.AccountRepo, container.Transaction, container.Fine, cfg.DailyTax)
	container.Statistics = NewStatisticsService(repos.AccountRepo)

	container.Token = NewTokenService(cfg, container.Account)
	container.GoogleOAuth = NewGoogleOAuthHandlerService(cfg)

	return container
}
