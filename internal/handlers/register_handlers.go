package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/middleware"
	"github.com/campeconomy/camp_bank_app/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	registerCustomValidators()

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	// Public authentication routes
	registerAuthRoutes(r, services)
	registerGoogleOAuthRoutes(r, services)

	setupAPIV1Routes(r, cfg, services)
}

// registerCustomValidators attaches domain validations to gin's binding
// validator. "txntype" accepts only the closed set of transaction types.
func registerCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("txntype", func(fl validator.FieldLevel) bool {
			return domain.TransactionType(fl.Field().String()).Valid()
		})
	}
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// The whole v1 group requires a valid access token.
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	registerSessionRoutes(v1, services)
	registerAccountRoutes(v1, services.Account, services.Transaction, services.Fine)
	registerTransactionRoutes(v1, services.Transaction)
	registerAssessmentRoutes(v1, services.Assessment)
	registerStatisticsRoutes(v1, services.Statistics)
}
