package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campeconomy/camp_bank_app/internal/apperrors"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/core/services"
	"github.com/campeconomy/camp_bank_app/internal/dto"
	"github.com/campeconomy/camp_bank_app/internal/middleware"
)

// assessmentHandler exposes the bulk operations staff runs against the whole
// camp: the daily tax and the two fine assessments.
type assessmentHandler struct {
	assessmentService portssvc.AssessmentSvcFacade
}

func newAssessmentHandler(as portssvc.AssessmentSvcFacade) *assessmentHandler {
	return &assessmentHandler{assessmentService: as}
}

// registerAssessmentRoutes registers the bulk assessment routes.
func registerAssessmentRoutes(rg *gin.RouterGroup, assessmentService portssvc.AssessmentSvcFacade) {
	h := newAssessmentHandler(assessmentService)

	assessments := rg.Group("/assessments")
	{
		assessments.POST("/tax", h.levyDailyTax)
		assessments.POST("/fines/equator", h.assessEquatorFines)
		assessments.POST("/fines/final", h.assessFinalFines)
	}
}

// runAssessment executes one bulk operation with shared error handling.
func (h *assessmentHandler) runAssessment(c *gin.Context, name string, run func(ctx *gin.Context, requesterID string) (*dto.AssessmentResponse, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := run(c, requesterID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
		case errors.Is(err, services.ErrBadTaxAmount):
			logger.Error("Assessment misconfigured", slog.String("assessment", name), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Assessment misconfigured"})
		default:
			logger.Error("Assessment failed", slog.String("assessment", name), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Assessment failed"})
		}
		return
	}

	logger.Info("Assessment completed", slog.String("assessment", name), slog.Int("assessed", resp.Assessed))
	c.JSON(http.StatusOK, resp)
}

func (h *assessmentHandler) levyDailyTax(c *gin.Context) {
	h.runAssessment(c, "daily_tax", func(ctx *gin.Context, requesterID string) (*dto.AssessmentResponse, error) {
		return h.assessmentService.LevyDailyTax(ctx.Request.Context(), requesterID)
	})
}

func (h *assessmentHandler) assessEquatorFines(c *gin.Context) {
	h.runAssessment(c, "equator_fines", func(ctx *gin.Context, requesterID string) (*dto.AssessmentResponse, error) {
		return h.assessmentService.AssessEquatorFines(ctx.Request.Context(), requesterID)
	})
}

func (h *assessmentHandler) assessFinalFines(c *gin.Context) {
	h.runAssessment(c, "final_fines", func(ctx *gin.Context, requesterID string) (*dto.AssessmentResponse, error) {
		return h.assessmentService.AssessFinalFines(ctx.Request.Context(), requesterID)
	})
}
