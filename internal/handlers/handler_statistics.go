package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/middleware"
)

// statisticsHandler exposes aggregate reporting over the camp economy.
type statisticsHandler struct {
	statisticsService portssvc.StatisticsSvcFacade
}

func newStatisticsHandler(ss portssvc.StatisticsSvcFacade) *statisticsHandler {
	return &statisticsHandler{statisticsService: ss}
}

// registerStatisticsRoutes registers the statistics routes.
func registerStatisticsRoutes(rg *gin.RouterGroup, statisticsService portssvc.StatisticsSvcFacade) {
	h := newStatisticsHandler(statisticsService)
	rg.GET("/statistics", h.getEconomyStatistics)
}

func (h *statisticsHandler) getEconomyStatistics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	stats, err := h.statisticsService.GetEconomyStatistics(c.Request.Context())
	if err != nil {
		logger.Error("Failed to compute economy statistics", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to compute statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
