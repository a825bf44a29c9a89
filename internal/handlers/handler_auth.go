package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/campeconomy/camp_bank_app/internal/apperrors"
	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/dto"
	"github.com/campeconomy/camp_bank_app/internal/middleware"
	"github.com/campeconomy/camp_bank_app/internal/utils"
)

// authHandler handles authentication related requests.
type authHandler struct {
	accountService portssvc.AccountSvcFacade
	tokenService   portssvc.TokenSvcFacade
}

func newAuthHandler(as portssvc.AccountSvcFacade, ts portssvc.TokenSvcFacade) *authHandler {
	return &authHandler{
		accountService: as,
		tokenService:   ts,
	}
}

// ErrorResponse is a generic error response structure for handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// registerAuthRoutes sets up the public authentication routes.
func registerAuthRoutes(rg *gin.Engine, services *portssvc.ServiceContainer) {
	h := newAuthHandler(services.Account, services.Token)

	// 5 requests per minute per client IP on credential endpoints.
	rate, _ := limiter.NewRateFromFormatted("5-M")
	ipLimiter := limiter.New(memory.NewStore(), rate)
	limitMiddleware := middleware.RateLimit(ipLimiter)

	auth := rg.Group("/api/v1/auth")
	{
		auth.POST("/login", limitMiddleware, h.login)
		auth.POST("/refresh", limitMiddleware, h.refresh)
	}
}

// registerSessionRoutes sets up the authenticated session routes.
func registerSessionRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newAuthHandler(services.Account, services.Token)
	rg.POST("/auth/logout", h.logout)
}

// issueTokenPair generates an access and refresh token for the account and
// persists the refresh token hash so it can be validated later.
func (h *authHandler) issueTokenPair(c *gin.Context, account *domain.Account) (*dto.LoginResponse, error) {
	ctx := c.Request.Context()

	accessToken, accessExpiry, err := h.tokenService.GenerateAccessToken(ctx, account)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiry, err := h.tokenService.GenerateRefreshToken(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := h.accountService.UpdateRefreshToken(ctx, account.AccountID, utils.HashRefreshToken(refreshToken), refreshExpiry); err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccountID:             account.AccountID,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExpiry,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshExpiry,
	}, nil
}

func (h *authHandler) login(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	account, err := h.accountService.AuthenticateAccount(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// The same message for unknown user and wrong password.
		logger.Warn("Login failed", slog.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid username or password"})
		return
	}

	resp, err := h.issueTokenPair(c, account)
	if err != nil {
		logger.Error("Failed to issue token pair", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate tokens"})
		return
	}

	logger.Info("Login succeeded", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusOK, resp)
}

func (h *authHandler) refresh(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	account, err := h.tokenService.ValidateAndParseRefreshToken(c.Request.Context(), req.AccountID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrRefreshTokenExpired) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Refresh token expired, please log in again"})
			return
		}
		logger.Warn("Refresh token validation failed", slog.String("account_id", req.AccountID))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid refresh token"})
		return
	}

	// Rotate: the old refresh token is replaced by the new pair.
	resp, err := h.issueTokenPair(c, account)
	if err != nil {
		logger.Error("Failed to rotate token pair", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *authHandler) logout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.accountService.ClearRefreshToken(c.Request.Context(), accountID); err != nil {
		logger.Error("Failed to clear refresh token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to log out"})
		return
	}

	logger.Info("Logged out", slog.String("account_id", accountID))
	c.Status(http.StatusNoContent)
}
