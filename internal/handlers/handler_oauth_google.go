package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campeconomy/camp_bank_app/internal/apperrors"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/dto"
	"github.com/campeconomy/camp_bank_app/internal/middleware"
	"github.com/campeconomy/camp_bank_app/internal/utils"
)

// googleOAuthHandler handles Google OAuth related requests. Accounts are
// provisioned by staff; Google sign-in is an alternate login method for an
// account whose username is the Google email.
type googleOAuthHandler struct {
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade
	accountService     portssvc.AccountSvcFacade
	tokenService       portssvc.TokenSvcFacade
}

func newGoogleOAuthHandler(
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade,
	accountService portssvc.AccountSvcFacade,
	tokenService portssvc.TokenSvcFacade,
) *googleOAuthHandler {
	return &googleOAuthHandler{
		googleOAuthService: googleOAuthService,
		accountService:     accountService,
		tokenService:       tokenService,
	}
}

// registerGoogleOAuthRoutes registers the Google OAuth routes.
func registerGoogleOAuthRoutes(rg *gin.Engine, services *portssvc.ServiceContainer) {
	h := newGoogleOAuthHandler(services.GoogleOAuth, services.Account, services.Token)
	googleRoutes := rg.Group("/api/v1/auth/google")
	{
		googleRoutes.POST("/exchange-code", h.exchangeCodeGoogle)
	}
}

// exchangeCodeGoogle handles the POST request from the frontend containing
// the authorization code from Google. It exchanges the code for Google
// tokens, validates the ID token, resolves the matching account and returns
// an application token pair.
func (h *googleOAuthHandler) exchangeCodeGoogle(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	var req dto.ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewBadRequestError("Invalid request payload: " + err.Error())
		c.JSON(appErr.Code, appErr)
		return
	}

	oauth2Token, err := h.googleOAuthService.ExchangeCodeForToken(ctx, req.Code)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to exchange authorization code with Google", slog.String("error", err.Error()))
		appErr := apperrors.NewGatewayTimeoutError("Failed to communicate with Google OAuth service.")
		if strings.Contains(strings.ToLower(err.Error()), "invalid_grant") || strings.Contains(strings.ToLower(err.Error()), "bad request") {
			appErr = apperrors.NewBadRequestError("Invalid or expired authorization code provided by Google.")
		}
		c.JSON(appErr.Code, appErr)
		return
	}

	idTokenString, ok := oauth2Token.Extra("id_token").(string)
	if !ok || idTokenString == "" {
		logger.ErrorContext(ctx, "ID token not found in Google's token response")
		appErr := apperrors.NewInternalServerError("Failed to retrieve ID token from Google.")
		c.JSON(appErr.Code, appErr)
		return
	}

	payload, err := h.googleOAuthService.ValidateGoogleIDToken(ctx, idTokenString)
	if err != nil {
		logger.ErrorContext(ctx, "Google ID token validation failed", slog.String("error", err.Error()))
		appErr := apperrors.NewUnauthorizedError("Invalid Google ID token.")
		c.JSON(appErr.Code, appErr)
		return
	}

	email, _ := payload.Claims["email"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || !emailVerified {
		logger.WarnContext(ctx, "Google ID token has no verified email", slog.String("google_user_id", payload.Subject))
		appErr := apperrors.NewUnauthorizedError("A verified Google email is required.")
		c.JSON(appErr.Code, appErr)
		return
	}

	account, err := h.accountService.GetAccountByUsername(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, "No account matches Google email", slog.String("email", email))
			appErr := apperrors.NewUnauthorizedError("No account is registered for this Google user.")
			c.JSON(appErr.Code, appErr)
			return
		}
		logger.ErrorContext(ctx, "Failed to resolve account for Google login", slog.String("error", err.Error()))
		appErr := apperrors.NewInternalServerError("Failed to process Google authentication.")
		c.JSON(appErr.Code, appErr)
		return
	}
	if !account.IsActive {
		appErr := apperrors.NewForbiddenError("Account is inactive.")
		c.JSON(appErr.Code, appErr)
		return
	}

	accessToken, accessExpiry, err := h.tokenService.GenerateAccessToken(ctx, account)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to generate application access token", slog.String("error", err.Error()))
		appErr := apperrors.NewInternalServerError("Failed to generate access token.")
		c.JSON(appErr.Code, appErr)
		return
	}
	refreshToken, refreshExpiry, err := h.tokenService.GenerateRefreshToken(ctx, account)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to generate refresh token", slog.String("error", err.Error()))
		appErr := apperrors.NewInternalServerError("Failed to generate refresh token.")
		c.JSON(appErr.Code, appErr)
		return
	}
	if err := h.accountService.UpdateRefreshToken(ctx, account.AccountID, utils.HashRefreshToken(refreshToken), refreshExpiry); err != nil {
		logger.ErrorContext(ctx, "Failed to store refresh token", slog.String("error", err.Error()))
		appErr := apperrors.NewInternalServerError("Failed to store refresh token.")
		c.JSON(appErr.Code, appErr)
		return
	}

	logger.InfoContext(ctx, "Google OAuth login succeeded", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusOK, gin.H{
		"data": dto.ExchangeCodeResponse{
			AccountID:             account.AccountID,
			AccessToken:           accessToken,
			AccessTokenExpiresAt:  accessExpiry,
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: refreshExpiry,
		},
	})
}
