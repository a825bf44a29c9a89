package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campeconomy/camp_bank_app/internal/apperrors"
	"github.com/campeconomy/camp_bank_app/internal/core/domain"
	portssvc "github.com/campeconomy/camp_bank_app/internal/core/ports/services"
	"github.com/campeconomy/camp_bank_app/internal/core/services"
	"github.com/campeconomy/camp_bank_app/internal/dto"
	"github.com/campeconomy/camp_bank_app/internal/middleware"
)

// transactionHandler handles HTTP requests related to ledger transactions.
type transactionHandler struct {
	txnService portssvc.TransactionSvcFacade
}

func newTransactionHandler(ts portssvc.TransactionSvcFacade) *transactionHandler {
	return &transactionHandler{txnService: ts}
}

// registerTransactionRoutes registers all transaction-related routes.
func registerTransactionRoutes(rg *gin.RouterGroup, txnService portssvc.TransactionSvcFacade) {
	h := newTransactionHandler(txnService)

	txns := rg.Group("/transactions")
	{
		txns.POST("", h.createTransaction)
		txns.GET("", h.listTransactions)
		txns.GET("/:id", h.getTransaction)
		txns.POST("/:id/process", h.processTransaction)
		txns.POST("/:id/decline", h.declineTransaction)
		txns.POST("/:id/substitute", h.substituteTransaction)
	}
}

// lifecycleStatus maps lifecycle errors to HTTP statuses shared by the
// process, decline and substitute endpoints.
func lifecycleStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "Transaction not found"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "Transaction was modified concurrently, retry"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrAccountMissing):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "Failed to update transaction"
	}
}

func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	creatorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.txnService.CreateTransaction(c.Request.Context(), req, creatorID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownTransactionType),
			errors.Is(err, services.ErrNonPositiveAmount),
			errors.Is(err, domain.ErrNoRecipients):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, domain.ErrAccountMissing),
			errors.Is(err, services.ErrUnknownReference),
			errors.Is(err, services.ErrSupersedesMismatch):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to create transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create transaction"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	txn, err := h.txnService.GetTransactionByID(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Transaction not found"})
		} else {
			logger.Error("Failed to get transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.txnService.ListTransactions(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to list transactions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// lifecycleAction runs one state transition endpoint with shared plumbing.
func (h *transactionHandler) lifecycleAction(c *gin.Context, action func(ctx *gin.Context, transactionID, requesterID string) (*domain.Transaction, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	txn, err := action(c, transactionID, requesterID)
	if err != nil {
		status, msg := lifecycleStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error("Transaction lifecycle action failed", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
		}
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

func (h *transactionHandler) processTransaction(c *gin.Context) {
	h.lifecycleAction(c, func(ctx *gin.Context, transactionID, requesterID string) (*domain.Transaction, error) {
		return h.txnService.ProcessTransaction(ctx.Request.Context(), transactionID, requesterID)
	})
}

func (h *transactionHandler) declineTransaction(c *gin.Context) {
	h.lifecycleAction(c, func(ctx *gin.Context, transactionID, requesterID string) (*domain.Transaction, error) {
		return h.txnService.DeclineTransaction(ctx.Request.Context(), transactionID, requesterID)
	})
}

func (h *transactionHandler) substituteTransaction(c *gin.Context) {
	h.lifecycleAction(c, func(ctx *gin.Context, transactionID, requesterID string) (*domain.Transaction, error) {
		return h.txnService.SubstituteTransaction(ctx.Request.Context(), transactionID, requesterID)
	})
}
