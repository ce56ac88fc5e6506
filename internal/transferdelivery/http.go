// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/smartbank/ledger-core/internal/domain"
	"github.com/smartbank/ledger-core/pkg/errorspkg"
	"github.com/smartbank/ledger-core/pkg/web"
)

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error)
	ListReceived(ctx context.Context, accountID string) ([]domain.Transfer, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type request struct {
	FromAccountID string `json:"from_account_id" binding:"required"`
	ToAccountID   string `json:"to_account_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Currency      string `json:"currency" binding:"omitempty,iso4217"`
}

type data struct {
	Transfer domain.TransferTxResult `json:"transfer"`
}

// Create handles http request to create a transfer between two accounts.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	if req.Currency == "" {
		req.Currency = "INR"
	}

	arg := domain.CreateTransferParams{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Currency:      req.Currency,
	}

	result, err := h.service.Transfer(ctx, arg)
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case
			domain.ErrInvalidAmount,
			domain.ErrNegativeAmount,
			domain.ErrSameAccountTransfer:
			gctx.JSON(http.StatusBadRequest, web.Error(err))

			return
		case domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))

			return
		case domain.ErrInsufficientBalance:
			gctx.JSON(http.StatusPaymentRequired, web.Error(err))

			return
		case domain.ErrDailyLimitExceeded:
			gctx.JSON(http.StatusTooManyRequests, web.Error(err))

			return
		case domain.ErrTransferContention:
			gctx.JSON(http.StatusServiceUnavailable, web.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{result}})
}

type listReceivedRequest struct {
	ID string `uri:"id" binding:"required"`
}

type listReceivedData struct {
	Transfers []domain.Transfer `json:"transfers"`
}

// ListReceived handles http request to list transfers received by an account.
func (h *Handler) ListReceived(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listReceivedRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	transfers, err := h.service.ListReceived(ctx, req.ID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: listReceivedData{transfers}})
}
