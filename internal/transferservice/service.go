// Package transferservice manages business logic layer of transfers.
package transferservice

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger-core/internal/domain"
	"github.com/smartbank/ledger-core/pkg/clockpkg"
)

// Repo provides data access layer interface needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	Execute(ctx context.Context, arg domain.CreateTransferParams, day time.Time) (domain.TransferTxResult, error)
	ListReceived(ctx context.Context, accountID string) ([]domain.Transfer, error)
}

// Service facilitates transfer service layer logic.
type Service struct {
	repo  Repo
	clock clockpkg.Clock
}

// New returns transfer service struct to manage transfer bussines logic.
func New(tr Repo, clock clockpkg.Clock) *Service {
	return &Service{
		repo:  tr,
		clock: clock,
	}
}

func validRequest(ctx context.Context, arg domain.CreateTransferParams) error {
	l := zerolog.Ctx(ctx)

	if arg.FromAccountID == arg.ToAccountID {
		return domain.ErrSameAccountTransfer
	}

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.ErrInvalidAmount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrNegativeAmount
	}

	return nil
}

// Transfer checks request preconditions and then executes the transfer
// inside a single storage transaction. The business date is resolved once
// here, from the injected clock, and used for both the limit check and the
// usage update. Failures are typed and never retried internally.
func (s *Service) Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error) {
	if err := validRequest(ctx, arg); err != nil {
		return domain.TransferTxResult{}, err
	}

	day := clockpkg.Day(s.clock.Now())

	result, err := s.repo.Execute(ctx, arg, day)
	if err != nil {
		return result, err
	}

	return result, nil
}

// ListReceived returns transfers received by the given account, newest first.
func (s *Service) ListReceived(ctx context.Context, accountID string) ([]domain.Transfer, error) {
	transfers, err := s.repo.ListReceived(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return transfers, nil
}
