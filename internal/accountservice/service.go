// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/smartbank/ledger-core/internal/domain"
)

// Repo provides data access layer interface needed by account service layer.
type Repo interface {
	List(ctx context.Context) ([]domain.Account, error)
	Get(ctx context.Context, identifier string) (domain.Account, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// Get returns the account for the given id or display name.
func (s *Service) Get(ctx context.Context, identifier string) (domain.Account, error) {
	account, err := s.repo.Get(ctx, identifier)
	if err != nil {
		return account, err
	}

	return account, nil
}
