// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/smartbank/ledger-core/internal/domain"
	"github.com/smartbank/ledger-core/pkg/dbpkg"
	"github.com/smartbank/ledger-core/pkg/errorspkg"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const listQuery = `
SELECT
	id, name, balance, daily_limit, created_at
FROM accounts
ORDER BY created_at, id
`

// List returns all accounts in insertion order.
func (r *RepoPGS) List(ctx context.Context) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.DailyLimit, &a.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const getByIDQuery = `
SELECT
	id, name, balance, daily_limit, created_at
FROM accounts
WHERE id = $1
`

const getByNameQuery = `
SELECT
	id, name, balance, daily_limit, created_at
FROM accounts
WHERE name = $1
ORDER BY created_at
LIMIT 1
`

// Get returns the account matching the given identifier.
// Resolution order is id first, display name second; an identifier that
// collides with another account's name resolves to the id match.
func (r *RepoPGS) Get(ctx context.Context, identifier string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	err := r.scan(r.db.QueryRowContext(ctx, getByIDQuery, identifier), &a)
	if err == nil {
		return a, nil
	}

	if err != sql.ErrNoRows {
		l.Error().Err(err).Send()
		return a, errorspkg.ErrInternal
	}

	err = r.scan(r.db.QueryRowContext(ctx, getByNameQuery, identifier), &a)
	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const lockQuery = `
SELECT
	id, name, balance, daily_limit, created_at
FROM accounts
WHERE id IN ($1, $2)
ORDER BY id
FOR UPDATE
`

// LockForUpdate places both accounts under exclusive row locks for the
// duration of the enclosing transaction and returns their current values.
// A single statement with canonical (id) ordering acquires both locks, so
// opposing transfers on the same pair cannot circular-wait.
func (r *RepoPGS) LockForUpdate(ctx context.Context, id1, id2 string) (map[string]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, lockQuery, id1, id2)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, err
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, 2)

	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.DailyLimit, &a.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, err
		}

		accounts[a.ID] = a
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, err
	}

	if len(accounts) < 2 {
		return nil, domain.ErrAccountNotFound
	}

	return accounts, nil
}

const addBalanceQuery = `
UPDATE accounts
SET balance = balance + $1
WHERE id = $2
RETURNING id, name, balance, daily_limit, created_at
`

// AddBalance changes the account's balance and returns the changed account.
// Arithmetic happens on the NUMERIC column, never in binary floats.
func (r *RepoPGS) AddBalance(ctx context.Context, amount string, id string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	err := r.scan(r.db.QueryRowContext(ctx, addBalanceQuery, amount, id), &a)
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		return a, err
	}

	return a, nil
}

func (r *RepoPGS) scan(row *sql.Row, a *domain.Account) error {
	return row.Scan(
		&a.ID,
		&a.Name,
		&a.Balance,
		&a.DailyLimit,
		&a.CreatedAt,
	)
}
