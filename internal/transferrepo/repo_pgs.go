// Package transferrepo manages repository layer of transfers, including the
// single-transaction transfer engine.
package transferrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/smartbank/ledger-core/internal/accountrepo"
	"github.com/smartbank/ledger-core/internal/auditrepo"
	"github.com/smartbank/ledger-core/internal/domain"
	"github.com/smartbank/ledger-core/internal/usagerepo"
	"github.com/smartbank/ledger-core/pkg/dbpkg"
	"github.com/smartbank/ledger-core/pkg/errorspkg"
)

// DefaultLockWait bounds how long a transfer waits for account row locks
// before failing with domain.ErrTransferContention.
const DefaultLockWait = 3 * time.Second

// RepoPGS facilitates transfer repository layer logic.
type RepoPGS struct {
	db       dbpkg.SQLInterface
	conn     *sql.DB
	lockWait time.Duration
}

// NewTxRepoPGS returns transfer RepoPGS bound to an existing transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db:       db,
		lockWait: DefaultLockWait,
	}
}

// NewRepoPGS returns transfer RepoPGS with a connection to start transactions.
func NewRepoPGS(db *sql.DB, lockWait time.Duration) *RepoPGS {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}

	return &RepoPGS{
		db:       db,
		conn:     db,
		lockWait: lockWait,
	}
}

const createQuery = `
INSERT INTO
    transfers (id, from_account_id, to_account_id, amount, currency, status)
VALUES
    ($1, $2, $3, $4, $5, $6)
RETURNING id, from_account_id, to_account_id, amount, currency, status, created_at
`

// Create appends the COMPLETED transfer row and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateTransferParams) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		uuid.NewString(),
		arg.FromAccountID,
		arg.ToAccountID,
		arg.Amount,
		arg.Currency,
		domain.StatusCompleted,
	)

	var t domain.Transfer

	err := row.Scan(
		&t.ID,
		&t.FromAccountID,
		&t.ToAccountID,
		&t.Amount,
		&t.Currency,
		&t.Status,
		&t.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transfers_from_account_id_fkey", "transfers_to_account_id_fkey":
				return t, domain.ErrAccountNotFound
			case "transfers_amount_check":
				return t, domain.ErrInvalidAmount
			}
		}

		return t, err
	}

	return t, nil
}

const listReceivedQuery = `
SELECT
	id, from_account_id, to_account_id, amount, currency, status, created_at
FROM transfers
WHERE to_account_id = $1
ORDER BY created_at DESC
`

// ListReceived returns transfers received by the account, newest first.
// Reads run outside any transfer transaction and take no locks.
func (r *RepoPGS) ListReceived(ctx context.Context, accountID string) ([]domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listReceivedQuery, accountID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transfer{}

	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(
			&t.ID,
			&t.FromAccountID,
			&t.ToAccountID,
			&t.Amount,
			&t.Currency,
			&t.Status,
			&t.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const sumSentOnQuery = `
SELECT COALESCE(SUM(amount), 0)
FROM transfers
WHERE from_account_id = $1
  AND status = $2
  AND created_at >= $3
  AND created_at < $3 + INTERVAL '1 day'
`

// SumSentOn returns the sum of completed transfer amounts sent by the account
// on the given date. For any account and day it must equal the stored daily
// usage; tests reconcile the two.
func (r *RepoPGS) SumSentOn(ctx context.Context, accountID string, date time.Time) (string, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, sumSentOnQuery, accountID, domain.StatusCompleted, date)

	var total string

	if err := row.Scan(&total); err != nil {
		l.Error().Err(err).Send()
		return "", errorspkg.ErrInternal
	}

	return total, nil
}

// Execute moves funds between two accounts within a single database
// transaction: lock both accounts, validate balance and daily limit against
// the locked values, apply the debit and credit, accumulate the sender's
// usage for day, append the transfer row and the audit entry, commit.
// Any failure rolls the whole invocation back and no row remains.
func (r *RepoPGS) Execute(ctx context.Context, arg domain.CreateTransferParams, day time.Time) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferTxResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	// Bound the lock wait so contention surfaces as a retryable error
	// instead of blocking indefinitely.
	lockMillis := r.lockWait.Milliseconds()
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockMillis)); err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	accountRepo := accountrepo.NewRepoPGS(tx)
	usageRepo := usagerepo.NewRepoPGS(tx)
	auditRepo := auditrepo.NewRepoPGS(tx)

	accounts, err := accountRepo.LockForUpdate(ctx, arg.FromAccountID, arg.ToAccountID)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			return result, err
		}

		l.Error().Err(err).Send()

		return result, classify(err)
	}

	sender := accounts[arg.FromAccountID]

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		l.Error().Err(err).Send()
		return result, domain.ErrInvalidAmount
	}

	// Balances read here are transaction-fresh: both rows are locked, so no
	// concurrent transfer can be mutating them.
	balance, err := decimal.NewFromString(sender.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	if balance.LessThan(amount) {
		return result, domain.ErrInsufficientBalance
	}

	usedToday, err := usageRepo.Get(ctx, arg.FromAccountID, day)
	if err != nil {
		return result, classify(err)
	}

	used, err := decimal.NewFromString(usedToday)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	limit, err := decimal.NewFromString(sender.DailyLimit)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	if used.Add(amount).GreaterThan(limit) {
		return result, domain.ErrDailyLimitExceeded
	}

	result.FromAccount, err = accountRepo.AddBalance(ctx, "-"+arg.Amount, arg.FromAccountID)
	if err != nil {
		return result, classify(err)
	}

	result.ToAccount, err = accountRepo.AddBalance(ctx, arg.Amount, arg.ToAccountID)
	if err != nil {
		return result, classify(err)
	}

	result.Usage, err = usageRepo.Accumulate(ctx, arg.FromAccountID, day, arg.Amount)
	if err != nil {
		return result, classify(err)
	}

	txRepo := NewTxRepoPGS(tx)

	result.Transfer, err = txRepo.Create(ctx, arg)
	if err != nil {
		if err == domain.ErrAccountNotFound || err == domain.ErrInvalidAmount {
			return result, err
		}

		return result, classify(err)
	}

	details := fmt.Sprintf("Transfer %s %s from %s to %s",
		arg.Amount, arg.Currency, arg.FromAccountID, arg.ToAccountID)

	// Not best-effort: a lost audit entry aborts the transfer too.
	if _, err = auditRepo.Append(ctx, domain.ActionMoneyTransfer, details); err != nil {
		return result, classify(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.TransferTxResult{}, classify(err)
	}

	return result, nil
}

// Postgres SQLSTATE codes that mean the transfer lost a race rather than
// failed a rule: lock_not_available, serialization_failure, deadlock_detected.
const (
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func classify(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch string(pqErr.Code) {
		case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected:
			return domain.ErrTransferContention
		}
	}

	return errorspkg.ErrInternal
}
