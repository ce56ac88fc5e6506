// Package usagerepo manages repository layer of daily usage records.
package usagerepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartbank/ledger-core/internal/domain"
	"github.com/smartbank/ledger-core/pkg/dbpkg"
)

// RepoPGS facilitates daily usage repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns daily usage RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const getQuery = `
SELECT total_transferred
FROM account_daily_usage
WHERE account_id = $1 AND date = $2
`

// Get returns the amount the account has sent out on the given date,
// "0" when no usage row exists yet.
func (r *RepoPGS) Get(ctx context.Context, accountID string, date time.Time) (string, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, accountID, date)

	var total string

	err := row.Scan(&total)
	if err != nil {
		if err == sql.ErrNoRows {
			return "0", nil
		}

		l.Error().Err(err).Send()

		return "", err
	}

	return total, nil
}

const accumulateQuery = `
INSERT INTO
    account_daily_usage (id, account_id, date, total_transferred)
VALUES
    ($1, $2, $3, $4)
ON CONFLICT (account_id, date) DO UPDATE
SET total_transferred = account_daily_usage.total_transferred + EXCLUDED.total_transferred
RETURNING id, account_id, date, total_transferred
`

// Accumulate adds delta to the account's usage for the given date, creating
// the row on first use. The arithmetic runs on the NUMERIC column inside the
// caller's transaction; this is never a separately committed step.
func (r *RepoPGS) Accumulate(ctx context.Context, accountID string, date time.Time, delta string) (domain.DailyUsage, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, accumulateQuery, uuid.NewString(), accountID, date, delta)

	var u domain.DailyUsage

	err := row.Scan(
		&u.ID,
		&u.AccountID,
		&u.Date,
		&u.TotalTransferred,
	)

	if err != nil {
		l.Error().Err(err).Send()
		return u, err
	}

	return u, nil
}
