//go:build integration

package transferrepo_test

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/smartbank/ledger-core/internal/domain"
	"github.com/smartbank/ledger-core/internal/integrationtest"
	"github.com/smartbank/ledger-core/internal/integrationtest/helpers"
	"github.com/smartbank/ledger-core/internal/middleware"
	"github.com/smartbank/ledger-core/internal/transferrepo"
	"github.com/smartbank/ledger-core/pkg/clockpkg"
	"github.com/smartbank/ledger-core/pkg/configpkg"
)

var (
	dbDriver string
	dbSource string
	ctx      context.Context
	testDay  = time.Date(2023, time.March, 14, 0, 0, 0, 0, time.UTC)
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	logger := middleware.CreateLogger(config)
	ctx = logger.WithContext(context.Background())

	os.Exit(m.Run())
}

func requireAmount(t *testing.T, want, got string) {
	t.Helper()

	wantDec := decimal.RequireFromString(want)
	gotDec := decimal.RequireFromString(got)

	if !wantDec.Equal(gotDec) {
		t.Errorf("amount mismatch: want %s, got %s", wantDec, gotDec)
	}
}

type snapshot struct {
	balances  map[string]string
	usages    int
	transfers int
	audits    int
}

func takeSnapshot(t *testing.T, db *sql.DB) snapshot {
	t.Helper()

	s := snapshot{balances: map[string]string{}}

	rows, err := db.Query(`SELECT id, balance FROM accounts`)
	require.NoError(t, err)
	defer rows.Close()

	for rows.Next() {
		var id, balance string
		require.NoError(t, rows.Scan(&id, &balance))
		s.balances[id] = balance
	}
	require.NoError(t, rows.Err())

	require.NoError(t, db.QueryRow(`SELECT count(*) FROM account_daily_usage`).Scan(&s.usages))
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM transfers`).Scan(&s.transfers))
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM audit_logs`).Scan(&s.audits))

	return s
}

func TestExecute(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := transferrepo.NewRepoPGS(db, 0)

	testCases := []struct {
		name    string
		seed    func(t *testing.T) domain.CreateTransferParams
		wantErr error
	}{
		{
			name: "OK",
			seed: func(t *testing.T) domain.CreateTransferParams {
				sender := helpers.SeedAccount(t, db, "1000", "500")
				receiver := helpers.SeedAccount(t, db, "1000", "500")

				return domain.CreateTransferParams{
					FromAccountID: sender.ID,
					ToAccountID:   receiver.ID,
					Amount:        "100",
					Currency:      "INR",
				}
			},
		},
		{
			name: "ErrAccountNotFound",
			seed: func(t *testing.T) domain.CreateTransferParams {
				sender := helpers.SeedAccount(t, db, "1000", "500")

				return domain.CreateTransferParams{
					FromAccountID: sender.ID,
					ToAccountID:   "no-such-account",
					Amount:        "100",
					Currency:      "INR",
				}
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name: "ErrInsufficientBalance",
			seed: func(t *testing.T) domain.CreateTransferParams {
				sender := helpers.SeedAccount(t, db, "50", "500")
				receiver := helpers.SeedAccount(t, db, "1000", "500")

				return domain.CreateTransferParams{
					FromAccountID: sender.ID,
					ToAccountID:   receiver.ID,
					Amount:        "100",
					Currency:      "INR",
				}
			},
			wantErr: domain.ErrInsufficientBalance,
		},
		{
			name: "ErrDailyLimitExceeded",
			seed: func(t *testing.T) domain.CreateTransferParams {
				sender := helpers.SeedAccount(t, db, "1000", "50")
				receiver := helpers.SeedAccount(t, db, "1000", "500")

				return domain.CreateTransferParams{
					FromAccountID: sender.ID,
					ToAccountID:   receiver.ID,
					Amount:        "50.01",
					Currency:      "INR",
				}
			},
			wantErr: domain.ErrDailyLimitExceeded,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			integrationtest.Flush(t, db)

			arg := tc.seed(t)
			before := takeSnapshot(t, db)

			result, err := repo.Execute(ctx, arg, testDay)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				// Failed transfers leave no trace anywhere.
				require.Equal(t, before, takeSnapshot(t, db))

				return
			}

			require.NoError(t, err)

			requireAmount(t, "900", result.FromAccount.Balance)
			requireAmount(t, "1100", result.ToAccount.Balance)
			requireAmount(t, "100", result.Usage.TotalTransferred)

			require.Equal(t, arg.FromAccountID, result.Transfer.FromAccountID)
			require.Equal(t, arg.ToAccountID, result.Transfer.ToAccountID)
			require.Equal(t, arg.Currency, result.Transfer.Currency)
			require.Equal(t, domain.StatusCompleted, result.Transfer.Status)
			require.NotEmpty(t, result.Transfer.ID)
			require.NotZero(t, result.Transfer.CreatedAt)

			after := takeSnapshot(t, db)
			require.Equal(t, before.transfers+1, after.transfers)
			require.Equal(t, before.audits+1, after.audits)
			require.Equal(t, before.usages+1, after.usages)
		})
	}
}

// Conservation: the total balance across all accounts never changes over any
// sequence of successful transfers.
func TestExecuteConservation(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	integrationtest.Flush(t, db)

	repo := transferrepo.NewRepoPGS(db, 0)

	a := helpers.SeedAccount(t, db, "1000", "1000")
	b := helpers.SeedAccount(t, db, "1000", "1000")
	c := helpers.SeedAccount(t, db, "1000", "1000")

	transfers := []domain.CreateTransferParams{
		{FromAccountID: a.ID, ToAccountID: b.ID, Amount: "100.25", Currency: "INR"},
		{FromAccountID: b.ID, ToAccountID: c.ID, Amount: "320.10", Currency: "INR"},
		{FromAccountID: c.ID, ToAccountID: a.ID, Amount: "7.77", Currency: "INR"},
	}

	for _, arg := range transfers {
		_, err := repo.Execute(ctx, arg, testDay)
		require.NoError(t, err)
	}

	var total string
	require.NoError(t, db.QueryRow(`SELECT SUM(balance) FROM accounts`).Scan(&total))
	requireAmount(t, "3000", total)
}

// The daily limit boundary is inclusive: usage + amount == limit passes,
// exceeding it by any positive epsilon fails.
func TestExecuteLimitBoundary(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	integrationtest.Flush(t, db)

	repo := transferrepo.NewRepoPGS(db, 0)

	sender := helpers.SeedAccount(t, db, "1000", "50")
	receiver := helpers.SeedAccount(t, db, "1000", "50")

	arg := domain.CreateTransferParams{
		FromAccountID: sender.ID,
		ToAccountID:   receiver.ID,
		Amount:        "50",
		Currency:      "INR",
	}

	result, err := repo.Execute(ctx, arg, testDay)
	require.NoError(t, err)
	requireAmount(t, "50", result.Usage.TotalTransferred)

	arg.Amount = "0.01"
	_, err = repo.Execute(ctx, arg, testDay)
	require.ErrorIs(t, err, domain.ErrDailyLimitExceeded)
}

// Scenario from the product rules: balance 100, limit 50. Sending 30 works
// and leaves balance 70 with usage 30; sending another 25 the same day fails.
func TestExecuteDailyLimitScenario(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	integrationtest.Flush(t, db)

	repo := transferrepo.NewRepoPGS(db, 0)

	sender := helpers.SeedAccount(t, db, "100", "50")
	receiver := helpers.SeedAccount(t, db, "1000", "50")

	arg := domain.CreateTransferParams{
		FromAccountID: sender.ID,
		ToAccountID:   receiver.ID,
		Amount:        "30",
		Currency:      "INR",
	}

	result, err := repo.Execute(ctx, arg, testDay)
	require.NoError(t, err)
	requireAmount(t, "70", result.FromAccount.Balance)
	requireAmount(t, "30", result.Usage.TotalTransferred)

	arg.Amount = "25"
	_, err = repo.Execute(ctx, arg, testDay)
	require.ErrorIs(t, err, domain.ErrDailyLimitExceeded)

	// The next calendar day starts from zero usage.
	nextDay := testDay.AddDate(0, 0, 1)
	result, err = repo.Execute(ctx, arg, nextDay)
	require.NoError(t, err)
	requireAmount(t, "25", result.Usage.TotalTransferred)
}

// Stored daily usage must equal the sum of completed transfer amounts for
// the same sender and date, not just follow from the update rule.
func TestExecuteUsageMatchesTransfers(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	integrationtest.Flush(t, db)

	repo := transferrepo.NewRepoPGS(db, 0)

	sender := helpers.SeedAccount(t, db, "1000", "1000")
	receiver := helpers.SeedAccount(t, db, "1000", "1000")

	// The business date must match the database clock stamping
	// transfers.created_at so SumSentOn's date window lines up.
	today := clockpkg.Day(time.Now())

	amounts := []string{"10.50", "20", "0.25", "99.99"}
	want := decimal.Zero

	var lastUsage string

	for _, amount := range amounts {
		result, err := repo.Execute(ctx, domain.CreateTransferParams{
			FromAccountID: sender.ID,
			ToAccountID:   receiver.ID,
			Amount:        amount,
			Currency:      "INR",
		}, today)
		require.NoError(t, err)

		want = want.Add(decimal.RequireFromString(amount))
		lastUsage = result.Usage.TotalTransferred
	}

	requireAmount(t, want.String(), lastUsage)

	summed, err := repo.SumSentOn(ctx, sender.ID, today)
	require.NoError(t, err)
	requireAmount(t, want.String(), summed)
}

// Two concurrent transfers that individually fit but jointly exceed the
// sender's balance serialize on the account locks: exactly one commits.
func TestExecuteConcurrentTransfers(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	integrationtest.Flush(t, db)

	repo := transferrepo.NewRepoPGS(db, 0)

	sender := helpers.SeedAccount(t, db, "100", "1000")
	receiver := helpers.SeedAccount(t, db, "1000", "1000")

	arg := domain.CreateTransferParams{
		FromAccountID: sender.ID,
		ToAccountID:   receiver.ID,
		Amount:        "60",
		Currency:      "INR",
	}

	n := 2
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		go func() {
			_, err := repo.Execute(ctx, arg, testDay)
			errs <- err
		}()
	}

	var failures []error

	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			failures = append(failures, err)
		}
	}

	require.Len(t, failures, 1)
	require.ErrorIs(t, failures[0], domain.ErrInsufficientBalance)

	var balance string
	require.NoError(t, db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, sender.ID).Scan(&balance))
	requireAmount(t, "40", balance)

	var usage string
	require.NoError(t, db.QueryRow(
		`SELECT total_transferred FROM account_daily_usage WHERE account_id = $1 AND date = $2`,
		sender.ID, testDay).Scan(&usage))
	requireAmount(t, "60", usage)
}

func TestListReceived(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	integrationtest.Flush(t, db)

	repo := transferrepo.NewRepoPGS(db, 0)

	a := helpers.SeedAccount(t, db, "1000", "1000")
	b := helpers.SeedAccount(t, db, "1000", "1000")
	c := helpers.SeedAccount(t, db, "1000", "1000")

	first, err := repo.Execute(ctx, domain.CreateTransferParams{
		FromAccountID: a.ID, ToAccountID: c.ID, Amount: "10", Currency: "INR",
	}, testDay)
	require.NoError(t, err)

	second, err := repo.Execute(ctx, domain.CreateTransferParams{
		FromAccountID: b.ID, ToAccountID: c.ID, Amount: "20", Currency: "INR",
	}, testDay)
	require.NoError(t, err)

	// Sent by c, must not show up among received.
	_, err = repo.Execute(ctx, domain.CreateTransferParams{
		FromAccountID: c.ID, ToAccountID: a.ID, Amount: "5", Currency: "INR",
	}, testDay)
	require.NoError(t, err)

	transfers, err := repo.ListReceived(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, transfers, 2)

	// Newest first.
	require.Equal(t, second.Transfer.ID, transfers[0].ID)
	require.Equal(t, first.Transfer.ID, transfers[1].ID)
	require.True(t, !transfers[0].CreatedAt.Before(transfers[1].CreatedAt))
}

func TestListReceivedEmpty(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	integrationtest.Flush(t, db)

	repo := transferrepo.NewRepoPGS(db, 0)

	transfers, err := repo.ListReceived(ctx, "no-such-account")
	require.NoError(t, err)
	require.Empty(t, transfers)
}

func TestExecuteInternalError(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	integrationtest.Flush(t, db)

	repo := transferrepo.NewRepoPGS(db, 0)

	sender := helpers.SeedAccount(t, db, "1000", "500")
	receiver := helpers.SeedAccount(t, db, "1000", "500")

	// The engine trusts the service layer for syntactic validation; garbage
	// reaching the repo must still roll back cleanly.
	before := takeSnapshot(t, db)

	_, err := repo.Execute(ctx, domain.CreateTransferParams{
		FromAccountID: sender.ID,
		ToAccountID:   receiver.ID,
		Amount:        "not-a-number",
		Currency:      "INR",
	}, testDay)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	require.Equal(t, before, takeSnapshot(t, db))
}
