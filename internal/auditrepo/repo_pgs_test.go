//go:build integration

package auditrepo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartbank/ledger-core/internal/auditrepo"
	"github.com/smartbank/ledger-core/internal/domain"
	"github.com/smartbank/ledger-core/pkg/configpkg"
	"github.com/smartbank/ledger-core/pkg/dbpkg"
)

var (
	dbDriver string
	dbSource string
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	os.Exit(m.Run())
}

func TestAppend(t *testing.T) {
	tx := dbpkg.SetupTX(t, dbDriver, dbSource)
	repo := auditrepo.NewRepoPGS(tx)

	details := "Transfer 100 INR from acc-1 to acc-2"

	entry, err := repo.Append(context.Background(), domain.ActionMoneyTransfer, details)
	require.NoError(t, err)

	require.NotEmpty(t, entry.ID)
	require.Equal(t, domain.ActionMoneyTransfer, entry.Action)
	require.Equal(t, details, entry.Details)
	require.NotZero(t, entry.CreatedAt)

	second, err := repo.Append(context.Background(), domain.ActionMoneyTransfer, details)
	require.NoError(t, err)
	require.NotEqual(t, entry.ID, second.ID)
}
