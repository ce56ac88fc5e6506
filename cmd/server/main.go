package main

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smartbank/ledger-core/internal/accountdelivery"
	"github.com/smartbank/ledger-core/internal/accountrepo"
	"github.com/smartbank/ledger-core/internal/accountservice"
	"github.com/smartbank/ledger-core/internal/middleware"
	"github.com/smartbank/ledger-core/internal/transferdelivery"
	"github.com/smartbank/ledger-core/internal/transferrepo"
	"github.com/smartbank/ledger-core/internal/transferservice"
	"github.com/smartbank/ledger-core/pkg/clockpkg"
	"github.com/smartbank/ledger-core/pkg/configpkg"
	"github.com/smartbank/ledger-core/pkg/dbpkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	if err := runMigrations(config); err != nil {
		logger.Fatal().Err(err).Msg("cannot run db migrations")
	}

	conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	server := createServer(conn, logger, config)

	if err := server.Run(config.ServerAddress); err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}

func runMigrations(config configpkg.Config) error {
	m, err := migrate.New(config.MigrationURL, config.DBSource)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func createServer(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) *gin.Engine {
	accountRepo := accountrepo.NewRepoPGS(conn)
	transferRepo := transferrepo.NewRepoPGS(conn, config.LockTimeout)

	accountService := accountservice.New(accountRepo)
	transferService := transferservice.New(transferRepo, clockpkg.Real{})

	accountHandler := accountdelivery.NewHandler(accountService)
	transferHandler := transferdelivery.NewHandler(transferService)

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()

	server.Use(middleware.RequestLogger(logger))
	server.Use(gin.Recovery())

	server.GET("/accounts", accountHandler.List)
	server.GET("/accounts/:id", accountHandler.Get)
	server.GET("/accounts/:id/transfers/received", transferHandler.ListReceived)

	server.POST("/transfers", transferHandler.Create)

	return server
}
