// Command admin manages tenant data: seeding organizations and goals,
// rotating Fiserv credentials and inspecting the webhook ledger.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kevin07696/etaca-service/internal/adapters/database"
	"github.com/kevin07696/etaca-service/internal/adapters/postgres"
	"github.com/kevin07696/etaca-service/internal/config"
	"github.com/kevin07696/etaca-service/pkg/security"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

// adminEnv is the shared state every subcommand works against
type adminEnv struct {
	db            *database.PostgreSQLAdapter
	tx            *postgres.DBExecutor
	organizations *postgres.OrganizationRepository
	goals         *postgres.GoalRepository
	events        *postgres.WebhookEventRepository
	logger        *zap.Logger
}

func (e *adminEnv) Close() {
	e.db.Close()
	_ = e.logger.Sync()
}

func main() {
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:          "admin",
		Short:        "e-Taca donation service administration",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall command timeout")

	rootCmd.AddCommand(seedCmd(&timeout))
	rootCmd.AddCommand(rotateCredentialsCmd(&timeout))
	rootCmd.AddCommand(eventsCmd(&timeout))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openEnv connects to the database configured through DATABASE_URL or DB_*
func openEnv(ctx context.Context) (*adminEnv, error) {
	logger, err := security.NewLogger(os.Getenv("ENVIRONMENT"), "warn")
	if err != nil {
		return nil, err
	}

	dbCfg := config.LoadDatabaseFromEnv()
	pgCfg := database.DefaultPostgreSQLConfig(dbCfg.ConnectionString())
	pgCfg.MaxConns = 2
	pgCfg.MinConns = 1

	db, err := database.NewPostgreSQLAdapter(ctx, pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	executor := postgres.NewDBExecutor(db.Pool())
	return &adminEnv{
		db:            db,
		tx:            executor,
		organizations: postgres.NewOrganizationRepository(executor),
		goals:         postgres.NewGoalRepository(executor),
		events:        postgres.NewWebhookEventRepository(executor),
		logger:        logger,
	}, nil
}
