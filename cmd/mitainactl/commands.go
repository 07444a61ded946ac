package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/anonto42/mitaina/backend/internal/repositories"
	"github.com/anonto42/mitaina/backend/internal/services"
	"github.com/anonto42/mitaina/backend/pkg/config"
	"github.com/anonto42/mitaina/backend/pkg/logging"
)

var (
	databaseURL string
	dryRun      bool

	logger      *slog.Logger
	maintenance *services.Maintenance
	sqlDB       *gorm.DB

	rootCmd = &cobra.Command{
		Use:   "mitainactl",
		Short: "Maintenance jobs for the mitaina backend",
		Long: `mitainactl connects to the database named by DATABASE_URL (or --database)
and runs one-off maintenance jobs: counter reconciliation, suffix cleanup and
development seeding.`,
		SilenceUsage:       true,
		PersistentPreRunE:  connect,
		PersistentPostRunE: disconnect,
	}
	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute post reaction counters from the reaction rows",
		Args:  cobra.NoArgs,
		RunE:  runReconcile,
	}
	stripSuffixCmd = &cobra.Command{
		Use:   "strip-suffix",
		Short: "Remove the trailing みたいな from stored post texts",
		Args:  cobra.NoArgs,
		RunE:  runStripSuffix,
	}
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the development user and sample posts",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database", "", "Database URL, overrides DATABASE_URL")
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report drift without writing")
	stripSuffixCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Count affected posts without writing")

	rootCmd.AddCommand(reconcileCmd, stripSuffixCmd, seedCmd)
}

func connect(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger = logging.New(cfg.Env)
	if databaseURL == "" {
		databaseURL = cfg.DatabaseURL
	}

	sqlDB, err = config.OpenSQL(databaseURL)
	if err != nil {
		return err
	}
	if err := repositories.AutoMigrate(sqlDB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	maintenance = services.NewMaintenance(repositories.NewGormStore(sqlDB), logger)
	return nil
}

func disconnect(*cobra.Command, []string) error {
	if sqlDB == nil {
		return nil
	}
	db, err := sqlDB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	report, err := maintenance.ReconcileCounters(cmd.Context(), dryRun)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "checked=%d drifted=%d dry_run=%t\n", report.Checked, report.Drifted, dryRun)
	return nil
}

func runStripSuffix(cmd *cobra.Command, _ []string) error {
	changed, err := maintenance.StripSuffixes(cmd.Context(), dryRun)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "done. changed=%d, dry_run=%t\n", changed, dryRun)
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	report, err := maintenance.Seed(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if report.UserCreated {
		fmt.Fprintf(out, "created user %s (password %s)\n", services.SeedUsername, services.SeedPassword)
	} else {
		fmt.Fprintf(out, "user %s already exists\n", services.SeedUsername)
	}
	fmt.Fprintf(out, "created %d posts, %d posts total\n", report.PostsCreated, report.TotalPosts)
	return nil
}
