package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/balancete/internal/chart"
	"github.com/cleared-dev/balancete/internal/config"
	"github.com/cleared-dev/balancete/internal/store"
)

// ChartFile is where init writes the chart of accounts, relative to the project.
var ChartFile = filepath.Join("accounts", "chart-of-accounts.csv")

func newInitCommand() *cobra.Command {
	var name string
	var entityType string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new balancete project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, name, entityType)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "servicos", "entity type")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir, name, entityType string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default(name, entityType)

	// Create directory structure.
	dirs := []string{
		"accounts",
		"import",
		filepath.Dir(cfg.Database.Path),
		filepath.Dir(cfg.Audit.Path),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Create the database and load the default chart into it.
	db, err := store.New(store.Config{Path: filepath.Join(dir, cfg.Database.Path)})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	repo := store.NewRepository(db, zerolog.Nop())
	accounts, err := repo.InsertAccounts(ctx, chart.DefaultChart(entityType))
	if err != nil {
		return fmt.Errorf("storing chart of accounts: %w", err)
	}

	// Write chart of accounts with the IDs the store assigned.
	if err := chart.NewService(accounts).Save(filepath.Join(dir, ChartFile)); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	// Write balancete.yaml.
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := "data/\nlogs/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Fprintf(out, "Initialized balancete project at %s (%d accounts)\n", dir, len(accounts))
	return nil
}
