package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/balancete/internal/buildinfo"
	"github.com/cleared-dev/balancete/internal/config"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "balancete",
		Short:   "Hierarchical ledger balances, income statements and account ledgers",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "path to the project configuration")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(opts),
		newPostCommand(opts),
		newBalancesCommand(opts),
		newDRECommand(opts),
		newLedgerCommand(opts),
		newReclassifyCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}
