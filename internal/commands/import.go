package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/balancete/internal/chart"
	"github.com/cleared-dev/balancete/internal/importer"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Load accounts or journal entries from CSV",
	}
	importCmd.AddCommand(newImportAccountsCommand(opts), newImportJournalCommand(opts))
	return importCmd
}

func newImportAccountsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts <file>",
		Short: "Add the accounts of a chart-of-accounts CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportAccounts(cmd, opts, args[0])
		},
	}
}

func runImportAccounts(cmd *cobra.Command, opts *rootOptions, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	accounts, err := chart.ReadAccounts(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	p, err := openProject(cmd, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	stored, err := p.repo.InsertAccounts(cmd.Context(), accounts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", len(stored))
	return nil
}

func newImportJournalCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "journal [file]",
		Short: "Post the entries of a journal CSV",
		Long: "Post the entries of a journal CSV. Every entry of a file is validated\n" +
			"first; if any entry is invalid nothing from that file is stored.\n\n" +
			"Without a file, every CSV in the project's import/ directory is posted\n" +
			"in name order and moved to import/processed/.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runImportInbox(cmd, opts)
			}
			return runImportJournal(cmd, opts, args[0])
		},
	}
}

func runImportJournal(cmd *cobra.Command, opts *rootOptions, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	p, err := openProject(cmd, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.journal().ImportCSV(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries (%d lines)\n", res.Entries, res.Lines)
	return nil
}

func runImportInbox(cmd *cobra.Command, opts *rootOptions) error {
	p, err := openProject(cmd, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	inbox := importer.NewInbox(p.root, p.log)
	results, err := inbox.Run(cmd.Context(), p.journal())

	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "Imported %d entries (%d lines) from %s\n", r.Entries, r.Lines, r.File.Name)
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "No CSV files in %s\n", inbox.Dir())
	}
	return nil
}
