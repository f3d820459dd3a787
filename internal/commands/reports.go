package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/balancete/internal/balance"
	"github.com/cleared-dev/balancete/internal/model"
)

func newBalancesCommand(opts *rootOptions) *cobra.Command {
	var pf periodFlags

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show the balances of every account that moved in a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalances(cmd, opts, pf)
		},
	}
	pf.register(cmd)

	return cmd
}

func runBalances(cmd *cobra.Command, opts *rootOptions, pf periodFlags) error {
	period, err := pf.period()
	if err != nil {
		return err
	}

	p, err := openProject(cmd, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	agg, err := p.aggregator()
	if err != nil {
		return err
	}
	report, err := agg.Compute(cmd.Context(), period)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Balances, %s\n", formatPeriod(period))

	t := newTable([]string{"Code", "Account", "Nature", "Opening", "Debits", "Credits", "Closing"}, 3, 4, 5, 6)
	for _, b := range report.Rows() {
		t.Row(b.Code, b.Name, string(b.Nature),
			amount(b.OpeningBalance), amount(b.TotalDebits), amount(b.TotalCredits), amount(b.ClosingBalance))
	}
	printTable(out, t)

	tb := report.TrialBalance()
	status := "balanced"
	if !tb.Balanced {
		status = "NOT balanced"
	}
	fmt.Fprintf(out, "Trial balance: debtor %s, creditor %s, difference %s (%s)\n",
		amount(tb.Debtor), amount(tb.Creditor), amount(tb.Difference), status)
	if report.Unmatched > 0 || report.Orphaned > 0 {
		fmt.Fprintf(out, "Skipped: %d unmatched opening lines, %d orphaned lines\n", report.Unmatched, report.Orphaned)
	}
	return nil
}

func newDRECommand(opts *rootOptions) *cobra.Command {
	var pf periodFlags

	cmd := &cobra.Command{
		Use:     "dre",
		Aliases: []string{"income"},
		Short:   "Show the income statement (DRE) of a period",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDRE(cmd, opts, pf)
		},
	}
	pf.register(cmd)

	return cmd
}

func runDRE(cmd *cobra.Command, opts *rootOptions, pf periodFlags) error {
	period, err := pf.period()
	if err != nil {
		return err
	}

	p, err := openProject(cmd, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	agg, err := p.aggregator()
	if err != nil {
		return err
	}
	dre, err := agg.IncomeStatement(cmd.Context(), period)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Income statement, %s\n", formatPeriod(period))

	t := newTable([]string{"Code", "Account", "Amount"}, 2)
	section := func(title string, rows []balance.StatementRow, total string) {
		t.Row("", title, "")
		for _, r := range rows {
			t.Row(r.Code, indent(r.Name, r.Depth+1), amount(r.Amount))
		}
		t.Row("", "Total "+title, total)
	}
	section("Revenue", dre.Revenue, amount(dre.TotalRevenue))
	section("Costs", dre.Costs, amount(dre.TotalCosts))
	section("Expenses", dre.Expenses, amount(dre.TotalExpenses))
	t.Row("", "Net result", amount(dre.NetResult))
	printTable(out, t)
	return nil
}

func newLedgerCommand(opts *rootOptions) *cobra.Command {
	var pf periodFlags
	var csvPath string

	cmd := &cobra.Command{
		Use:   "ledger <account>",
		Short: "Show the general ledger of an account (code or ID)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedger(cmd, opts, pf, args[0], csvPath)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the ledger as CSV to this file (- for stdout)")

	return cmd
}

func runLedger(cmd *cobra.Command, opts *rootOptions, pf periodFlags, ref, csvPath string) error {
	period, err := pf.period()
	if err != nil {
		return err
	}

	p, err := openProject(cmd, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := cmd.Context()
	acct, err := p.resolveAccount(ctx, ref)
	if err != nil {
		return err
	}
	agg, err := p.aggregator()
	if err != nil {
		return err
	}
	stmt, err := agg.AccountLedger(ctx, acct.ID, period)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch csvPath {
	case "":
	case "-":
		return balance.WriteLedgerCSV(out, stmt)
	default:
		return writeLedgerFile(csvPath, stmt, out)
	}

	fmt.Fprintf(out, "Ledger %s %s, %s\n", stmt.Account.Code, stmt.Account.Name, formatPeriod(period))
	t := newTable([]string{"Date", "Entry", "Description", "Debit", "Credit", "Balance"}, 3, 4, 5)
	t.Row("", "", "Opening balance", "", "", amount(stmt.OpeningBalance))
	for _, e := range stmt.Entries {
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.Format(model.DateFormat)
		}
		t.Row(date, e.EntryNumber, e.Description, amount(e.Debit), amount(e.Credit), amount(e.RunningBalance))
	}
	t.Row("", "", "Totals", amount(stmt.TotalDebits), amount(stmt.TotalCredits), amount(stmt.ClosingBalance))
	printTable(out, t)
	return nil
}

func writeLedgerFile(path string, stmt *balance.AccountStatement, out io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := balance.WriteLedgerCSV(f, stmt); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintf(out, "Wrote %d entries to %s\n", len(stmt.Entries), path)
	return nil
}
