package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/balancete/internal/reclass"
)

func newReclassifyCommand(opts *rootOptions) *cobra.Command {
	var pf periodFlags
	var actor string

	cmd := &cobra.Command{
		Use:   "reclassify <line-id> <account>",
		Short: "Move a ledger line to another analytical account",
		Long: "Move a ledger line to another analytical account (code or ID) and show\n" +
			"the balances of both accounts over the period before and after the move.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReclassify(cmd, opts, pf, actor, args[0], args[1])
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&actor, "actor", "cli", "name recorded in the audit log")

	return cmd
}

func runReclassify(cmd *cobra.Command, opts *rootOptions, pf periodFlags, actor, lineID, ref string) error {
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
	// Unknown references go through unchanged so the service reports them.
	target := ref
	if acct, err := p.resolveAccount(ctx, ref); err == nil {
		target = acct.ID
	}

	agg, err := p.aggregator()
	if err != nil {
		return err
	}
	res, err := p.reclassifier(agg, actor).Reclassify(ctx, lineID, target, period)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Reclassified line %s, balances %s\n", res.LineID, formatPeriod(period))

	t := newTable([]string{"", "Code", "Account", "Before", "After"}, 3, 4)
	row := func(label string, c reclass.BalanceChange) {
		t.Row(label, c.After.Code, c.After.Name, amount(c.Before.ClosingBalance), amount(c.After.ClosingBalance))
	}
	if res.From.After.AccountID != "" {
		row("from", res.From)
	}
	row("to", res.To)
	printTable(out, t)
	return nil
}
