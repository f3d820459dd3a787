package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/balancete/internal/journal"
	"github.com/cleared-dev/balancete/internal/model"
)

type postFlags struct {
	date        string
	competence  string
	description string
	debit       string
	credit      string
	amount      string
	refType     string
	document    string
}

func newPostCommand(opts *rootOptions) *cobra.Command {
	var f postFlags

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a two-line journal entry",
		Example: "  balancete post --date 2025-01-10 --debit 4.1.1 --credit 1.1.2 \\\n" +
			"    --amount 1500.00 --description \"Aluguel janeiro\"",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, opts, f)
		},
	}

	cmd.Flags().StringVar(&f.date, "date", "", "entry date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&f.competence, "competence", "", "competence date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.description, "description", "", "entry description")
	cmd.Flags().StringVar(&f.debit, "debit", "", "debited account code or ID (required)")
	cmd.Flags().StringVar(&f.credit, "credit", "", "credited account code or ID (required)")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount, e.g. 1500.00 (required)")
	cmd.Flags().StringVar(&f.refType, "reference-type", string(model.ReferenceManual), "reference type")
	cmd.Flags().StringVar(&f.document, "document", "", "supporting document")
	for _, name := range []string{"date", "debit", "credit", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runPost(cmd *cobra.Command, opts *rootOptions, f postFlags) error {
	date, err := time.Parse(model.DateFormat, f.date)
	if err != nil {
		return fmt.Errorf("parsing --date: %w", err)
	}
	var competence *time.Time
	if f.competence != "" {
		c, err := time.Parse(model.DateFormat, f.competence)
		if err != nil {
			return fmt.Errorf("parsing --competence: %w", err)
		}
		competence = &c
	}
	amount, err := decimal.NewFromString(f.amount)
	if err != nil {
		return fmt.Errorf("parsing --amount: %w", err)
	}

	p, err := openProject(cmd, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := cmd.Context()
	debit, err := p.resolveAccount(ctx, f.debit)
	if err != nil {
		return err
	}
	credit, err := p.resolveAccount(ctx, f.credit)
	if err != nil {
		return err
	}

	number, err := p.journal().AddDouble(ctx, journal.AddDoubleParams{
		Date:           date,
		CompetenceDate: competence,
		Description:    f.description,
		DebitAccount:   debit.ID,
		CreditAccount:  credit.ID,
		Amount:         amount,
		ReferenceType:  model.ReferenceType(f.refType),
		Document:       f.document,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Posted %s: %s D / %s C %s\n", number, debit.Code, credit.Code, amount.StringFixed(2))
	return nil
}
