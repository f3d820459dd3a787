package balance

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/chart"
	"github.com/cleared-dev/balancete/internal/model"
)

// StatementRow is one account line of the income statement.
type StatementRow struct {
	AccountID   string
	Code        string
	Name        string
	IsSynthetic bool
	Depth       int             // 0 for roots
	Amount      decimal.Decimal // magnitude shown to the reader
	Signed      decimal.Decimal // credit - debit for revenue, debit - credit otherwise
}

// IncomeStatement (DRE) is revenue minus costs and expenses over a period.
type IncomeStatement struct {
	Period        model.Period
	Revenue       []StatementRow
	Costs         []StatementRow
	Expenses      []StatementRow
	TotalRevenue  decimal.Decimal
	TotalCosts    decimal.Decimal
	TotalExpenses decimal.Decimal
	// NetResult comes from the signed totals, never from displayed magnitudes.
	NetResult decimal.Decimal
}

// IncomeStatement projects the period movement of revenue, cost and expense
// accounts. Opening balances do not enter the statement.
func (a *Aggregator) IncomeStatement(ctx context.Context, period model.Period) (*IncomeStatement, error) {
	report, err := a.Compute(ctx, period)
	if err != nil {
		return nil, err
	}
	return ProjectIncome(report), nil
}

// ProjectIncome builds the income statement from a computed report.
func ProjectIncome(report *Report) *IncomeStatement {
	is := &IncomeStatement{Period: report.Period}

	report.Tree.Walk(func(n *chart.Node) {
		b := report.Balances[n.Account.ID]
		if b.TotalDebits.IsZero() && b.TotalCredits.IsZero() {
			return
		}

		var signed decimal.Decimal
		switch n.Account.Type {
		case model.AccountTypeRevenue:
			signed = b.TotalCredits.Sub(b.TotalDebits)
		case model.AccountTypeExpense, model.AccountTypeCost:
			signed = b.TotalDebits.Sub(b.TotalCredits)
		default:
			return
		}

		row := StatementRow{
			AccountID:   n.Account.ID,
			Code:        n.Account.Code,
			Name:        n.Account.Name,
			IsSynthetic: n.Account.IsSynthetic,
			Depth:       depth(n),
			Amount:      signed.Abs(),
			Signed:      signed,
		}

		// Totals come from analytical accounts; synthetic rows only repeat them.
		switch n.Account.Type {
		case model.AccountTypeRevenue:
			is.Revenue = append(is.Revenue, row)
			if !n.Account.IsSynthetic {
				is.TotalRevenue = is.TotalRevenue.Add(signed)
			}
		case model.AccountTypeCost:
			is.Costs = append(is.Costs, row)
			if !n.Account.IsSynthetic {
				is.TotalCosts = is.TotalCosts.Add(signed)
			}
		case model.AccountTypeExpense:
			is.Expenses = append(is.Expenses, row)
			if !n.Account.IsSynthetic {
				is.TotalExpenses = is.TotalExpenses.Add(signed)
			}
		}
	})

	is.NetResult = is.TotalRevenue.Sub(is.TotalCosts).Sub(is.TotalExpenses)
	return is
}

func depth(n *chart.Node) int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}
