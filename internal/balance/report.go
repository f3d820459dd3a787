package balance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/chart"
	"github.com/cleared-dev/balancete/internal/model"
)

// Report holds the balances of every active account for one period.
type Report struct {
	Period model.Period
	Tree   *chart.Tree
	// Balances has an entry for every active account, including those
	// without activity, keyed by account ID.
	Balances map[string]model.AccountBalance
	// Unmatched counts opening-balance lines no account name matched.
	Unmatched int
	// Orphaned counts lines pointing at unknown, inactive or synthetic accounts.
	Orphaned int

	tolerance decimal.Decimal
}

// Get returns the balance of an account ID.
func (r *Report) Get(id string) (model.AccountBalance, bool) {
	b, ok := r.Balances[id]
	return b, ok
}

// ByCode returns the balance of an account code.
func (r *Report) ByCode(code string) (model.AccountBalance, bool) {
	n, ok := r.Tree.Get(code)
	if !ok {
		return model.AccountBalance{}, false
	}
	return r.Get(n.Account.ID)
}

// Rows returns the balances with activity or an opening balance, in code order.
func (r *Report) Rows() []model.AccountBalance {
	rows := make([]model.AccountBalance, 0, len(r.Balances))
	for _, b := range r.Balances {
		if b.HasActivity() {
			rows = append(rows, b)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return chart.CompareCodes(rows[i].Code, rows[j].Code) < 0
	})
	return rows
}

// TrialBalance compares closing balances of debtor and creditor accounts.
type TrialBalance struct {
	Debtor     decimal.Decimal
	Creditor   decimal.Decimal
	Difference decimal.Decimal // Debtor - Creditor
	Balanced   bool
}

// TrialBalance sums analytical closing balances by nature. Synthetic
// accounts are left out since they only repeat their descendants.
func (r *Report) TrialBalance() TrialBalance {
	var tb TrialBalance
	r.Tree.Walk(func(n *chart.Node) {
		if n.Account.IsSynthetic {
			return
		}
		b := r.Balances[n.Account.ID]
		if b.Nature == model.NatureCreditor {
			tb.Creditor = tb.Creditor.Add(b.ClosingBalance)
		} else {
			tb.Debtor = tb.Debtor.Add(b.ClosingBalance)
		}
	})
	tb.Difference = tb.Debtor.Sub(tb.Creditor)
	tb.Balanced = tb.Difference.Abs().LessThanOrEqual(r.tolerance)
	return tb
}
