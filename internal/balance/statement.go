package balance

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/model"
)

// AccountStatement is the general ledger of one account over a period.
type AccountStatement struct {
	Account        model.Account
	Period         model.Period
	OpeningBalance decimal.Decimal
	TotalDebits    decimal.Decimal
	TotalCredits   decimal.Decimal
	ClosingBalance decimal.Decimal
	Entries        []model.LedgerEntryView
}

// AccountLedger lists the lines posted to an account in period in date
// order, each carrying the running balance from the opening balance. For a
// synthetic account the lines of all its analytical descendants are listed.
func (a *Aggregator) AccountLedger(ctx context.Context, accountID string, period model.Period) (*AccountStatement, error) {
	names, tree, err := a.loadChart(ctx)
	if err != nil {
		return nil, err
	}
	node, ok := tree.ByID(accountID)
	if !ok {
		return nil, fmt.Errorf("ledger of %s: %w", accountID, ErrAccountNotFound)
	}

	targets := make(map[string]bool)
	var ids []string
	for _, d := range tree.AnalyticalDescendants(node.Account.Code) {
		targets[d.ID] = true
		ids = append(ids, d.ID)
	}

	lines, err := a.loadAccountLines(ctx, period, ids)
	if err != nil {
		return nil, fmt.Errorf("ledger of %s: %w", node.Account.Code, err)
	}
	opening, err := a.loadOpening(ctx, period)
	if err != nil {
		return nil, err
	}

	report := a.aggregate(tree, names, period, lines, opening)
	bal := report.Balances[accountID]

	// Re-resolve against a scratch report so per-line anomalies are not
	// counted twice.
	scratch := &Report{}
	var posted []model.LedgerLine
	for _, l := range lines {
		if a.seedsOpening(l, period) {
			continue
		}
		if n := a.resolve(tree, names, l, scratch); n != nil && targets[n.Account.ID] {
			l.AccountID = n.Account.ID
			posted = append(posted, l)
		}
	}
	sortChronologically(posted)

	nature := node.Account.EffectiveNature()
	running := bal.OpeningBalance
	entries := make([]model.LedgerEntryView, 0, len(posted))
	for _, l := range posted {
		running = running.Add(nature.Sign(l.Debit, l.Credit))
		d, _ := l.Entry.EffectiveDate()
		entries = append(entries, model.LedgerEntryView{
			LineID:         l.ID,
			AccountID:      l.AccountID,
			Date:           d,
			EntryNumber:    l.Entry.Number,
			Description:    l.Entry.Description,
			Document:       l.Entry.Document,
			Debit:          l.Debit,
			Credit:         l.Credit,
			RunningBalance: running,
		})
	}

	return &AccountStatement{
		Account:        node.Account,
		Period:         period,
		OpeningBalance: bal.OpeningBalance,
		TotalDebits:    bal.TotalDebits,
		TotalCredits:   bal.TotalCredits,
		ClosingBalance: bal.ClosingBalance,
		Entries:        entries,
	}, nil
}

// sortChronologically orders lines by effective date (undated first), then
// entry number, then line ID.
func sortChronologically(lines []model.LedgerLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		di, _ := lines[i].Entry.EffectiveDate()
		dj, _ := lines[j].Entry.EffectiveDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		if lines[i].Entry.Number != lines[j].Entry.Number {
			return lines[i].Entry.Number < lines[j].Entry.Number
		}
		return lines[i].ID < lines[j].ID
	})
}
