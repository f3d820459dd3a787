// Package balance computes opening, period and closing figures for every
// account of a hierarchical chart, rolling synthetic accounts up from their
// analytical descendants.
package balance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/chart"
	"github.com/cleared-dev/balancete/internal/ledger"
	"github.com/cleared-dev/balancete/internal/model"
)

// ErrAccountNotFound is returned when a requested account is not in the active chart.
var ErrAccountNotFound = fmt.Errorf("account %w", model.ErrNotFound)

// DefaultTolerance is the trial balance tolerance used when none is configured.
var DefaultTolerance = decimal.New(1, -2)

// Options tunes the aggregator.
type Options struct {
	// OpeningReferenceType marks the entries that seed opening balances.
	OpeningReferenceType model.ReferenceType
	// Tolerance is the largest debtor/creditor gap still reported as balanced.
	Tolerance decimal.Decimal
}

// Aggregator combines the chart tree and the line loader into balances.
type Aggregator struct {
	accounts chart.Source
	loader   *ledger.Loader
	opts     Options
	log      zerolog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(accounts chart.Source, loader *ledger.Loader, opts Options, log zerolog.Logger) *Aggregator {
	if opts.OpeningReferenceType == "" {
		opts.OpeningReferenceType = model.ReferenceOpeningBalance
	}
	if opts.Tolerance.IsZero() {
		opts.Tolerance = DefaultTolerance
	}
	return &Aggregator{
		accounts: accounts,
		loader:   loader,
		opts:     opts,
		log:      log.With().Str("component", "balance_aggregator").Logger(),
	}
}

// GetAccountBalances returns the balances of every account that moved or
// carried an opening balance in period, ordered by code.
func (a *Aggregator) GetAccountBalances(ctx context.Context, period model.Period) ([]model.AccountBalance, error) {
	report, err := a.Compute(ctx, period)
	if err != nil {
		return nil, err
	}
	return report.Rows(), nil
}

// Compute builds the full report for period. Failing to read the chart or
// any page of lines aborts; per-line anomalies are skipped and counted.
func (a *Aggregator) Compute(ctx context.Context, period model.Period) (*Report, error) {
	names, tree, err := a.loadChart(ctx)
	if err != nil {
		return nil, err
	}

	lines, err := a.loader.Load(ctx, period, ledger.Filter{})
	if err != nil {
		return nil, fmt.Errorf("computing balances: %w", err)
	}
	opening, err := a.loadOpening(ctx, period)
	if err != nil {
		return nil, err
	}

	return a.aggregate(tree, names, period, lines, opening), nil
}

// ComputeAccounts computes the balances of the named accounts only, loading
// the lines of their analytical descendants and the unlinked opening lines
// that may resolve to them. Results match Compute for the same period.
func (a *Aggregator) ComputeAccounts(ctx context.Context, period model.Period, ids ...string) (map[string]model.AccountBalance, error) {
	names, tree, err := a.loadChart(ctx)
	if err != nil {
		return nil, err
	}

	var targets []string
	seen := make(map[string]bool)
	for _, id := range ids {
		n, ok := tree.ByID(id)
		if !ok {
			return nil, fmt.Errorf("computing balance of %s: %w", id, ErrAccountNotFound)
		}
		for _, d := range tree.AnalyticalDescendants(n.Account.Code) {
			if !seen[d.ID] {
				seen[d.ID] = true
				targets = append(targets, d.ID)
			}
		}
	}

	lines, err := a.loadAccountLines(ctx, period, targets)
	if err != nil {
		return nil, fmt.Errorf("computing balances: %w", err)
	}
	// Name-matched opening lines carry no account ID, so opening lines are
	// loaded unfiltered and narrowed after resolution.
	opening, err := a.loadOpening(ctx, period)
	if err != nil {
		return nil, err
	}

	report := a.aggregate(tree, names, period, lines, opening)
	out := make(map[string]model.AccountBalance, len(ids))
	for _, id := range ids {
		out[id] = report.Balances[id]
	}
	return out, nil
}

func (a *Aggregator) loadChart(ctx context.Context) (*chart.Service, *chart.Tree, error) {
	names, err := chart.Load(ctx, a.accounts)
	if err != nil {
		return nil, nil, err
	}
	tree := names.Tree()
	for _, d := range tree.Duplicates() {
		a.log.Warn().Str("account_id", d.ID).Str("code", d.Code).Msg("Duplicate account code ignored")
	}
	return names, tree, nil
}

// loadAccountLines loads the period lines posted to ids plus the period's
// opening-balance lines without an account, which may resolve by name to
// one of ids. aggregate places them; lines landing elsewhere are ignored by
// callers reading only ids.
func (a *Aggregator) loadAccountLines(ctx context.Context, period model.Period, ids []string) ([]model.LedgerLine, error) {
	var lines []model.LedgerLine
	if len(ids) > 0 {
		var err error
		lines, err = a.loader.Load(ctx, period, ledger.Filter{AccountIDs: ids})
		if err != nil {
			return nil, err
		}
	}

	opening, err := a.loader.Load(ctx, period, ledger.Filter{ReferenceType: a.opts.OpeningReferenceType})
	if err != nil {
		return nil, err
	}
	for _, l := range opening {
		if l.AccountID == "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func (a *Aggregator) loadOpening(ctx context.Context, period model.Period) ([]model.LedgerLine, error) {
	lines, err := a.loader.LoadOpening(ctx, period.Start, ledger.Filter{ReferenceType: a.opts.OpeningReferenceType})
	if err != nil {
		return nil, fmt.Errorf("loading opening balances: %w", err)
	}
	return lines, nil
}

// totals are raw debit/credit sums; signs are applied per account nature
// only when balances are produced.
type totals struct {
	openDebit, openCredit decimal.Decimal
	debit, credit         decimal.Decimal
}

func (t *totals) add(o *totals) {
	t.openDebit = t.openDebit.Add(o.openDebit)
	t.openCredit = t.openCredit.Add(o.openCredit)
	t.debit = t.debit.Add(o.debit)
	t.credit = t.credit.Add(o.credit)
}

func (a *Aggregator) aggregate(tree *chart.Tree, names *chart.Service, period model.Period, lines, opening []model.LedgerLine) *Report {
	report := &Report{
		Period:    period,
		Tree:      tree,
		Balances:  make(map[string]model.AccountBalance, tree.Len()),
		tolerance: a.opts.Tolerance,
	}
	raw := make(map[*chart.Node]*totals, tree.Len())
	tree.Walk(func(n *chart.Node) { raw[n] = &totals{} })

	for _, l := range opening {
		n := a.resolve(tree, names, l, report)
		if n == nil {
			continue
		}
		t := raw[n]
		t.openDebit = t.openDebit.Add(l.Debit)
		t.openCredit = t.openCredit.Add(l.Credit)
	}

	for _, l := range lines {
		if a.seedsOpening(l, period) {
			continue
		}
		n := a.resolve(tree, names, l, report)
		if n == nil {
			continue
		}
		t := raw[n]
		t.debit = t.debit.Add(l.Debit)
		t.credit = t.credit.Add(l.Credit)
	}

	// Post-order: every child is final before its parent sums it.
	tree.WalkPost(func(n *chart.Node) {
		t := raw[n]
		for _, c := range n.Children {
			t.add(raw[c])
		}
		report.Balances[n.Account.ID] = toBalance(n.Account, t)
	})

	if report.Unmatched > 0 || report.Orphaned > 0 {
		a.log.Warn().
			Str("period", period.String()).
			Int("unmatched", report.Unmatched).
			Int("orphaned", report.Orphaned).
			Msg("Skipped ledger lines while computing balances")
	}
	return report
}

func toBalance(acct model.Account, t *totals) model.AccountBalance {
	nature := acct.EffectiveNature()
	opening := nature.Sign(t.openDebit, t.openCredit)
	return model.AccountBalance{
		AccountID:      acct.ID,
		Code:           acct.Code,
		Name:           acct.Name,
		Nature:         nature,
		IsSynthetic:    acct.IsSynthetic,
		OpeningBalance: opening,
		TotalDebits:    t.debit,
		TotalCredits:   t.credit,
		ClosingBalance: opening.Add(nature.Sign(t.debit, t.credit)),
	}
}

// seedsOpening reports whether a line was already counted as opening balance
// for period, so it must not count again as period activity.
func (a *Aggregator) seedsOpening(l model.LedgerLine, period model.Period) bool {
	if !l.IsOpening(a.opts.OpeningReferenceType) {
		return false
	}
	if period.Start.IsZero() {
		return true
	}
	d, ok := l.Entry.EffectiveDate()
	return !ok || !d.After(dayOf(period.Start))
}

// resolve finds the analytical account a line posts to. Lines that cannot be
// placed are counted on the report and skipped.
func (a *Aggregator) resolve(tree *chart.Tree, names *chart.Service, l model.LedgerLine, report *Report) *chart.Node {
	if l.AccountID == "" {
		if !l.IsOpening(a.opts.OpeningReferenceType) {
			report.Orphaned++
			a.log.Warn().Str("line_id", l.ID).Msg("Ledger line has no account")
			return nil
		}
		return a.matchByName(tree, names, l, report)
	}

	n, ok := tree.ByID(l.AccountID)
	if !ok {
		report.Orphaned++
		a.log.Warn().Str("line_id", l.ID).Str("account_id", l.AccountID).Msg("Ledger line points at unknown or inactive account")
		return nil
	}
	if n.Account.IsSynthetic {
		report.Orphaned++
		a.log.Warn().Str("line_id", l.ID).Str("code", n.Account.Code).Msg("Ledger line posted to synthetic account")
		return nil
	}
	return n
}

// matchByName links an opening-balance line without an account reference to
// the account whose name equals the line description, falling back to the
// entry description when the line has none. Case and spacing are ignored.
func (a *Aggregator) matchByName(tree *chart.Tree, names *chart.Service, l model.LedgerLine, report *Report) *chart.Node {
	name := l.Description
	if strings.TrimSpace(name) == "" {
		name = l.Entry.Description
	}
	if acct, ok := names.FindByName(name); ok {
		if n, ok := tree.ByID(acct.ID); ok && n.Account.IsAnalytical() {
			return n
		}
	}
	report.Unmatched++
	a.log.Warn().
		Str("line_id", l.ID).
		Str("entry_id", l.EntryID).
		Str("name", name).
		Msg("Opening balance matches no analytical account")
	return nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
