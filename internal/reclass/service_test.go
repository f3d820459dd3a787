package reclass

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/balancete/internal/audit"
	"github.com/cleared-dev/balancete/internal/balance"
	"github.com/cleared-dev/balancete/internal/ledger"
	"github.com/cleared-dev/balancete/internal/model"
	"github.com/cleared-dev/balancete/internal/store"
)

type fixture struct {
	repo    *store.Repository
	agg     *balance.Aggregator
	svc     *Service
	log     *audit.Log
	rentID  string // line posted to 4.1
	feeLine string // line posted to 4.2
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := store.New(store.Config{Path: store.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))
	repo := store.NewRepository(db, zerolog.Nop())

	_, err = repo.InsertAccounts(ctx, []model.Account{
		{ID: "caixa", Code: "1.1", Name: "Caixa", Type: model.AccountTypeAsset, IsActive: true},
		{ID: "desp", Code: "4", Name: "Despesas", Type: model.AccountTypeExpense, IsSynthetic: true, IsActive: true},
		{ID: "aluguel", Code: "4.1", Name: "Aluguel", Type: model.AccountTypeExpense, IsActive: true},
		{ID: "tarifas", Code: "4.2", Name: "Tarifas", Type: model.AccountTypeExpense, IsActive: true},
		{ID: "velha", Code: "4.3", Name: "Conta velha", Type: model.AccountTypeExpense, IsActive: false},
	})
	require.NoError(t, err)

	post := func(number string, debitAcct, amount string) string {
		d := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		_, lines, err := repo.InsertEntry(ctx, model.JournalEntry{Number: number, EntryDate: &d, Description: number},
			[]model.LedgerLine{
				{AccountID: debitAcct, Debit: dec(amount), Credit: decimal.Zero},
				{AccountID: "caixa", Debit: decimal.Zero, Credit: dec(amount)},
			})
		require.NoError(t, err)
		return lines[0].ID
	}

	f := &fixture{repo: repo}
	f.rentID = post("2025-01-001", "aluguel", "100")
	f.feeLine = post("2025-01-002", "tarifas", "15.50")

	f.agg = balance.NewAggregator(repo, ledger.NewLoader(repo, 0, zerolog.Nop()), balance.Options{}, zerolog.Nop())
	f.log = audit.NewLog(filepath.Join(t.TempDir(), "audit.csv"))
	now := func() time.Time { return time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC) }
	f.svc = NewService(repo, repo, f.agg, Options{Audit: f.log, Actor: "tester", Now: now}, zerolog.Nop())
	return f
}

func TestReclassify(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	period := model.MonthPeriod(2025, 1)

	res, err := f.svc.Reclassify(ctx, f.rentID, "tarifas", period)
	require.NoError(t, err)

	assert.Equal(t, f.rentID, res.LineID)
	assert.Equal(t, "aluguel", res.From.Before.AccountID)
	assert.True(t, res.From.Before.ClosingBalance.Equal(dec("100")))
	assert.True(t, res.From.After.ClosingBalance.IsZero())
	assert.True(t, res.To.Before.ClosingBalance.Equal(dec("15.50")))
	assert.True(t, res.To.After.ClosingBalance.Equal(dec("115.50")))

	line, err := f.repo.GetLine(ctx, f.rentID)
	require.NoError(t, err)
	assert.Equal(t, "tarifas", line.AccountID)

	entries, err := f.log.Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tester", entries[0].Actor)
	assert.Equal(t, audit.ActionReclassify, entries[0].Action)
	assert.Equal(t, "4.1", entries[0].FromAccount)
	assert.Equal(t, "4.2", entries[0].ToAccount)
	assert.Equal(t, "2025-01-001", entries[0].EntryNumber)
	assert.True(t, entries[0].Debit.Equal(dec("100")))
	assert.True(t, entries[0].Credit.IsZero())
	assert.True(t, entries[0].Period.Start.Equal(period.Start))
	assert.True(t, entries[0].Period.End.Equal(period.End))
	assert.True(t, entries[0].ToBefore.Equal(dec("15.50")))
	assert.True(t, entries[0].ToAfter.Equal(dec("115.50")))
}

func TestReclassifyConservesTotals(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	period := model.MonthPeriod(2025, 1)

	before, err := f.agg.Compute(ctx, period)
	require.NoError(t, err)

	res, err := f.svc.Reclassify(ctx, f.feeLine, "aluguel", period)
	require.NoError(t, err)

	sumBefore := res.From.Before.ClosingBalance.Add(res.To.Before.ClosingBalance)
	sumAfter := res.From.After.ClosingBalance.Add(res.To.After.ClosingBalance)
	assert.True(t, sumBefore.Equal(sumAfter), "%s != %s", sumBefore, sumAfter)

	after, err := f.agg.Compute(ctx, period)
	require.NoError(t, err)

	parentBefore, _ := before.ByCode("4")
	parentAfter, _ := after.ByCode("4")
	assert.True(t, parentBefore.ClosingBalance.Equal(parentAfter.ClosingBalance))
	assert.True(t, before.TrialBalance().Difference.Equal(after.TrialBalance().Difference))
	assert.True(t, after.TrialBalance().Balanced)
}

func TestReclassifyRejectsInvalidTargets(t *testing.T) {
	tests := []struct {
		name, target, reason string
	}{
		{"synthetic", "desp", "synthetic"},
		{"inactive", "velha", "inactive"},
		{"unknown", "nope", "does not exist"},
		{"same account", "aluguel", "already posts"},
		{"empty", "", "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()

			_, err := f.svc.Reclassify(ctx, f.rentID, tt.target, model.MonthPeriod(2025, 1))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "account_id", verr.Field)
			assert.Contains(t, verr.Reason, tt.reason)

			line, err := f.repo.GetLine(ctx, f.rentID)
			require.NoError(t, err)
			assert.Equal(t, "aluguel", line.AccountID, "line must not move")

			entries, err := f.log.Read()
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestReclassifyLineNotFound(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Reclassify(context.Background(), "missing", "tarifas", model.MonthPeriod(2025, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReclassifyLineWithoutAccount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	d := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	_, lines, err := f.repo.InsertEntry(ctx, model.JournalEntry{
		EntryDate: &d, Description: "Conta inexistente", ReferenceType: model.ReferenceOpeningBalance,
	}, []model.LedgerLine{{Debit: dec("7"), Credit: decimal.Zero}})
	require.NoError(t, err)

	res, err := f.svc.Reclassify(ctx, lines[0].ID, "tarifas", model.MonthPeriod(2025, 1))
	require.NoError(t, err)
	assert.Empty(t, res.From.Before.AccountID)
	assert.True(t, res.To.After.TotalDebits.Equal(dec("22.50")))
}
