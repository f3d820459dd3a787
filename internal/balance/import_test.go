package balance_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/balancete/internal/balance"
	"github.com/cleared-dev/balancete/internal/journal"
	"github.com/cleared-dev/balancete/internal/ledger"
	"github.com/cleared-dev/balancete/internal/model"
	"github.com/cleared-dev/balancete/internal/store"
)

const openingByName = `entry,date,competence_date,account_code,description,debit,credit,reference_type,document
OB,2024-12-31,,,Caixa,100,0,opening_balance,
OB,2024-12-31,,,Banco,200,0,opening_balance,
late,2025-01-15,,,Banco,50,0,opening_balance,
`

func TestImportedOpeningLinesMatchTheirOwnNames(t *testing.T) {
	ctx := context.Background()
	db, err := store.New(store.Config{Path: store.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))
	repo := store.NewRepository(db, zerolog.Nop())

	_, err = repo.InsertAccounts(ctx, []model.Account{
		{ID: "caixa", Code: "1.1", Name: "Caixa", Type: model.AccountTypeAsset, IsActive: true},
		{ID: "banco", Code: "1.2", Name: "Banco", Type: model.AccountTypeAsset, IsActive: true},
	})
	require.NoError(t, err)

	svc := journal.NewService(repo, model.ReferenceOpeningBalance, zerolog.Nop())
	res, err := svc.ImportCSV(ctx, strings.NewReader(openingByName))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Lines)

	agg := balance.NewAggregator(repo, ledger.NewLoader(repo, 0, zerolog.Nop()), balance.Options{}, zerolog.Nop())
	period := model.MonthPeriod(2025, 1)
	report, err := agg.Compute(ctx, period)
	require.NoError(t, err)

	caixa, _ := report.Get("caixa")
	banco, _ := report.Get("banco")
	assert.True(t, caixa.OpeningBalance.Equal(decimal.RequireFromString("100")), "caixa opening %s", caixa.OpeningBalance)
	assert.True(t, banco.OpeningBalance.Equal(decimal.RequireFromString("200")), "banco opening %s", banco.OpeningBalance)
	assert.True(t, banco.ClosingBalance.Equal(decimal.RequireFromString("250")), "banco closing %s", banco.ClosingBalance)
	assert.Zero(t, report.Unmatched)

	partial, err := agg.ComputeAccounts(ctx, period, "banco")
	require.NoError(t, err)
	assert.True(t, partial["banco"].ClosingBalance.Equal(banco.ClosingBalance))

	stmt, err := agg.AccountLedger(ctx, "banco", period)
	require.NoError(t, err)
	assert.True(t, stmt.ClosingBalance.Equal(banco.ClosingBalance))
	require.Len(t, stmt.Entries, 1)
	assert.Equal(t, "2025-01-001", stmt.Entries[0].EntryNumber)
}
