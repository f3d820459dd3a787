package balance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/balancete/internal/model"
)

func TestAccountLedgerRunningBalance(t *testing.T) {
	s, err := newAggregator(sampleStore()).AccountLedger(context.Background(), "112", model.MonthPeriod(2025, 1))
	require.NoError(t, err)

	assert.Equal(t, "1.1.2", s.Account.Code)
	assertDec(t, "0", s.OpeningBalance)
	require.Len(t, s.Entries, 2)

	first := s.Entries[0]
	assert.Equal(t, date(2025, 1, 5), first.Date)
	assert.Equal(t, "2025-01-002", first.EntryNumber)
	assert.Equal(t, "Honorarios janeiro", first.Description)
	assert.Equal(t, "DOC-2", first.Document)
	assertDec(t, "500", first.Debit)
	assertDec(t, "500", first.RunningBalance)

	assertDec(t, "12.34", s.Entries[1].Credit)
	assertDec(t, "487.66", s.Entries[1].RunningBalance)

	assertDec(t, "500", s.TotalDebits)
	assertDec(t, "12.34", s.TotalCredits)
	assertDec(t, "487.66", s.ClosingBalance)
}

func TestAccountLedgerStartsFromOpening(t *testing.T) {
	s, err := newAggregator(sampleStore()).AccountLedger(context.Background(), "111", model.MonthPeriod(2025, 1))
	require.NoError(t, err)

	assertDec(t, "1000", s.OpeningBalance)
	require.Len(t, s.Entries, 1, "the opening entry is not listed as activity")
	assertDec(t, "700", s.Entries[0].RunningBalance)
	assertDec(t, "700", s.ClosingBalance)
}

func TestAccountLedgerSyntheticListsDescendants(t *testing.T) {
	s, err := newAggregator(sampleStore()).AccountLedger(context.Background(), "11", model.MonthPeriod(2025, 1))
	require.NoError(t, err)

	assertDec(t, "1000", s.OpeningBalance)
	require.Len(t, s.Entries, 3)
	var running []string
	for _, e := range s.Entries {
		running = append(running, e.RunningBalance.String())
	}
	assert.Equal(t, []string{"1500", "1200", "1187.66"}, running)
	assert.Equal(t, "112", s.Entries[0].AccountID)
	assert.Equal(t, "111", s.Entries[1].AccountID)
	assertDec(t, "1187.66", s.ClosingBalance)
}

func TestAccountLedgerOrdering(t *testing.T) {
	m := sampleStore()
	// Recorded late but competent on January 2nd.
	late := m.post(on(2025, 1, 28), model.ReferenceManual, "Ajuste", dr("112", "1"), cr("31", "1"))
	m.lines[len(m.lines)-2].Entry.CompetenceDate = on(2025, 1, 2)
	undated := m.post(nil, model.ReferenceManual, "Sem data", dr("112", "2"), cr("31", "2"))

	s, err := newAggregator(m).AccountLedger(context.Background(), "112", model.MonthPeriod(2025, 1))
	require.NoError(t, err)
	require.Len(t, s.Entries, 4)

	assert.Equal(t, undated[0], s.Entries[0].LineID)
	assert.True(t, s.Entries[0].Date.IsZero())
	assert.Equal(t, late[0], s.Entries[1].LineID)
	assert.Equal(t, date(2025, 1, 2), s.Entries[1].Date)
	assertDec(t, "490.66", s.Entries[3].RunningBalance)
	assertDec(t, "490.66", s.ClosingBalance)
}

func TestAccountLedgerUnknownAccount(t *testing.T) {
	_, err := newAggregator(sampleStore()).AccountLedger(context.Background(), "nope", model.MonthPeriod(2025, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
