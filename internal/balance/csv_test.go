package balance

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/balancete/internal/model"
)

func TestWriteLedgerCSV(t *testing.T) {
	s := &AccountStatement{
		OpeningBalance: dec("1000"),
		TotalDebits:    dec("500"),
		TotalCredits:   dec("12.34"),
		ClosingBalance: dec("1487.66"),
		Entries: []model.LedgerEntryView{
			{Date: date(2025, 1, 5), EntryNumber: "2025-01-001", Description: "Honorarios", Document: "NF-1",
				Debit: dec("500"), Credit: dec("0"), RunningBalance: dec("1500")},
			{EntryNumber: "2025-01-002", Description: "Tarifa; banco",
				Debit: dec("0"), Credit: dec("12.34"), RunningBalance: dec("1487.66")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, s))

	want := "\ufeff" +
		"Date;EntryNumber;Description;Document;Debit;Credit;RunningBalance\n" +
		"05/01/2025;2025-01-001;Honorarios;NF-1;500,00;0,00;1500,00\n" +
		";2025-01-002;\"Tarifa; banco\";;0,00;12,34;1487,66\n" +
		";;Opening balance;;;;1000,00\n" +
		";;Total debits;;500,00;;\n" +
		";;Total credits;;;12,34;\n" +
		";;Closing balance;;;;1487,66\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteLedgerCSVFromStatement(t *testing.T) {
	s, err := newAggregator(sampleStore()).AccountLedger(context.Background(), "111", model.MonthPeriod(2025, 1))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, s))

	out := strings.TrimPrefix(buf.String(), "\ufeff")
	r := csv.NewReader(strings.NewReader(out))
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 1+1+4)
	assert.Equal(t, LedgerCSVHeader, records[0])
	assert.Equal(t, []string{"10/01/2025", "2025-01-003", "Aluguel", "DOC-3", "0,00", "300,00", "700,00"}, records[1])
	assert.Equal(t, "Closing balance", records[5][2])
	assert.Equal(t, "700,00", records[5][6])
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1234,50", formatAmount(dec("1234.5")))
	assert.Equal(t, "-0,01", formatAmount(dec("-0.01")))
	assert.Equal(t, "0,00", formatAmount(dec("0")))
}
