package balance

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// LedgerCSVHeader lists the columns of an exported account ledger.
var LedgerCSVHeader = []string{"Date", "EntryNumber", "Description", "Document", "Debit", "Credit", "RunningBalance"}

const (
	bom           = "\ufeff"
	csvDateFormat = "02/01/2006"
)

// WriteLedgerCSV exports a statement as semicolon-separated UTF-8 with a BOM
// and comma decimals. Summary rows for opening balance and totals follow the
// entries.
func WriteLedgerCSV(w io.Writer, s *AccountStatement) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(LedgerCSVHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range s.Entries {
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.Format(csvDateFormat)
		}
		row := []string{
			date,
			e.EntryNumber,
			e.Description,
			e.Document,
			formatAmount(e.Debit),
			formatAmount(e.Credit),
			formatAmount(e.RunningBalance),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	summary := [][]string{
		{"", "", "Opening balance", "", "", "", formatAmount(s.OpeningBalance)},
		{"", "", "Total debits", "", formatAmount(s.TotalDebits), "", ""},
		{"", "", "Total credits", "", "", formatAmount(s.TotalCredits), ""},
		{"", "", "Closing balance", "", "", "", formatAmount(s.ClosingBalance)},
	}
	for _, row := range summary {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatAmount renders two decimals with a comma separator: 1234.5 -> "1234,50".
func formatAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
