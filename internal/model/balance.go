package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance holds the derived figures of one account over a period.
// It is never persisted.
type AccountBalance struct {
	AccountID      string
	Code           string
	Name           string
	Nature         Nature
	IsSynthetic    bool
	OpeningBalance decimal.Decimal
	TotalDebits    decimal.Decimal
	TotalCredits   decimal.Decimal
	ClosingBalance decimal.Decimal
}

// HasActivity reports whether the account moved or carried an opening balance.
func (b AccountBalance) HasActivity() bool {
	return !b.OpeningBalance.IsZero() || !b.TotalDebits.IsZero() || !b.TotalCredits.IsZero()
}

// LedgerEntryView is one row of an account statement.
type LedgerEntryView struct {
	LineID         string
	AccountID      string
	Date           time.Time // zero for undated entries
	EntryNumber    string
	Description    string
	Document       string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	RunningBalance decimal.Decimal
}
