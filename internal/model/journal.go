package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceType tags the recording flow that produced a journal entry.
type ReferenceType string

const (
	ReferenceManual         ReferenceType = "manual"
	ReferenceInvoice        ReferenceType = "invoice"
	ReferencePayment        ReferenceType = "payment"
	ReferenceOpeningBalance ReferenceType = "opening_balance"
)

// JournalEntry is the header shared by the lines of one posting.
type JournalEntry struct {
	ID             string
	Number         string     // "YYYY-MM-NNN"
	EntryDate      *time.Time
	CompetenceDate *time.Time // preferred over EntryDate for period matching
	Description    string
	ReferenceType  ReferenceType
	Document       string // supporting document, e.g. invoice number
}

// EffectiveDate returns the date used for period matching: the competence
// date when present, otherwise the entry date. ok is false when neither is set.
func (e JournalEntry) EffectiveDate() (date time.Time, ok bool) {
	if e.CompetenceDate != nil {
		return *e.CompetenceDate, true
	}
	if e.EntryDate != nil {
		return *e.EntryDate, true
	}
	return time.Time{}, false
}

// LedgerLine is one side of a journal entry, joined with its entry header.
type LedgerLine struct {
	ID          string
	AccountID   string // empty only on opening-balance lines awaiting name matching
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string // the line's own text; matched to account names when AccountID is empty
	EntryID     string
	Entry       JournalEntry
}

// IsOpening reports whether the line belongs to an opening-balance entry.
func (l LedgerLine) IsOpening(opening ReferenceType) bool {
	return l.Entry.ReferenceType == opening
}
