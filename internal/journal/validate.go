package journal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/model"
)

// ValidationError describes a single rule violation in an entry.
type ValidationError struct {
	Rule        int
	Entry       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("rule %d [%s]: %s", e.Rule, e.Entry, e.Description)
}

// ValidationErrors collects every violation found in a batch.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, ve := range v {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// AccountLookup finds an account by ID.
type AccountLookup interface {
	Get(id string) (model.Account, bool)
}

// ValidateEntry enforces the posting rules on one entry:
//
//  1. debits equal credits (opening-balance entries are exempt, they balance as a set)
//  2. exactly one of debit or credit per line
//  3. the account exists, is active and analytical; opening-balance lines may
//     leave it empty to be matched by name
//  4. amounts are not negative
//  5. amounts have at most 2 decimal places
//  6. the entry has at least one line
func ValidateEntry(entry model.JournalEntry, lines []model.LedgerLine, accounts AccountLookup, opening model.ReferenceType) []ValidationError {
	var errs []ValidationError
	label := entry.Number
	if label == "" {
		label = entry.Description
	}
	add := func(rule int, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, Entry: label, Description: fmt.Sprintf(format, args...)})
	}
	isOpening := entry.ReferenceType == opening

	if len(lines) == 0 {
		add(6, "entry has no lines")
		return errs
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i, l := range lines {
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)

		if l.Debit.IsZero() == l.Credit.IsZero() {
			add(2, "line %d must have exactly one of debit or credit", i+1)
		}

		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			add(4, "line %d has a negative amount", i+1)
		}

		for _, amt := range []decimal.Decimal{l.Debit, l.Credit} {
			if !amt.Equal(amt.Truncate(2)) {
				add(5, "line %d amount %s has more than 2 decimal places", i+1, amt)
			}
		}

		if l.AccountID == "" {
			if !isOpening {
				add(3, "line %d has no account", i+1)
			}
			continue
		}
		acct, ok := accounts.Get(l.AccountID)
		switch {
		case !ok:
			add(3, "line %d: unknown account %s", i+1, l.AccountID)
		case !acct.IsActive:
			add(3, "line %d: account %s is inactive", i+1, acct.Code)
		case acct.IsSynthetic:
			add(3, "line %d: account %s is synthetic", i+1, acct.Code)
		}
	}

	if !isOpening && !totalDebit.Equal(totalCredit) {
		add(1, "debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2))
	}

	return errs
}
