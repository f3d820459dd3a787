package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeCost      AccountType = "COST"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	_, ok := NatureOf(t)
	return ok
}

// Nature is the sign convention of an account: which side increases it.
type Nature string

const (
	NatureDebtor   Nature = "DEBTOR"
	NatureCreditor Nature = "CREDITOR"
)

// Valid reports whether n is DEBTOR or CREDITOR.
func (n Nature) Valid() bool {
	return n == NatureDebtor || n == NatureCreditor
}

// Sign returns the movement debit/credit produces on an account of this nature.
func (n Nature) Sign(debit, credit decimal.Decimal) decimal.Decimal {
	if n == NatureCreditor {
		return credit.Sub(debit)
	}
	return debit.Sub(credit)
}

// NatureOf maps an account type to its sign convention.
// ASSET, EXPENSE and COST are debtor; LIABILITY and REVENUE are creditor.
func NatureOf(t AccountType) (Nature, bool) {
	switch t {
	case AccountTypeAsset, AccountTypeExpense, AccountTypeCost:
		return NatureDebtor, true
	case AccountTypeLiability, AccountTypeRevenue:
		return NatureCreditor, true
	default:
		return "", false
	}
}

// Account represents a row in the chart of accounts.
type Account struct {
	ID          string
	Code        string // dotted hierarchical code, e.g. "4.1.2"
	Name        string
	Type        AccountType
	Nature      Nature
	IsSynthetic bool
	IsActive    bool
	ParentID    string // cached; the code prefix is authoritative
}

// EffectiveNature returns the stored nature, falling back to the one
// implied by the account type.
func (a Account) EffectiveNature() Nature {
	if a.Nature.Valid() {
		return a.Nature
	}
	n, ok := NatureOf(a.Type)
	if !ok {
		return NatureDebtor
	}
	return n
}

// IsAnalytical reports whether the account accepts ledger lines directly.
func (a Account) IsAnalytical() bool {
	return !a.IsSynthetic
}

// Class returns the first segment of the account code ("4" for "4.1.2").
func (a Account) Class() string {
	class, _, _ := strings.Cut(a.Code, ".")
	return class
}

// NormalizeName folds an account or entry name for loose matching:
// case-insensitive with runs of whitespace collapsed.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
