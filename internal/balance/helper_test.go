package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/ledger"
	"github.com/cleared-dev/balancete/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// memStore is an in-memory chart source and line pager.
type memStore struct {
	accounts []model.Account
	lines    []model.LedgerLine
	listErr  error
	fetchErr error
	calls    []model.LineQuery
	seq      int
}

func (m *memStore) ListAccounts(context.Context) ([]model.Account, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.accounts, nil
}

func (m *memStore) FetchLines(_ context.Context, q model.LineQuery) ([]model.LedgerLine, error) {
	m.calls = append(m.calls, q)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var matched []model.LedgerLine
	for _, l := range m.lines {
		if !q.Period.ContainsLine(l) {
			continue
		}
		if q.ReferenceType != "" && l.Entry.ReferenceType != q.ReferenceType {
			continue
		}
		if len(q.AccountIDs) > 0 && !containsID(q.AccountIDs, l.AccountID) {
			continue
		}
		matched = append(matched, l)
	}
	if q.Offset >= len(matched) {
		return nil, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (m *memStore) account(id, code string, typ model.AccountType, synthetic bool) {
	nature, _ := model.NatureOf(typ)
	m.accounts = append(m.accounts, model.Account{
		ID: id, Code: code, Name: "Conta " + code, Type: typ, Nature: nature,
		IsSynthetic: synthetic, IsActive: true,
	})
}

type leg struct {
	account string
	name    string
	debit   string
	credit  string
}

func dr(account, amount string) leg { return leg{account: account, debit: amount} }
func cr(account, amount string) leg { return leg{account: account, credit: amount} }

// named is an opening debit with no account, carrying its own description.
func named(name, amount string) leg { return leg{name: name, debit: amount} }

// post records one entry. A nil date leaves the entry undated.
func (m *memStore) post(d *time.Time, ref model.ReferenceType, desc string, legs ...leg) []string {
	m.seq++
	entry := model.JournalEntry{
		ID:            fmt.Sprintf("e%03d", m.seq),
		Number:        fmt.Sprintf("2025-01-%03d", m.seq),
		EntryDate:     d,
		Description:   desc,
		ReferenceType: ref,
		Document:      fmt.Sprintf("DOC-%d", m.seq),
	}
	var ids []string
	for i, lg := range legs {
		l := model.LedgerLine{
			ID:        fmt.Sprintf("%s-%d", entry.ID, i),
			AccountID:   lg.account,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
			Description: lg.name,
			EntryID:     entry.ID,
			Entry:       entry,
		}
		if lg.debit != "" {
			l.Debit = dec(lg.debit)
		}
		if lg.credit != "" {
			l.Credit = dec(lg.credit)
		}
		m.lines = append(m.lines, l)
		ids = append(ids, l.ID)
	}
	return ids
}

func on(y, m, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func newAggregator(m *memStore) *Aggregator {
	loader := ledger.NewLoader(m, 2, zerolog.Nop())
	return NewAggregator(m, loader, Options{}, zerolog.Nop())
}

// sampleStore builds a small firm: assets, liabilities, revenue, expenses.
func sampleStore() *memStore {
	m := &memStore{}
	m.account("1", "1", model.AccountTypeAsset, true)
	m.account("11", "1.1", model.AccountTypeAsset, true)
	m.account("111", "1.1.1", model.AccountTypeAsset, false)
	m.account("112", "1.1.2", model.AccountTypeAsset, false)
	m.account("2", "2", model.AccountTypeLiability, true)
	m.account("21", "2.1", model.AccountTypeLiability, false)
	m.account("3", "3", model.AccountTypeRevenue, true)
	m.account("31", "3.1", model.AccountTypeRevenue, false)
	m.account("4", "4", model.AccountTypeExpense, true)
	m.account("41", "4.1", model.AccountTypeExpense, false)
	m.account("42", "4.2", model.AccountTypeExpense, false)
	m.account("5", "5", model.AccountTypeCost, true)
	m.account("51", "5.1", model.AccountTypeCost, false)

	// Opening position on 2024-12-31.
	m.post(on(2024, 12, 31), model.ReferenceOpeningBalance, "Saldo inicial", dr("111", "1000"), cr("21", "1000"))
	// January activity.
	m.post(on(2025, 1, 5), model.ReferenceInvoice, "Honorarios janeiro", dr("112", "500"), cr("31", "500"))
	m.post(on(2025, 1, 10), model.ReferenceManual, "Aluguel", dr("41", "300"), cr("111", "300"))
	m.post(on(2025, 1, 15), model.ReferencePayment, "Tarifa", dr("42", "12.34"), cr("112", "12.34"))
	m.post(on(2025, 1, 20), model.ReferenceManual, "Custo servico", dr("51", "80"), cr("21", "80"))
	// February activity.
	m.post(on(2025, 2, 3), model.ReferenceInvoice, "Honorarios fevereiro", dr("112", "700"), cr("31", "700"))
	return m
}
