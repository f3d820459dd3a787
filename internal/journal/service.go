// Package journal records journal entries: validated posting of single
// entries and batch import from CSV.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/chart"
	"github.com/cleared-dev/balancete/internal/id"
	"github.com/cleared-dev/balancete/internal/model"
)

// Store persists entries and exposes the chart they post to.
type Store interface {
	chart.Source
	InsertEntry(ctx context.Context, entry model.JournalEntry, lines []model.LedgerLine) (model.JournalEntry, []model.LedgerLine, error)
	EntryNumbers(ctx context.Context, prefix string) ([]string, error)
}

// Service provides business logic for journal entries.
type Service struct {
	store   Store
	opening model.ReferenceType
	log     zerolog.Logger
}

// NewService creates a journal Service. opening is the reference type of
// opening-balance entries; empty selects model.ReferenceOpeningBalance.
func NewService(store Store, opening model.ReferenceType, log zerolog.Logger) *Service {
	if opening == "" {
		opening = model.ReferenceOpeningBalance
	}
	return &Service{
		store:   store,
		opening: opening,
		log:     log.With().Str("component", "journal").Logger(),
	}
}

// AddDoubleParams holds parameters for creating a double-entry journal entry.
type AddDoubleParams struct {
	Date           time.Time
	CompetenceDate *time.Time
	Description    string
	DebitAccount   string
	CreditAccount  string
	Amount         decimal.Decimal
	ReferenceType  model.ReferenceType
	Document       string
}

// AddDouble posts a balanced two-line entry and returns its entry number.
func (s *Service) AddDouble(ctx context.Context, params AddDoubleParams) (string, error) {
	d := params.Date
	entry := model.JournalEntry{
		EntryDate:      &d,
		CompetenceDate: params.CompetenceDate,
		Description:    params.Description,
		ReferenceType:  params.ReferenceType,
		Document:       params.Document,
	}
	lines := []model.LedgerLine{
		{AccountID: params.DebitAccount, Debit: params.Amount, Credit: decimal.Zero},
		{AccountID: params.CreditAccount, Debit: decimal.Zero, Credit: params.Amount},
	}

	stored, err := s.Post(ctx, entry, lines)
	if err != nil {
		return "", err
	}
	return stored.Number, nil
}

// Post validates an entry against the chart and stores it. Dated entries
// without a number get the next one of their month.
func (s *Service) Post(ctx context.Context, entry model.JournalEntry, lines []model.LedgerLine) (model.JournalEntry, error) {
	accounts, err := chart.Load(ctx, s.store)
	if err != nil {
		return model.JournalEntry{}, err
	}
	if entry.ReferenceType == "" {
		entry.ReferenceType = model.ReferenceManual
	}

	if verrs := ValidateEntry(entry, lines, accounts, s.opening); len(verrs) > 0 {
		return model.JournalEntry{}, fmt.Errorf("validation failed: %w", ValidationErrors(verrs))
	}

	if entry.Number == "" {
		if d, ok := entry.EffectiveDate(); ok {
			seq := id.NewSequencer()
			if err := s.seed(ctx, seq, d); err != nil {
				return model.JournalEntry{}, err
			}
			entry.Number = seq.Next(d)
		}
	}

	stored, _, err := s.store.InsertEntry(ctx, entry, lines)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("posting entry: %w", err)
	}
	s.log.Debug().Str("entry", stored.Number).Int("lines", len(lines)).Msg("Posted entry")
	return stored, nil
}

func (s *Service) seed(ctx context.Context, seq *id.Sequencer, d time.Time) error {
	if seq.Seeded(d) {
		return nil
	}
	existing, err := s.store.EntryNumbers(ctx, id.MonthPrefix(d.Year(), int(d.Month())))
	if err != nil {
		return fmt.Errorf("numbering entry: %w", err)
	}
	seq.Seed(d, existing)
	return nil
}
