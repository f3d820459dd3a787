package journal

import (
	"context"
	"fmt"
	"io"

	"github.com/cleared-dev/balancete/internal/chart"
	"github.com/cleared-dev/balancete/internal/id"
	"github.com/cleared-dev/balancete/internal/model"
)

// ImportResult summarizes a journal import.
type ImportResult struct {
	Entries int
	Lines   int
	Numbers []string // assigned entry numbers, in file order; empty for undated entries
}

type pending struct {
	entry model.JournalEntry
	lines []model.LedgerLine
}

// ImportCSV reads a journal CSV and posts its entries. See Import.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return ImportResult{}, err
	}
	return s.Import(ctx, rows)
}

// Import groups rows into entries, validates every entry and only then
// stores them, so a file with any invalid entry stores nothing. Account
// codes are resolved against the chart; entries are numbered per month of
// their effective date.
func (s *Service) Import(ctx context.Context, rows []Row) (ImportResult, error) {
	accounts, err := chart.Load(ctx, s.store)
	if err != nil {
		return ImportResult{}, err
	}

	entries, verrs := s.group(rows, accounts)
	for _, p := range entries {
		verrs = append(verrs, ValidateEntry(p.entry, p.lines, accounts, s.opening)...)
	}
	if len(verrs) > 0 {
		return ImportResult{}, fmt.Errorf("validation failed: %w", ValidationErrors(verrs))
	}

	seq := id.NewSequencer()
	result := ImportResult{}
	for _, p := range entries {
		if d, ok := p.entry.EffectiveDate(); ok {
			if err := s.seed(ctx, seq, d); err != nil {
				return result, err
			}
			p.entry.Number = seq.Next(d)
		}
		stored, lines, err := s.store.InsertEntry(ctx, p.entry, p.lines)
		if err != nil {
			return result, fmt.Errorf("importing entry %d of %d: %w", result.Entries+1, len(entries), err)
		}
		result.Entries++
		result.Lines += len(lines)
		result.Numbers = append(result.Numbers, stored.Number)
	}

	s.log.Info().Int("entries", result.Entries).Int("lines", result.Lines).Msg("Imported journal")
	return result, nil
}

// group collects rows into entries in order of first appearance. The header
// of an entry comes from its first row.
func (s *Service) group(rows []Row, accounts *chart.Service) ([]*pending, []ValidationError) {
	var order []*pending
	byKey := make(map[string]*pending)
	var errs []ValidationError

	for _, row := range rows {
		p, ok := byKey[row.Entry]
		if !ok {
			p = &pending{entry: model.JournalEntry{
				EntryDate:      row.Date,
				CompetenceDate: row.CompetenceDate,
				Description:    row.Description,
				ReferenceType:  row.ReferenceType,
				Document:       row.Document,
			}}
			byKey[row.Entry] = p
			order = append(order, p)
		}

		line := model.LedgerLine{Debit: row.Debit, Credit: row.Credit, Description: row.Description}
		if row.AccountCode != "" {
			acct, ok := accounts.ByCode(row.AccountCode)
			if !ok {
				errs = append(errs, ValidationError{
					Rule:        3,
					Entry:       row.Entry,
					Description: fmt.Sprintf("unknown account code %s", row.AccountCode),
				})
				continue
			}
			line.AccountID = acct.ID
		}
		p.lines = append(p.lines, line)
	}
	return order, errs
}
