package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/balancete/internal/model"
)

const lineSelect = `SELECT l.id, l.account_id, l.debit, l.credit, l.description,
       e.id, e.number, e.entry_date, e.competence_date, e.description, e.reference_type, e.document
  FROM ledger_lines l
  JOIN journal_entries e ON e.id = l.entry_id`

const effectiveDate = `COALESCE(e.competence_date, e.entry_date)`

// FetchLines returns one page of lines matching q, ordered by line ID so that
// consecutive offsets never overlap. Undated lines match every period.
func (r *Repository) FetchLines(ctx context.Context, q model.LineQuery) ([]model.LedgerLine, error) {
	if q.Limit <= 0 {
		return nil, fmt.Errorf("fetching lines: limit must be positive, got %d", q.Limit)
	}

	var where []string
	var args []any

	var dateConds []string
	if !q.Period.Start.IsZero() {
		dateConds = append(dateConds, effectiveDate+" >= ?")
		args = append(args, q.Period.Start.Format(model.DateFormat))
	}
	if !q.Period.End.IsZero() {
		dateConds = append(dateConds, effectiveDate+" <= ?")
		args = append(args, q.Period.End.Format(model.DateFormat))
	}
	if len(dateConds) > 0 {
		where = append(where, "("+effectiveDate+" IS NULL OR ("+strings.Join(dateConds, " AND ")+"))")
	}

	if len(q.AccountIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(q.AccountIDs)), ", ")
		where = append(where, "l.account_id IN ("+placeholders+")")
		for _, id := range q.AccountIDs {
			args = append(args, id)
		}
	}
	if q.ReferenceType != "" {
		where = append(where, "e.reference_type = ?")
		args = append(args, string(q.ReferenceType))
	}

	query := lineSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY l.id LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lines at offset %d: %w", q.Offset, err)
	}
	defer rows.Close()

	lines := make([]model.LedgerLine, 0, q.Limit)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lines: %w", err)
	}
	return lines, nil
}

// GetLine returns one line with its entry, or model.ErrNotFound.
func (r *Repository) GetLine(ctx context.Context, id string) (model.LedgerLine, error) {
	row := r.db.QueryRowContext(ctx, lineSelect+" WHERE l.id = ?", id)
	l, err := scanLine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LedgerLine{}, fmt.Errorf("line %s: %w", id, model.ErrNotFound)
	}
	return l, err
}

// UpdateLineAccount moves a line to another account. It touches exactly one row.
func (r *Repository) UpdateLineAccount(ctx context.Context, lineID, accountID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE ledger_lines SET account_id = ? WHERE id = ?`, accountID, lineID)
	if err != nil {
		return fmt.Errorf("updating line %s: %w", lineID, err)
	}
	return expectOneRow(res, "line", lineID)
}

// InsertEntry stores an entry and its lines in one transaction, assigning IDs
// where missing. It returns the stored entry and lines.
func (r *Repository) InsertEntry(ctx context.Context, entry model.JournalEntry, lines []model.LedgerLine) (model.JournalEntry, []model.LedgerLine, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ReferenceType == "" {
		entry.ReferenceType = model.ReferenceManual
	}
	stored := make([]model.LedgerLine, len(lines))

	err := WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO journal_entries (id, number, entry_date, competence_date, description, reference_type, document)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.Number, nullDate(entry.EntryDate), nullDate(entry.CompetenceDate),
			entry.Description, string(entry.ReferenceType), entry.Document)
		if err != nil {
			return fmt.Errorf("inserting entry %s: %w", entry.Number, err)
		}

		for i, l := range lines {
			if l.ID == "" {
				l.ID = uuid.NewString()
			}
			l.EntryID = entry.ID
			l.Entry = entry
			_, err := tx.ExecContext(ctx,
				`INSERT INTO ledger_lines (id, entry_id, account_id, debit, credit, description) VALUES (?, ?, ?, ?, ?, ?)`,
				l.ID, l.EntryID, nullString(l.AccountID), l.Debit.String(), l.Credit.String(), l.Description)
			if err != nil {
				return fmt.Errorf("inserting line %d of entry %s: %w", i, entry.Number, err)
			}
			stored[i] = l
		}
		return nil
	})
	if err != nil {
		return model.JournalEntry{}, nil, err
	}
	return entry, stored, nil
}

// EntryNumbers returns the entry numbers that start with prefix.
func (r *Repository) EntryNumbers(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT number FROM journal_entries WHERE number LIKE ? || '%'`, prefix)
	if err != nil {
		return nil, fmt.Errorf("querying entry numbers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning entry number: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanLine(s scanner) (model.LedgerLine, error) {
	var l model.LedgerLine
	var accountID, entryDate, competenceDate sql.NullString
	var refType string
	err := s.Scan(&l.ID, &accountID, &l.Debit, &l.Credit, &l.Description,
		&l.Entry.ID, &l.Entry.Number, &entryDate, &competenceDate,
		&l.Entry.Description, &refType, &l.Entry.Document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LedgerLine{}, err
		}
		return model.LedgerLine{}, fmt.Errorf("scanning line: %w", err)
	}

	l.AccountID = accountID.String
	l.EntryID = l.Entry.ID
	l.Entry.ReferenceType = model.ReferenceType(refType)
	if l.Entry.EntryDate, err = parseNullDate(entryDate); err != nil {
		return model.LedgerLine{}, fmt.Errorf("line %s entry_date: %w", l.ID, err)
	}
	if l.Entry.CompetenceDate, err = parseNullDate(competenceDate); err != nil {
		return model.LedgerLine{}, fmt.Errorf("line %s competence_date: %w", l.ID, err)
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return model.LedgerLine{}, fmt.Errorf("line %s has negative amount (debit %s, credit %s)", l.ID, l.Debit, l.Credit)
	}
	return l, nil
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(model.DateFormat), Valid: true}
}

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateFormat, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
