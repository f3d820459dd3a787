// Package audit keeps an append-only CSV trail of reclassifications.
package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/model"
)

// Entry records one reclassified ledger line: where it moved, what it
// carried and the target account's closing balance around the move.
type Entry struct {
	Timestamp   time.Time
	Actor       string
	Action      string
	LineID      string
	FromAccount string // account code; empty when the line had no account
	ToAccount   string
	EntryNumber string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Period      model.Period // window the balances were computed over
	ToBefore    decimal.Decimal
	ToAfter     decimal.Decimal
}

// Header is the CSV header of the audit log.
const Header = "timestamp,actor,action,line_id,from_account,to_account,entry_number,debit,credit,period_start,period_end,to_closing_before,to_closing_after"

// ActionReclassify marks a line moved between accounts.
const ActionReclassify = "reclassify"

const (
	numFields      = 13
	colTimestamp   = 0
	colActor       = 1
	colAction      = 2
	colLineID      = 3
	colFromAccount = 4
	colToAccount   = 5
	colEntryNumber = 6
	colDebit       = 7
	colCredit      = 8
	colPeriodStart = 9
	colPeriodEnd   = 10
	colToBefore    = 11
	colToAfter     = 12
)

// MarshalEntry converts an Entry to a CSV row. An open side of the period
// is written empty.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = e.Actor
	row[colAction] = e.Action
	row[colLineID] = e.LineID
	row[colFromAccount] = e.FromAccount
	row[colToAccount] = e.ToAccount
	row[colEntryNumber] = e.EntryNumber
	row[colDebit] = e.Debit.StringFixed(2)
	row[colCredit] = e.Credit.StringFixed(2)
	row[colPeriodStart] = formatDate(e.Period.Start)
	row[colPeriodEnd] = formatDate(e.Period.End)
	row[colToBefore] = e.ToBefore.StringFixed(2)
	row[colToAfter] = e.ToAfter.StringFixed(2)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	period, err := model.ParsePeriod(record[colPeriodStart], record[colPeriodEnd])
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Timestamp:   ts,
		Actor:       record[colActor],
		Action:      record[colAction],
		LineID:      record[colLineID],
		FromAccount: record[colFromAccount],
		ToAccount:   record[colToAccount],
		EntryNumber: record[colEntryNumber],
		Period:      period,
	}
	amounts := []struct {
		col  int
		name string
		dst  *decimal.Decimal
	}{
		{colDebit, "debit", &e.Debit},
		{colCredit, "credit", &e.Credit},
		{colToBefore, "to_closing_before", &e.ToBefore},
		{colToAfter, "to_closing_after", &e.ToAfter},
	}
	for _, a := range amounts {
		if *a.dst, err = decimal.NewFromString(record[a.col]); err != nil {
			return Entry{}, fmt.Errorf("parsing %s %q: %w", a.name, record[a.col], err)
		}
	}
	return e, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateFormat)
}

// Log appends entries to one CSV file. It is safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	path string
}

// NewLog returns a Log writing to path. The file is created on first append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes entries, creating the file and header if needed.
func (l *Log) Append(entries ...Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating audit log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(l.path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries. A missing file yields no entries.
func (l *Log) Read() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
