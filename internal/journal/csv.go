package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/model"
)

// Header is the CSV header of a journal import file. Rows sharing an entry
// key form one entry; the key only groups rows and is not stored.
const Header = "entry,date,competence_date,account_code,description,debit,credit,reference_type,document"

const (
	numFields     = 9
	colEntry      = 0
	colDate       = 1
	colCompetence = 2
	colAcctCode   = 3
	colDesc       = 4
	colDebit      = 5
	colCredit     = 6
	colRefType    = 7
	colDocument   = 8
)

// Row is one line of a journal import file.
type Row struct {
	Entry          string
	Date           *time.Time
	CompetenceDate *time.Time
	AccountCode    string // empty on opening-balance rows matched by description
	Description    string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	ReferenceType  model.ReferenceType
	Document       string
}

// ReadRows reads all rows from a journal CSV reader, skipping the header.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes rows to a journal CSV writer, including the header.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(row Row) []string {
	rec := make([]string, numFields)
	rec[colEntry] = row.Entry
	rec[colDate] = formatDate(row.Date)
	rec[colCompetence] = formatDate(row.CompetenceDate)
	rec[colAcctCode] = row.AccountCode
	rec[colDesc] = row.Description

	if !row.Debit.IsZero() {
		rec[colDebit] = row.Debit.StringFixed(2)
	}
	if !row.Credit.IsZero() {
		rec[colCredit] = row.Credit.StringFixed(2)
	}

	rec[colRefType] = string(row.ReferenceType)
	rec[colDocument] = row.Document
	return rec
}

// UnmarshalRow converts a CSV record to a Row. Empty amounts read as zero
// and an empty reference type as manual.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	entry := strings.TrimSpace(record[colEntry])
	if entry == "" {
		return Row{}, fmt.Errorf("empty entry key")
	}

	date, err := parseDate(record[colDate])
	if err != nil {
		return Row{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	competence, err := parseDate(record[colCompetence])
	if err != nil {
		return Row{}, fmt.Errorf("parsing competence_date %q: %w", record[colCompetence], err)
	}

	debit, err := parseAmount(record[colDebit])
	if err != nil {
		return Row{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
	}
	credit, err := parseAmount(record[colCredit])
	if err != nil {
		return Row{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
	}

	refType := model.ReferenceType(strings.TrimSpace(record[colRefType]))
	if refType == "" {
		refType = model.ReferenceManual
	}

	return Row{
		Entry:          entry,
		Date:           date,
		CompetenceDate: competence,
		AccountCode:    strings.TrimSpace(record[colAcctCode]),
		Description:    record[colDesc],
		Debit:          debit,
		Credit:         credit,
		ReferenceType:  refType,
		Document:       record[colDocument],
	}, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(model.DateFormat)
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
