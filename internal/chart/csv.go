package chart

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/balancete/internal/model"
)

// Header is the CSV header for chart-of-accounts.csv.
const Header = "account_id,code,name,type,nature,synthetic,active"

const (
	numFields    = 7
	colID        = 0
	colCode      = 1
	colName      = 2
	colType      = 3
	colNature    = 4
	colSynthetic = 5
	colActive    = 6
)

// ReadAccounts reads chart-of-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colNature] = string(acct.Nature)
	row[colSynthetic] = strconv.FormatBool(acct.IsSynthetic)
	row[colActive] = strconv.FormatBool(acct.IsActive)
	return row
}

// UnmarshalAccount converts a CSV row to an Account. An empty nature is
// resolved from the type; an empty active flag means active.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	code := strings.TrimSpace(record[colCode])
	if code == "" {
		return model.Account{}, fmt.Errorf("empty code")
	}

	typ := model.AccountType(strings.ToUpper(strings.TrimSpace(record[colType])))
	defaultNature, ok := model.NatureOf(typ)
	if !ok {
		return model.Account{}, fmt.Errorf("unknown account type %q", record[colType])
	}

	nature := defaultNature
	if v := strings.TrimSpace(record[colNature]); v != "" {
		nature = model.Nature(strings.ToUpper(v))
		if !nature.Valid() {
			return model.Account{}, fmt.Errorf("unknown nature %q", record[colNature])
		}
	}

	synthetic, err := parseBool(record[colSynthetic], false)
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing synthetic %q: %w", record[colSynthetic], err)
	}
	active, err := parseBool(record[colActive], true)
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing active %q: %w", record[colActive], err)
	}

	return model.Account{
		ID:          strings.TrimSpace(record[colID]),
		Code:        code,
		Name:        strings.TrimSpace(record[colName]),
		Type:        typ,
		Nature:      nature,
		IsSynthetic: synthetic,
		IsActive:    active,
	}, nil
}

func parseBool(s string, def bool) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.ParseBool(s)
}
