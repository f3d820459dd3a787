package model

import "errors"

// ErrNotFound is returned by stores when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// LineQuery selects one page of ledger lines.
type LineQuery struct {
	Period        Period
	AccountIDs    []string      // empty means all accounts
	ReferenceType ReferenceType // empty means any
	Offset        int
	Limit         int
}
