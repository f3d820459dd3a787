// Package id formats and parses journal entry numbers of the form YYYY-MM-NNN.
package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatEntryNumber returns an entry number like "2025-01-001".
func FormatEntryNumber(year, month, seq int) string {
	return fmt.Sprintf("%s-%03d", MonthPrefix(year, month), seq)
}

// MonthPrefix returns the prefix shared by all entry numbers of a month: "2025-01".
func MonthPrefix(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParseEntryNumber parses "2025-01-001" into year, month, seq.
func ParseEntryNumber(number string) (year, month, seq int, err error) {
	parts := strings.SplitN(number, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid entry number format: %q", number)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in entry number %q: %w", number, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in entry number %q: %w", number, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("month %d out of range in entry number %q", month, number)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in entry number %q: %w", number, err)
	}

	return year, month, seq, nil
}

// NextSeq returns one past the highest sequence among existing numbers of
// the given month. Numbers that do not parse or belong to another month are
// ignored.
func NextSeq(existing []string, year, month int) int {
	maxSeq := 0
	for _, n := range existing {
		y, m, seq, err := ParseEntryNumber(n)
		if err != nil || y != year || m != month {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1
}

// Sequencer hands out consecutive entry numbers per month, starting after
// the numbers it was seeded with.
type Sequencer struct {
	next map[string]int
}

// NewSequencer creates an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{next: make(map[string]int)}
}

// Seeded reports whether the month of d already has a starting point.
func (s *Sequencer) Seeded(d time.Time) bool {
	_, ok := s.next[MonthPrefix(d.Year(), int(d.Month()))]
	return ok
}

// Seed sets the starting point for the month of d from existing numbers.
func (s *Sequencer) Seed(d time.Time, existing []string) {
	s.next[MonthPrefix(d.Year(), int(d.Month()))] = NextSeq(existing, d.Year(), int(d.Month()))
}

// Next returns the next number for the month of d.
func (s *Sequencer) Next(d time.Time) string {
	key := MonthPrefix(d.Year(), int(d.Month()))
	seq, ok := s.next[key]
	if !ok {
		seq = 1
	}
	s.next[key] = seq + 1
	return FormatEntryNumber(d.Year(), int(d.Month()), seq)
}
