// Package reclass moves a ledger line to another account and reports the
// balances of both accounts before and after the move.
package reclass

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/balancete/internal/audit"
	"github.com/cleared-dev/balancete/internal/chart"
	"github.com/cleared-dev/balancete/internal/model"
)

// ErrLineNotFound is returned when the line to move does not exist.
var ErrLineNotFound = fmt.Errorf("line %w", model.ErrNotFound)

// ValidationError rejects a reclassification before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// LineStore reads and moves ledger lines.
type LineStore interface {
	GetLine(ctx context.Context, id string) (model.LedgerLine, error)
	UpdateLineAccount(ctx context.Context, lineID, accountID string) error
}

// BalanceComputer recomputes the balances of selected accounts.
// *balance.Aggregator implements it.
type BalanceComputer interface {
	ComputeAccounts(ctx context.Context, period model.Period, ids ...string) (map[string]model.AccountBalance, error)
}

// BalanceChange is the balance of one account around a reclassification.
type BalanceChange struct {
	Before model.AccountBalance
	After  model.AccountBalance
}

// Result reports a completed reclassification.
type Result struct {
	LineID string
	From   BalanceChange // the account the line left; zero when it had none in the active chart
	To     BalanceChange
}

// Options configures a Service.
type Options struct {
	// Audit receives one record per reclassification when set.
	Audit *audit.Log
	// Actor names who reclassifies in audit records.
	Actor string
	// Now stamps audit records; nil selects time.Now.
	Now func() time.Time
}

// Service validates and applies reclassifications.
type Service struct {
	lines    LineStore
	accounts chart.Source
	balances BalanceComputer
	opts     Options
	log      zerolog.Logger
}

// NewService creates a reclassification Service.
func NewService(lines LineStore, accounts chart.Source, balances BalanceComputer, opts Options, log zerolog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Actor == "" {
		opts.Actor = "system"
	}
	return &Service{
		lines:    lines,
		accounts: accounts,
		balances: balances,
		opts:     opts,
		log:      log.With().Str("component", "reclass").Logger(),
	}
}

// Reclassify moves line lineID to newAccountID. The target must exist, be
// active and analytical and differ from the current account. Balances of
// both accounts over period are computed before and after the move.
func (s *Service) Reclassify(ctx context.Context, lineID, newAccountID string, period model.Period) (*Result, error) {
	line, err := s.lines.GetLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("reclassifying %s: %w", lineID, ErrLineNotFound)
		}
		return nil, fmt.Errorf("reclassifying %s: %w", lineID, err)
	}

	names, err := chart.Load(ctx, s.accounts)
	if err != nil {
		return nil, err
	}
	target, err := validateTarget(names, line, newAccountID)
	if err != nil {
		return nil, err
	}

	// The previous account takes part only while it is in the active chart.
	tree := names.Tree()
	ids := []string{target.ID}
	if _, ok := tree.ByID(line.AccountID); ok {
		ids = append(ids, line.AccountID)
	}

	before, err := s.balances.ComputeAccounts(ctx, period, ids...)
	if err != nil {
		return nil, fmt.Errorf("balances before reclassifying %s: %w", lineID, err)
	}

	if err := s.lines.UpdateLineAccount(ctx, lineID, target.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("reclassifying %s: %w", lineID, ErrLineNotFound)
		}
		return nil, fmt.Errorf("reclassifying %s: %w", lineID, err)
	}

	after, err := s.balances.ComputeAccounts(ctx, period, ids...)
	if err != nil {
		return nil, fmt.Errorf("balances after reclassifying %s: %w", lineID, err)
	}

	result := &Result{
		LineID: lineID,
		To:     BalanceChange{Before: before[target.ID], After: after[target.ID]},
	}
	if len(ids) > 1 {
		result.From = BalanceChange{Before: before[line.AccountID], After: after[line.AccountID]}
	}

	s.log.Info().
		Str("line_id", lineID).
		Str("from", line.AccountID).
		Str("to", target.ID).
		Msg("Reclassified ledger line")

	if s.opts.Audit != nil {
		from := line.AccountID
		if prev, ok := names.Get(line.AccountID); ok {
			from = prev.Code
		}
		err := s.opts.Audit.Append(audit.Entry{
			Timestamp:   s.opts.Now(),
			Actor:       s.opts.Actor,
			Action:      audit.ActionReclassify,
			LineID:      lineID,
			FromAccount: from,
			ToAccount:   target.Code,
			EntryNumber: line.Entry.Number,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Period:      period,
			ToBefore:    result.To.Before.ClosingBalance,
			ToAfter:     result.To.After.ClosingBalance,
		})
		if err != nil {
			// The move is already stored, so the error is only logged.
			s.log.Error().Err(err).Str("line_id", lineID).Msg("Failed to append audit record")
		}
	}

	return result, nil
}

func validateTarget(names *chart.Service, line model.LedgerLine, accountID string) (model.Account, error) {
	if accountID == "" {
		return model.Account{}, &ValidationError{Field: "account_id", Reason: "is required"}
	}
	acct, ok := names.Get(accountID)
	switch {
	case !ok:
		return model.Account{}, &ValidationError{Field: "account_id", Reason: fmt.Sprintf("account %s does not exist", accountID)}
	case !acct.IsActive:
		return model.Account{}, &ValidationError{Field: "account_id", Reason: fmt.Sprintf("account %s is inactive", acct.Code)}
	case acct.IsSynthetic:
		return model.Account{}, &ValidationError{Field: "account_id", Reason: fmt.Sprintf("account %s is synthetic", acct.Code)}
	case acct.ID == line.AccountID:
		return model.Account{}, &ValidationError{Field: "account_id", Reason: fmt.Sprintf("line already posts to %s", acct.Code)}
	}
	return acct, nil
}
