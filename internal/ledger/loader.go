// Package ledger loads journal lines for a date window from a paginated store.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/balancete/internal/model"
)

// DefaultPageSize is the number of lines requested per page.
const DefaultPageSize = 1000

// LinePager returns one page of lines. Implementations must order pages
// stably so that consecutive offsets neither overlap nor skip rows, and must
// apply the period rule of model.Period.ContainsLine.
type LinePager interface {
	FetchLines(ctx context.Context, q model.LineQuery) ([]model.LedgerLine, error)
}

// Filter narrows a load beyond the date window.
type Filter struct {
	AccountIDs    []string
	ReferenceType model.ReferenceType
}

// Loader fetches every line touching a window, paging past the store's
// per-request cap.
type Loader struct {
	pager    LinePager
	pageSize int
	log      zerolog.Logger
}

// NewLoader creates a Loader. A non-positive pageSize selects DefaultPageSize.
func NewLoader(pager LinePager, pageSize int, log zerolog.Logger) *Loader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Loader{
		pager:    pager,
		pageSize: pageSize,
		log:      log.With().Str("component", "line_loader").Logger(),
	}
}

// PageSize returns the window size used per request.
func (l *Loader) PageSize() int {
	return l.pageSize
}

// Load returns all lines in period matching filter. It keeps requesting pages
// until one comes back shorter than the page size. If any page fails, nothing
// is returned: a partial set is never passed off as complete.
func (l *Loader) Load(ctx context.Context, period model.Period, filter Filter) ([]model.LedgerLine, error) {
	q := model.LineQuery{
		Period:        period,
		AccountIDs:    filter.AccountIDs,
		ReferenceType: filter.ReferenceType,
		Limit:         l.pageSize,
	}

	lines := []model.LedgerLine{}
	pages := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("loading lines for %s: %w", period, err)
		}

		page, err := l.pager.FetchLines(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("loading lines for %s at offset %d: %w", period, q.Offset, err)
		}
		if len(page) > l.pageSize {
			return nil, fmt.Errorf("loading lines for %s: page at offset %d has %d rows, limit is %d",
				period, q.Offset, len(page), l.pageSize)
		}
		pages++
		lines = append(lines, page...)

		if len(page) < l.pageSize {
			break
		}
		q.Offset += len(page)
	}

	l.log.Debug().
		Str("period", period.String()).
		Int("pages", pages).
		Int("lines", len(lines)).
		Msg("Loaded ledger lines")
	return lines, nil
}

// LoadOpening returns the lines of opening-balance entries dated on or before
// asOf, including undated ones. A zero asOf returns all of them.
func (l *Loader) LoadOpening(ctx context.Context, asOf time.Time, filter Filter) ([]model.LedgerLine, error) {
	return l.Load(ctx, model.Period{End: asOf}, filter)
}
