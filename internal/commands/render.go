package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/balancete/internal/model"
)

var (
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	amountStyle = cellStyle.Align(lipgloss.Right)
	headerStyle = cellStyle.Bold(true)
)

// newTable builds a bordered table. Columns listed in amountCols are right-aligned.
func newTable(headers []string, amountCols ...int) *table.Table {
	right := make(map[int]bool, len(amountCols))
	for _, c := range amountCols {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return amountStyle
			default:
				return cellStyle
			}
		})
}

func printTable(w io.Writer, t *table.Table) {
	fmt.Fprintln(w, t.String())
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func indent(name string, depth int) string {
	return strings.Repeat("  ", depth) + name
}

func formatPeriod(p model.Period) string {
	switch {
	case p.Start.IsZero() && p.End.IsZero():
		return "all dates"
	case p.Start.IsZero():
		return "up to " + p.End.Format(model.DateFormat)
	case p.End.IsZero():
		return "from " + p.Start.Format(model.DateFormat)
	default:
		return p.Start.Format(model.DateFormat) + " to " + p.End.Format(model.DateFormat)
	}
}
