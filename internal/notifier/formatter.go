package notifier

import (
	"fmt"
	"html"
	"strings"

	"GrowthWatch/internal/calculator"
	"GrowthWatch/internal/model"
)

// formatGrowth renders a cell as a signed percentage or n/a.
func formatGrowth(c model.Cell) string {
	if !c.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", c.Growth)
}

// FormatGrowthTable formats a growth table as a monospace Telegram message,
// one line per ticker and one column per period.
func FormatGrowthTable(title string, t *model.GrowthTable) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | %s\n\n", html.EscapeString(title), t.Reference.Format(model.DateFormat)))
	if len(t.Tickers) == 0 || len(t.Rows) == 0 {
		b.WriteString("(no tickers)\n")
		return b.String()
	}

	width := len("Ticker")
	for _, ticker := range t.Tickers {
		if len(ticker) > width {
			width = len(ticker)
		}
	}

	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-*s", width, "Ticker"))
	for _, r := range t.Rows {
		b.WriteString(fmt.Sprintf(" %8s", r.Period.Name))
	}
	b.WriteString("\n")
	for ci, ticker := range t.Tickers {
		b.WriteString(fmt.Sprintf("%-*s", width, html.EscapeString(ticker)))
		for _, r := range t.Rows {
			b.WriteString(fmt.Sprintf(" %8s", formatGrowth(r.Cells[ci])))
		}
		b.WriteString("\n")
	}
	b.WriteString("</pre>")
	return b.String()
}

// FormatSummary formats per-period statistics across tickers.
func FormatSummary(sums []calculator.PeriodSummary) string {
	var b strings.Builder
	b.WriteString("📊 <b>Summary</b>\n")
	for _, s := range sums {
		if s.Count == 0 {
			b.WriteString(fmt.Sprintf("%s: no data\n", s.Period.Name))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: avg %+.1f%% ±%.1f | best %s %s | worst %s %s\n",
			s.Period.Name, s.Mean, s.StdDev,
			html.EscapeString(s.Best.Ticker), formatGrowth(s.Best),
			html.EscapeString(s.Worst.Ticker), formatGrowth(s.Worst)))
	}
	return b.String()
}

// FormatUndefined lists the reasons of undefined cells, one line per ticker and period.
func FormatUndefined(t *model.GrowthTable) string {
	var b strings.Builder
	for _, r := range t.Rows {
		for _, c := range r.Cells {
			if c.Defined {
				continue
			}
			b.WriteString(fmt.Sprintf("• %s %s: %s\n", html.EscapeString(c.Ticker), r.Period.Name, html.EscapeString(c.Reason)))
		}
	}
	return b.String()
}

// DividendLine is one ticker of a dividend yield report.
type DividendLine struct {
	Ticker string
	Yield  float64
	Err    error
}

// FormatDividendYields formats trailing twelve month dividend yields.
func FormatDividendYields(lines []DividendLine) string {
	var b strings.Builder
	b.WriteString("💵 <b>Dividend yield (TTM)</b>\n")
	for _, l := range lines {
		if l.Err != nil {
			b.WriteString(fmt.Sprintf("%s: n/a (%s)\n", html.EscapeString(l.Ticker), html.EscapeString(l.Err.Error())))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %.2f%%\n", html.EscapeString(l.Ticker), l.Yield))
	}
	return b.String()
}
