package notifier

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"GrowthWatch/internal/model"
)

// WriteGrowthCSV writes t with one row per period and one column per ticker.
// Undefined cells are left empty.
func WriteGrowthCSV(w io.Writer, t *model.GrowthTable) error {
	cw := csv.NewWriter(w)
	header := append([]string{"period"}, t.Tickers...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := make([]string, 0, len(r.Cells)+1)
		rec = append(rec, r.Period.Name)
		for _, c := range r.Cells {
			if !c.Defined {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(c.Growth, 'f', 4, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGrowthText writes t as an aligned plain-text table laid out like the
// CSV, with n/a for undefined cells.
func WriteGrowthText(w io.Writer, t *model.GrowthTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t", t.Reference.Format(model.DateFormat))
	for _, ticker := range t.Tickers {
		fmt.Fprintf(tw, "%s\t", ticker)
	}
	fmt.Fprintln(tw)
	for _, r := range t.Rows {
		fmt.Fprintf(tw, "%s\t", r.Period.Name)
		for _, c := range r.Cells {
			if !c.Defined {
				fmt.Fprint(tw, "n/a\t")
				continue
			}
			fmt.Fprintf(tw, "%.2f\t", c.Growth)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
