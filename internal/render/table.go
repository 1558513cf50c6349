package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"LevelSentinel/internal/model"
)

// WriteTable prints the report header followed by one row per level.
func WriteTable(w io.Writer, report *model.Report) error {
	if report == nil {
		return fmt.Errorf("render table: nil report")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Symbol:\t%s\n", report.Symbol)
	fmt.Fprintf(tw, "Interval:\t%s\n", report.Interval)
	if !report.Start.IsZero() || !report.End.IsZero() {
		fmt.Fprintf(tw, "Range:\t%s - %s\n", report.Start.Format("2006-01-02"), report.End.Format("2006-01-02"))
	}
	fmt.Fprintf(tw, "Params:\t%s\n", paramsLine(report))
	if report.Series != nil {
		fmt.Fprintf(tw, "Bars:\t%d\n", report.Series.Len())
	}
	fmt.Fprintln(tw)

	var supports, resistances []model.Level
	if report.Levels != nil {
		supports, resistances = report.Levels.Supports, report.Levels.Resistances
	}
	writeLevels(tw, model.Support, supports)
	fmt.Fprintln(tw)
	writeLevels(tw, model.Resistance, resistances)

	return tw.Flush()
}

func writeLevels(tw *tabwriter.Writer, role model.Role, levels []model.Level) {
	if len(levels) == 0 {
		fmt.Fprintf(tw, "no %ss found\n", role)
		return
	}
	fmt.Fprintf(tw, "%s\tTIME\tPRICE\n", role)
	for i, lv := range levels {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\n", i+1, lv.Time.Format("2006-01-02 15:04"), lv.Price)
	}
}
