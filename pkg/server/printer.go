package server

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"FinRatio/internal/domain/models"
)

// PrintReport writes every table of r as aligned text columns.
func PrintReport(w io.Writer, r *models.Report) error {
	for i, t := range r.Tables() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := printTable(w, t); err != nil {
			return err
		}
	}
	if len(r.Errors) > 0 {
		if _, err := fmt.Fprintln(w, "\nFetch errors"); err != nil {
			return err
		}
		for _, e := range r.Errors {
			if _, err := fmt.Fprintf(w, "  %s (%s): %s\n", e.Ticker, e.Group, e.Error); err != nil {
				return err
			}
		}
	}
	return nil
}

func printTable(w io.Writer, t models.Table) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n", t.Title, strings.Repeat("=", len(t.Title))); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t")+"\t")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, f := range row {
			cells[i] = f.Display()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}
