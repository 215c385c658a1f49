// Package output renders tables and status lines for the terminal.
package output

import (
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// RenderTable writes rows under header as a borderless, left-aligned table.
func RenderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// Failure prints a user-facing failure message in red.
func Failure(w io.Writer, msg string) {
	color.New(color.FgRed, color.Bold).Fprintln(w, msg)
}

// Success prints a confirmation line in green.
func Success(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, format+"\n", args...)
}

// Approval colors an approval label: green when approved, red when rejected.
func Approval(label string) string {
	switch label {
	case "Approved":
		return color.GreenString(label)
	case "Rejected":
		return color.RedString(label)
	default:
		return color.YellowString(label)
	}
}

// Plain disables colors, for non-terminal output.
func Plain() {
	color.NoColor = true
}
