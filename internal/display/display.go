// Package display contains terminal formatting logic for CLI commands.
//
// Commands should keep RPC calls and decoding separate from rendering concerns by
// delegating all human-readable output to formatters in this package.
package display

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc()
)

// Formatter writes formatted output to a writer.
type Formatter interface {
	Format(w io.Writer) error
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(w io.Writer) error

func (f FormatterFunc) Format(w io.Writer) error { return f(w) }

// newTable returns a table writing to w with the shared header style.
func newTable(w io.Writer, columns ...interface{}) table.Table {
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	return table.New(columns...).WithHeaderFormatter(headerFmt).WithWriter(w)
}

// field writes one "name: value" line with the name padded to a column.
func field(w io.Writer, name string, value interface{}) {
	fmt.Fprintf(w, "%-22s %v\n", name+":", value)
}

func ColorLatency(d time.Duration) string {
	ms := d.Milliseconds()
	switch {
	case ms < 100:
		return Green(fmt.Sprintf("%dms", ms))
	case ms < 300:
		return Yellow(fmt.Sprintf("%dms", ms))
	default:
		return Red(fmt.Sprintf("%dms", ms))
	}
}

func ColorSuccessRate(pct float64) string {
	str := fmt.Sprintf("%.0f%%", pct)
	switch {
	case pct >= 99.9:
		return Green(str)
	case pct >= 80:
		return Yellow(str)
	default:
		return Red(str)
	}
}

// ColorSlotLag renders how many slots an endpoint trails the best one.
func ColorSlotLag(lag uint64) string {
	switch {
	case lag == 0:
		return Dim("-")
	case lag <= 10:
		return Yellow(fmt.Sprintf("-%d", lag))
	default:
		return Red(fmt.Sprintf("-%d", lag))
	}
}

// Lamports formats an amount in SOL with nine decimals.
func Lamports(l uint64) string {
	return fmt.Sprintf("%d.%09d SOL", l/1_000_000_000, l%1_000_000_000)
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
