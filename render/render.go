// Package render writes field usage reports to the console and to files.
package render

import (
	"fmt"
	"github.com/fatih/color"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"io"
	"strings"
)

var (
	bold   = color.New(color.Bold)
	header = color.New(color.Bold, color.Underline)
)

// MAX_LISTED is the number of index or file names listed before the list is elided.
const MAX_LISTED int = 3

// FormatDelimiter pads ":" and "=" delimiters for readability. Any other delimiter is returned as is.
func FormatDelimiter(d string) string {

	switch d {
	case ":":
		return ": "
	case "=":
		return " = "
	default:
		return d
	}
}

// WriteLines writes one line per field in result to wr: the field name, optionally followed by the
// (formatted) delimiter and the count.
func WriteLines(wr io.Writer, result fieldusage.Result, show_counts bool, delimiter string) error {

	d := FormatDelimiter(delimiter)

	for _, fc := range result {

		var err error

		if show_counts {
			_, err = fmt.Fprintf(wr, "%s%s%d\n", fc.Field, d, fc.Count)
		} else {
			_, err = fmt.Fprintf(wr, "%s\n", fc.Field)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// WriteHeader writes msg as a section header, preceded by an empty line. Nothing is written if
// show is false.
func WriteHeader(wr io.Writer, msg string, show bool) {

	if !show {
		return
	}

	fmt.Fprintln(wr)
	header.Fprint(wr, msg)
	fmt.Fprintln(wr)
}

// WriteSummary writes the summary block for report.
func WriteSummary(wr io.Writer, pattern string, report *fieldusage.Report) {

	WriteHeader(wr, "Summary Report", true)

	fmt.Fprint(wr, "\nSearch Pattern: ")
	bold.Fprintln(wr, pattern)

	if len(report.Indices) == 1 {
		fmt.Fprint(wr, "Index Found: ")
		bold.Fprintln(wr, report.Indices[0])
	} else {

		bold.Fprintf(wr, "%d ", len(report.Indices))
		fmt.Fprint(wr, "Indices Found: ")

		if len(report.Indices) > MAX_LISTED {
			bold.Fprintln(wr, "(data too big)")
		} else {
			bold.Fprintln(wr, formatList(report.Indices))
		}
	}

	fmt.Fprint(wr, "Total Fields Found: ")
	bold.Fprintln(wr, report.FieldCount)

	fmt.Fprint(wr, "Accessed Fields: ")
	bold.Fprintln(wr, len(report.Accessed))

	fmt.Fprint(wr, "Unaccessed Fields: ")
	bold.Fprintln(wr, len(report.Unaccessed))
}

// WriteIndices writes the sorted index names matching pattern.
func WriteIndices(wr io.Writer, pattern string, indices []string) {

	fmt.Fprintln(wr)
	header.Fprint(wr, "Search Pattern")
	bold.Fprintf(wr, ": %s\n", pattern)

	fmt.Fprintln(wr)

	if len(indices) == 1 {
		header.Fprint(wr, "Index Found")
		bold.Fprintf(wr, ": %s\n", indices[0])
		return
	}

	header.Fprintf(wr, "%d Indices Found", len(indices))
	fmt.Fprintln(wr, ": ")

	for _, idx := range indices {
		fmt.Fprintln(wr, idx)
	}
}

func formatList(items []string) string {
	return fmt.Sprintf("[%s]", strings.Join(items, ", "))
}
