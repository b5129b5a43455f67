package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
)

// Format selects how rows are written.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatBar   Format = "bar"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTable, FormatBar, FormatJSON, FormatYAML}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %v)", name, Formats)
}

// Options configure rendering.
type Options struct {
	Format Format
	// Fractional marks values as fractions to be shown as percentages.
	Fractional bool
	// ForceColor styles output even when w is not a terminal.
	ForceColor bool
}

const (
	terminalWidthBackup = 80
	barRune             = "█"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

// NoRows is printed by the text formats when a query matches nothing.
const NoRows = "nothing"

// Render writes rows to w.
func Render(w io.Writer, rows []model.Row, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nonNil(rows))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(nonNil(rows)); err != nil {
			return err
		}
		return enc.Close()
	case FormatBar, FormatTable, "":
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, NoRows)
			return err
		}
		if opts.Format == FormatBar {
			return writeLines(w, formatBars(rows, opts, outputWidth(w)), opts, false)
		}
		headers, cells, rightAlign := tableCells(rows, opts)
		return writeLines(w, formatTable(headers, cells, rightAlign), opts, len(headers) > 0)
	}
	return fmt.Errorf("unknown format %q", opts.Format)
}

func nonNil(rows []model.Row) []model.Row {
	if rows == nil {
		return []model.Row{}
	}
	return rows
}

func writeLines(w io.Writer, lines []string, opts Options, header bool) error {
	color := shouldUseColor(w, opts.ForceColor)
	width := 0
	if isTerminal(w) {
		width = outputWidth(w)
	}
	for i, line := range lines {
		if width > 0 {
			line = runewidth.Truncate(line, width, "…")
		}
		if header && i == 0 && color {
			line = headerStyle.Render(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatValue prints a count as an integer and a fraction as a percentage.
func FormatValue(row model.Row, fractional bool) string {
	if fractional {
		return fmt.Sprintf("%.6f%%", row.Value*100)
	}
	return strconv.FormatInt(int64(math.Round(row.Value)), 10)
}

func tableCells(rows []model.Row, opts Options) ([]string, [][]string, map[int]bool) {
	slots := 0
	withContext := false
	for _, r := range rows {
		slots = max(slots, len(r.Slots))
		withContext = withContext || r.Context != ""
	}
	headers := []string{"value"}
	if withContext {
		headers = append(headers, "context")
	}
	for i := 0; i < slots; i++ {
		headers = append(headers, fmt.Sprintf("a%d", i+1))
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		row := []string{FormatValue(r, opts.Fractional)}
		if withContext {
			row = append(row, r.Context)
		}
		row = append(row, r.Slots...)
		cells[i] = row
	}
	return headers, cells, map[int]bool{0: true}
}

// Label joins the context and slots of a row for display.
func Label(r model.Row) string {
	parts := append([]string(nil), r.Slots...)
	label := strings.Join(parts, " ")
	if r.Context != "" {
		if label == "" {
			return r.Context
		}
		return r.Context + ": " + label
	}
	return label
}

func formatBars(rows []model.Row, opts Options, width int) []string {
	if len(rows) == 0 {
		return nil
	}
	labels := make([]string, len(rows))
	values := make([]string, len(rows))
	labelWidth, valueWidth := 0, 0
	peak := 0.0
	for i, r := range rows {
		labels[i] = Label(r)
		values[i] = FormatValue(r, opts.Fractional)
		labelWidth = max(labelWidth, displayWidth(labels[i]))
		valueWidth = max(valueWidth, displayWidth(values[i]))
		peak = math.Max(peak, r.Value)
	}
	barWidth := max(width-labelWidth-valueWidth-4, 1)
	lines := make([]string, len(rows))
	for i, r := range rows {
		n := 0
		if peak > 0 {
			n = int(math.Round(r.Value / peak * float64(barWidth)))
		}
		lines[i] = padCell(labels[i], labelWidth, false) + "  " +
			padCell(values[i], valueWidth, true) + "  " +
			strings.Repeat(barRune, n)
	}
	return lines
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func outputWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok {
		return terminalWidthBackup
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	return isTerminal(w)
}
