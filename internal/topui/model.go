// Package topui provides the Bubble Tea live view of the most frequent
// n-grams.
package topui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/query"
	"github.com/verte-zerg/ngram-keylogger/internal/stats"
)

const (
	tabKeys = iota
	tabBigrams
	tabTrigrams
	tabContexts
)

// DefaultRefresh is how often the view reloads from the database.
const DefaultRefresh = 5 * time.Second

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Source loads rows for the view. *query.Engine satisfies it.
type Source interface {
	KeypressesCount(ctx context.Context, opts query.Options) ([]model.Row, error)
	NGrams(ctx context.Context, patterns []string, opts query.Options) ([]model.Row, error)
}

type tickMsg time.Time

// Model implements the Bubble Tea top view.
type Model struct {
	source  Source
	opts    query.Options
	refresh time.Duration

	tabs      []string
	activeTab int
	table     table.Model
	rows      []model.Row
	errMsg    string
	updatedAt time.Time

	filterMode  bool
	filterInput textinput.Model

	width  int
	height int
}

// NewModel constructs the view. A non-positive refresh disables reloading.
func NewModel(source Source, opts query.Options, refresh time.Duration) *Model {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	m := &Model{
		source:  source,
		opts:    opts,
		refresh: refresh,
		tabs:    []string{"Keys", "Bigrams", "Trigrams", "Contexts"},
	}
	m.filterInput = textinput.New()
	m.filterInput.Prompt = "Contexts: "
	m.filterInput.Placeholder = "*"
	m.filterInput.Cursor.SetMode(cursor.CursorBlink)
	m.table = table.New(table.WithStyles(tableStyles()))
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tickMsg:
		m.reload()
		return m, m.tick()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l", "tab":
			m.moveTab(1)
			return m, nil
		case "f":
			m.opts.Fraction = !m.opts.Fraction
			m.reload()
			return m, nil
		case "c":
			m.opts.Cumulative = !m.opts.Cumulative
			m.reload()
			return m, nil
		case "b":
			m.opts.ByContext = !m.opts.ByContext
			m.reload()
			return m, nil
		case "r":
			m.reload()
			return m, nil
		case "/":
			m.filterMode = true
			m.filterInput.SetValue(m.opts.Contexts)
			return m, m.filterInput.Focus()
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.filterMode = false
		m.filterInput.Blur()
		m.opts.Contexts = strings.TrimSpace(m.filterInput.Value())
		m.reload()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	m.reload()
}

func (m *Model) load() ([]model.Row, error) {
	ctx := context.Background()
	switch m.activeTab {
	case tabContexts:
		opts := m.opts
		opts.ByContext = true
		return m.source.KeypressesCount(ctx, opts)
	default:
		patterns := make([]string, m.activeTab+1)
		for i := range patterns {
			patterns[i] = "*"
		}
		return m.source.NGrams(ctx, patterns, m.opts)
	}
}

func (m *Model) reload() {
	rows, err := m.load()
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.rows = rows
	m.updatedAt = time.Now()
	cols, tableRows := m.tableData()
	// Rows must shrink before columns so the table never indexes past a row.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(tableRows)
}

func (m *Model) tableData() ([]table.Column, []table.Row) {
	valueTitle := "Count"
	if m.opts.Fraction {
		valueTitle = "Share"
	}
	cols := []table.Column{{Title: "#", Width: 4}, {Title: valueTitle, Width: 11}}
	withContext := m.opts.ByContext || m.activeTab == tabContexts
	if withContext {
		cols = append(cols, table.Column{Title: "Context", Width: 16})
	}
	slots := 0
	if m.activeTab != tabContexts {
		slots = m.activeTab + 1
	}
	for i := 0; i < slots; i++ {
		cols = append(cols, table.Column{Title: fmt.Sprintf("A%d", i+1), Width: 12})
	}
	rows := make([]table.Row, 0, len(m.rows))
	for i, r := range m.rows {
		row := table.Row{fmt.Sprintf("%d", i+1), stats.FormatValue(r, m.opts.Fraction)}
		if withContext {
			row = append(row, r.Context)
		}
		for j := 0; j < slots; j++ {
			cell := ""
			if j < len(r.Slots) {
				cell = r.Slots[j]
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return cols, rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = lipgloss.Height(activeNavStyle.Render("X")) + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(1, bodyHeight-1))
	m.filterInput.Width = max(10, m.width-lipgloss.Width(m.filterInput.Prompt)-2)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderTabs()+"\n"+m.renderSummary(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderSummary() string {
	contexts := m.opts.Contexts
	if contexts == "" {
		contexts = "*"
	}
	updated := "never"
	if !m.updatedAt.IsZero() {
		updated = m.updatedAt.Format("15:04:05")
	}
	summary := fmt.Sprintf("contexts=%s  fraction=%t  cumulative=%t  by-context=%t  updated=%s",
		contexts, m.opts.Fraction, m.opts.Cumulative, m.opts.ByContext, updated)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody() string {
	if m.filterMode {
		return m.filterInput.View()
	}
	if len(m.rows) == 0 {
		return "No statistics recorded yet."
	}
	return tableMutedStyle.Render(m.table.View())
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Scroll: up/down  Fraction: f  Cumulative: c  By context: b  Contexts: /  Reload: r  Quit: q"
	if m.filterMode {
		help = "enter: apply  esc: cancel"
	}
	help = headerStyle.Render(truncateLine(help, m.width))
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return help
}

// fitLines clips or pads s to exactly height lines of width cells.
func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	blank := strings.Repeat(" ", width)
	out := make([]string, height)
	lines := strings.Split(s, "\n")
	for i := range out {
		if i >= len(lines) {
			out[i] = blank
			continue
		}
		if pad := width - lipgloss.Width(lines[i]); pad > 0 {
			out[i] = lines[i] + blank[:pad]
		} else {
			out[i] = lines[i]
		}
	}
	return strings.Join(out, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
