// Package tui is a terminal table browser over a local pipeline.
//
// The search box keeps its draft as it is typed and commits on Enter, on
// Esc (leaving the box) or when it is cleared, exactly like the web table.
package tui

import (
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

const maxColWidth = 24

// PageSizes are the limits + and - step through.
var PageSizes = []int{5, 10, 25, 50, 100}

type keyMap struct {
	Search    key.Binding
	Commit    key.Binding
	Blur      key.Binding
	Left      key.Binding
	Right     key.Binding
	Sort      key.Binding
	Next      key.Binding
	Prev      key.Binding
	More      key.Binding
	Less      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var keys = keyMap{
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Commit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply search")),
	Blur:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave search")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev column")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next column")),
	Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Next:      key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
	Prev:      key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev page")),
	More:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more rows")),
	Less:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "fewer rows")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
}

// Model is the bubbletea model for one table.
type Model struct {
	title     string
	table     pipeline.TablePipeline
	view      pipeline.View
	search    textinput.Model
	searching bool
	colCursor int
}

// New builds a browser over rows. The pipeline always runs in Local mode.
func New(title string, rows []cell.Row, opts pipeline.Options) Model {
	opts.Mode = pipeline.ModeLocal
	opts.SearchEnabled = true
	table := pipeline.New(opts)

	ti := textinput.New()
	ti.Placeholder = "search..."
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Width = 30

	return Model{
		title:  title,
		table:  table,
		view:   table.Render(pipeline.Input{Rows: rows}),
		search: ti,
	}
}

// Run starts the browser and blocks until the user quits.
func Run(title string, rows []cell.Row, opts pipeline.Options) error {
	_, err := tea.NewProgram(New(title, rows, opts), tea.WithAltScreen()).Run()
	return err
}

// Table returns the table view currently displayed.
func (m Model) Table() pipeline.View { return m.view }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.ForceQuit) {
			return m, tea.Quit
		}
		if m.searching {
			return m.updateSearch(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Search):
			m.searching = true
			return m, m.search.Focus()

		case key.Matches(msg, keys.Left):
			if m.colCursor > 0 {
				m.colCursor--
			}

		case key.Matches(msg, keys.Right):
			if m.colCursor < len(m.view.Columns)-1 {
				m.colCursor++
			}

		case key.Matches(msg, keys.Sort):
			if m.colCursor < len(m.view.Columns) {
				m.dispatch(pipeline.SortClick(m.view.Columns[m.colCursor]))
			}

		case key.Matches(msg, keys.Next):
			m.dispatch(pipeline.NextPage())

		case key.Matches(msg, keys.Prev):
			m.dispatch(pipeline.PrevPage())

		case key.Matches(msg, keys.More):
			if n, ok := stepLimit(m.view.Page.Limit, 1); ok {
				m.dispatch(pipeline.LimitChange(n))
			}

		case key.Matches(msg, keys.Less):
			if n, ok := stepLimit(m.view.Page.Limit, -1); ok {
				m.dispatch(pipeline.LimitChange(n))
			}
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Commit):
		m.dispatch(pipeline.SearchKey(pipeline.KeyEnter))
		m.searching = false
		m.search.Blur()
		return m, nil

	case key.Matches(msg, keys.Blur):
		m.dispatch(pipeline.SearchBlur())
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.dispatch(pipeline.SearchInput(v))
	}
	return m, cmd
}

func (m *Model) dispatch(e pipeline.Event) {
	m.view = m.table.Dispatch(e)
	if m.colCursor >= len(m.view.Columns) {
		m.colCursor = max(len(m.view.Columns)-1, 0)
	}
}

// stepLimit moves to the next larger (dir > 0) or smaller page size.
func stepLimit(current, dir int) (int, bool) {
	i, found := slices.BinarySearch(PageSizes, current)
	switch {
	case dir > 0 && found:
		i++
	case dir < 0:
		i--
	}
	if i < 0 || i >= len(PageSizes) {
		return current, false
	}
	return PageSizes[i], true
}

func (m Model) View() string {
	var b strings.Builder
	v := m.view

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	if m.searching || v.Search != "" {
		line := m.search.View()
		if m.table.State().SearchTerm != v.Search {
			line += draftStyle.Render("  (enter to apply)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(v.Columns) == 0 {
		b.WriteString(dimStyle.Render("No rows."))
		b.WriteString("\n")
	} else {
		m.renderGrid(&b)
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(pageLine(v.Page)))
	b.WriteString("\n")
	b.WriteString(helpLine())
	return b.String()
}

func (m Model) renderGrid(b *strings.Builder) {
	v := m.view
	widths := make([]int, len(v.Columns))
	headers := make([]string, len(v.Columns))
	for i, col := range v.Columns {
		headers[i] = col + sortMark(v.Sort, col)
		widths[i] = lipgloss.Width(headers[i])
	}

	cells := make([][]string, len(v.Rows))
	for r, row := range v.Rows {
		cells[r] = make([]string, len(v.Columns))
		for i, col := range v.Columns {
			s := truncate(m.table.Display(row, col).Text(), maxColWidth)
			cells[r][i] = s
			widths[i] = max(widths[i], lipgloss.Width(s))
		}
	}

	for i, h := range headers {
		style := headerStyle
		if i == m.colCursor {
			style = selectedStyle
		}
		b.WriteString(style.Render(pad(h, widths[i])))
		b.WriteString("  ")
	}
	b.WriteString("\n")

	if len(v.Rows) == 0 {
		b.WriteString(dimStyle.Render("No rows match."))
		b.WriteString("\n")
		return
	}
	for _, row := range cells {
		for i, s := range row {
			b.WriteString(pad(s, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
}

func sortMark(s pipeline.SortState, col string) string {
	if s.Column != col {
		return ""
	}
	switch s.Direction {
	case pipeline.SortAscending:
		return " ▲"
	case pipeline.SortDescending:
		return " ▼"
	}
	return ""
}

func pageLine(p pipeline.PageMeta) string {
	var b strings.Builder
	b.WriteString("Page ")
	b.WriteString(strconv.Itoa(p.Page))
	b.WriteString(" of ")
	b.WriteString(strconv.Itoa(max(p.TotalPages, 1)))
	b.WriteString(" · ")
	b.WriteString(strconv.Itoa(p.TotalCount))
	b.WriteString(" rows · ")
	b.WriteString(strconv.Itoa(p.Limit))
	b.WriteString(" per page")
	return b.String()
}

func helpLine() string {
	bindings := []key.Binding{keys.Search, keys.Left, keys.Right, keys.Sort, keys.Next, keys.Prev, keys.More, keys.Less, keys.Quit}
	parts := make([]string, len(bindings))
	for i, k := range bindings {
		h := k.Help()
		parts[i] = helpKeyStyle.Render(h.Key) + " " + dimStyle.Render(h.Desc)
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func pad(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
