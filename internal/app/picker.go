package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	emptyStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
)

type pickerRow struct {
	record snapshot.Record
	score  int
}

type pickerModel struct {
	allRows    []pickerRow
	visible    []pickerRow
	queryInput textinput.Model
	table      table.Model
	selected   *snapshot.Record
	cancelled  bool
	width      int
	height     int
}

func newPickerModel(records []snapshot.Record) pickerModel {
	input := textinput.New()
	input.Placeholder = "fuzzy search"
	input.Prompt = "query> "
	input.Focus()

	cols := []table.Column{
		{Title: "NAME", Width: 32},
		{Title: "KIND", Width: 9},
		{Title: "CAPTURED", Width: 19},
		{Title: "SURF", Width: 5},
		{Title: "PANES", Width: 6},
	}

	tbl := table.New(
		table.WithColumns(cols),
		table.WithRows(nil),
		table.WithFocused(true),
		table.WithHeight(16),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	tbl.SetStyles(styles)

	m := pickerModel{
		queryInput: input,
		table:      tbl,
		allRows:    make([]pickerRow, 0, len(records)),
	}

	for _, r := range records {
		m.allRows = append(m.allRows, pickerRow{record: r})
	}
	m.applyFilter()
	return m
}

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if len(m.visible) == 0 {
				return m, nil
			}
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.visible) {
				rec := m.visible[idx].record
				m.selected = &rec
				return m, tea.Quit
			}
		}
	}

	prevQuery := m.queryInput.Value()
	var cmdInput tea.Cmd
	m.queryInput, cmdInput = m.queryInput.Update(msg)
	if prevQuery != m.queryInput.Value() {
		m.applyFilter()
	}

	var cmdTable tea.Cmd
	m.table, cmdTable = m.table.Update(msg)

	return m, tea.Batch(cmdInput, cmdTable)
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("lazy-layout"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: restore  esc/ctrl-c: cancel  up/down: move"))
	b.WriteString("\n\n")
	b.WriteString(m.queryInput.View())
	b.WriteString("\n\n")
	if len(m.visible) == 0 {
		b.WriteString(emptyStyle.Render("No layouts match query"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(m.table.View())
	return b.String()
}

func (m *pickerModel) resize() {
	if m.width <= 0 {
		return
	}
	nameW := m.width - 50
	if nameW < 16 {
		nameW = 16
	}
	cols := m.table.Columns()
	if len(cols) == 5 {
		cols[0].Width = nameW
		m.table.SetColumns(cols)
	}

	tableHeight := m.height - 8
	if tableHeight < 5 {
		tableHeight = 5
	}
	m.table.SetHeight(tableHeight)
	m.applyFilter()
}

func (m *pickerModel) applyFilter() {
	query := strings.TrimSpace(strings.ToLower(m.queryInput.Value()))
	rows := make([]pickerRow, 0, len(m.allRows))

	for _, row := range m.allRows {
		r := row.record
		target := strings.ToLower(fmt.Sprintf("%s %s %s %ds %dp", r.Name, r.Kind, r.CapturedAt.Local().Format(timeLayout), r.Surfaces, r.Panes))
		score, ok := fuzzyScore(query, target)
		if !ok {
			continue
		}
		row.score = score
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].score == rows[j].score {
			return rows[i].record.CapturedAt.After(rows[j].record.CapturedAt)
		}
		return rows[i].score > rows[j].score
	})

	nameW := 32
	if cols := m.table.Columns(); len(cols) > 0 {
		nameW = cols[0].Width
	}

	m.visible = rows
	tableRows := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		r := row.record
		tableRows = append(tableRows, table.Row{
			ansi.Truncate(r.Name, nameW, "…"),
			string(r.Kind),
			r.CapturedAt.Local().Format(timeLayout),
			fmt.Sprintf("%d", r.Surfaces),
			fmt.Sprintf("%d", r.Panes),
		})
	}
	m.table.SetRows(tableRows)

	if len(tableRows) == 0 {
		m.table.SetCursor(0)
		return
	}
	if m.table.Cursor() >= len(tableRows) {
		m.table.SetCursor(len(tableRows) - 1)
	}
}

func fuzzyScore(query, target string) (int, bool) {
	if query == "" {
		return 1, true
	}
	qi := 0
	score := 0
	streak := 0
	for i := 0; i < len(target) && qi < len(query); i++ {
		if target[i] == query[qi] {
			score += 10 + streak*3
			streak++
			qi++
		} else {
			streak = 0
		}
	}
	if qi != len(query) {
		return 0, false
	}
	return score, true
}

func chooseRecord(records []snapshot.Record) (snapshot.Record, error) {
	m := newPickerModel(records)
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return snapshot.Record{}, err
	}

	result, ok := finalModel.(pickerModel)
	if !ok {
		return snapshot.Record{}, fmt.Errorf("unexpected picker model type")
	}
	if result.cancelled {
		return snapshot.Record{}, fmt.Errorf("selection canceled")
	}
	if result.selected == nil {
		return snapshot.Record{}, fmt.Errorf("no layout selected")
	}
	return *result.selected, nil
}
