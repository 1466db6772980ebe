package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Use-Tusk/redirect-check/internal/log"
	"github.com/Use-Tusk/redirect-check/internal/runner"
	"github.com/Use-Tusk/redirect-check/internal/tui/components"
	"github.com/Use-Tusk/redirect-check/internal/tui/styles"
	"github.com/Use-Tusk/redirect-check/internal/utils"
)

type viewState int

const (
	listView viewState = iota
	runningView
	resultView
)

// caseResultMsg carries the outcome of a case started from the list.
type caseResultMsg struct {
	result runner.Result
}

type listModel struct {
	table    table.Model
	cases    []runner.TestCase
	executor *runner.Executor
	width    int
	height   int
	state    viewState
	selected *runner.TestCase
	result   *runner.Result
	columns  []table.Column
}

var listColumns = []table.Column{
	{Title: "#", Width: 5},
	{Title: "Host", Width: 28},
	{Title: "Path", Width: 28},
	{Title: "Code", Width: 6},
	{Title: "Expected Location", Width: 32},
	{Title: "Test", Width: 6},
}

// ShowCaseList shows the expanded cases in an interactive table. When an
// executor is given, enter runs the selected case.
func ShowCaseList(cases []runner.TestCase, executor *runner.Executor) error {
	m := newListModel(cases, executor)

	prevMode := log.GetMode()
	log.SetMode(log.ModeTUI)
	defer log.SetMode(prevMode)

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return nil
}

func newListModel(cases []runner.TestCase, executor *runner.Executor) *listModel {
	t := table.New(
		table.WithColumns(listColumns),
		table.WithRows(caseRows(cases)),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle
	s.Cell = styles.TableCellStyle
	s.Selected = styles.TableRowSelectedStyle
	t.SetStyles(s)

	return &listModel{
		table:    t,
		cases:    cases,
		executor: executor,
		state:    listView,
		columns:  listColumns,
	}
}

func caseRows(cases []runner.TestCase) []table.Row {
	rows := make([]table.Row, 0, len(cases))
	for i, tc := range cases {
		location := "-"
		if tc.ExpectedLocation != nil && *tc.ExpectedLocation != "" {
			location = *tc.ExpectedLocation
		}
		test := "yes"
		if !tc.HasTest() {
			test = "skip"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			tc.Hostname,
			tc.Path,
			strconv.Itoa(tc.ExpectedCode),
			location,
			test,
		})
	}
	return rows
}

func (m *listModel) Init() tea.Cmd {
	return nil
}

func (m *listModel) runSelected() tea.Cmd {
	tc := *m.selected
	executor := m.executor
	return func() tea.Msg {
		return caseResultMsg{result: executor.RunCase(context.Background(), tc)}
	}
}

func (m *listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case listView:
			switch msg.String() {
			case "q", "ctrl+c", "esc":
				return m, tea.Quit
			case "enter":
				idx := m.table.Cursor()
				if m.executor != nil && idx >= 0 && idx < len(m.cases) {
					tc := m.cases[idx]
					m.selected = &tc
					m.state = runningView
					return m, m.runSelected()
				}
			case "g":
				m.table.GotoTop()
			case "G":
				m.table.GotoBottom()
			}
		case runningView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case resultView:
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "r":
				m.state = runningView
				m.result = nil
				return m, m.runSelected()
			case "q", "esc", "enter", " ":
				m.state = listView
				m.selected = nil
				m.result = nil
				return m, nil
			}
			return m, nil
		}

	case caseResultMsg:
		if m.state == runningView {
			res := msg.result
			m.result = &res
			m.state = resultView
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeColumns(msg.Width)
		m.table.SetHeight(max(msg.Height-5, 3))
	}

	if m.state == listView {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m *listModel) resizeColumns(totalWidth int) {
	if totalWidth <= 0 || len(m.columns) == 0 {
		return
	}

	padPerCol := styles.TableCellStyle.GetPaddingLeft() + styles.TableCellStyle.GetPaddingRight()
	contentWidth := max(totalWidth-padPerCol*len(m.columns), 0)

	sum := 0
	for _, c := range m.columns {
		sum += c.Width
	}

	cols := make([]table.Column, len(m.columns))
	copy(cols, m.columns)

	if contentWidth > sum {
		extra := contentWidth - sum
		cols[2].Width += extra / 2 // Path
		cols[4].Width += extra - extra/2
	}

	m.table.SetColumns(cols)
	m.table.SetWidth(totalWidth)
}

func (m *listModel) View() string {
	switch m.state {
	case listView:
		header := components.Title(m.width, "REDIRECT CASES")
		help := components.Footer(m.width, "↑/↓: navigate • g: go to top • G: go to bottom • enter: run case • q: quit")
		return fmt.Sprintf("%s\n\n%s\n\n%s", header, m.table.View(), help)
	case runningView:
		header := components.Title(m.width, "RUNNING CASE")
		return fmt.Sprintf("%s\n\n%s\n%s", header, m.selected.DisplayName(), styles.DimStyle.Render("Sending request to "+m.executor.Target()+"..."))
	case resultView:
		header := components.Title(m.width, "CASE RESULT")
		help := components.Footer(m.width, "r: run again • enter/esc: back to list • ctrl+c: quit")
		return fmt.Sprintf("%s\n\n%s\n\n%s", header, renderResult(*m.result, m.width), help)
	default:
		return "Unknown state"
	}
}

// renderResult formats one result for the detail screen.
func renderResult(r runner.Result, width int) string {
	var b strings.Builder
	b.WriteString(r.Case.DisplayName() + "\n")
	caseURL := fmt.Sprintf("%s  %s://%s%s", r.Case.ID, r.Case.Scheme, r.Case.Hostname, r.Case.Path)
	if width > 0 {
		caseURL = utils.TruncateWithEllipsis(caseURL, width)
	}
	b.WriteString(styles.DimStyle.Render(caseURL) + "\n\n")

	switch o := r.Outcome.(type) {
	case runner.Passed:
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ PASSED (%dms)", r.Duration.Milliseconds())))
	case runner.Skipped:
		b.WriteString(styles.DimStyle.Render("○ SKIPPED: " + o.Reason))
	default:
		b.WriteString(styles.DeviationStyle.Render(fmt.Sprintf("● FAILED (%dms)", r.Duration.Milliseconds())) + "\n")
		wrap := width - 2
		if wrap <= 0 {
			wrap = 80
		}
		b.WriteString(styles.WarningStyle.Render(utils.WrapText(runner.FormatDiagnostic(o), wrap)))
	}
	return b.String()
}
