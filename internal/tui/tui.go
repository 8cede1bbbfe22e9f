// Package tui implements the Bubble Tea browser for replay verdicts.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aezell/codemint/internal/model"
)

// viewMode selects what the detail pane shows for the current case.
type viewMode int

const (
	viewDiff viewMode = iota
	viewInput
	viewExpected
	viewActual
	viewModeCount
)

func (v viewMode) String() string {
	switch v {
	case viewInput:
		return "input"
	case viewExpected:
		return "expected"
	case viewActual:
		return "actual"
	default:
		return "diff"
	}
}

// Model is the top-level Bubble Tea model for codemint review.
type Model struct {
	def      model.CodemodDefinition
	outcomes []model.CaseOutcome
	cases    map[string]model.ReplayCase

	// UI state
	width  int
	height int

	caseIndex int // currently selected case

	// Detail viewport
	scrollOffset int
	viewHeight   int

	// Rendered lines for the current case and view
	lines []renderedLine
	mode  viewMode

	decisions map[int]Decision

	showHelp bool
}

// New creates a review model for a validated definition. cases supplies the
// input and expected sources; it may be nil when only the verdict is available.
func New(def model.CodemodDefinition, cases []model.ReplayCase) Model {
	m := Model{
		def:       def,
		cases:     make(map[string]model.ReplayCase, len(cases)),
		decisions: make(map[int]Decision),
	}
	if def.ReplayResult != nil {
		m.outcomes = def.ReplayResult.Cases
	}
	for _, c := range cases {
		m.cases[c.PairID] = c
	}
	m.updateLines()
	return m
}

// Result returns the decisions taken so far.
func (m Model) Result() *ReviewResult {
	decisions := make(map[int]Decision, len(m.decisions))
	for i, d := range m.decisions {
		decisions[i] = d
	}
	return &ReviewResult{Decisions: decisions, Outcomes: m.outcomes}
}

func (m *Model) current() (model.CaseOutcome, bool) {
	if m.caseIndex < 0 || m.caseIndex >= len(m.outcomes) {
		return model.CaseOutcome{}, false
	}
	return m.outcomes[m.caseIndex], true
}

func (m *Model) updateLines() {
	o, ok := m.current()
	if !ok {
		m.lines = nil
		return
	}
	c := m.cases[o.PairID]
	switch m.mode {
	case viewInput:
		m.lines = renderSource(m.def.Language, c.FilePath, c.InputSource)
	case viewExpected:
		m.lines = renderSource(m.def.Language, c.FilePath, c.ExpectedOutput)
	case viewActual:
		m.lines = renderSource(m.def.Language, c.FilePath, o.ActualOutput)
	default:
		m.lines = renderDiff(o.Diff)
	}
}

func (m *Model) selectCase(i int) {
	if i < 0 || i >= len(m.outcomes) || i == m.caseIndex {
		return
	}
	m.caseIndex = i
	m.scrollOffset = 0
	m.updateLines()
}

func (m *Model) jumpToFailure(step int) {
	for i := m.caseIndex + step; i >= 0 && i < len(m.outcomes); i += step {
		if !m.outcomes[i].Passed {
			m.selectCase(i)
			return
		}
	}
}

func (m *Model) decide(d Decision) {
	if _, ok := m.current(); !ok {
		return
	}
	m.decisions[m.caseIndex] = d
	if m.caseIndex < len(m.outcomes)-1 {
		m.selectCase(m.caseIndex + 1)
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewHeight = m.height - 4 // status bar + borders
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Down):
			if m.scrollOffset < len(m.lines)-1 {
				m.scrollOffset++
			}

		case key.Matches(msg, keys.Up):
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}

		case key.Matches(msg, keys.NextCase):
			m.selectCase(m.caseIndex + 1)

		case key.Matches(msg, keys.PrevCase):
			m.selectCase(m.caseIndex - 1)

		case key.Matches(msg, keys.NextFailure):
			m.jumpToFailure(1)

		case key.Matches(msg, keys.PrevFailure):
			m.jumpToFailure(-1)

		case key.Matches(msg, keys.Toggle):
			m.mode = (m.mode + 1) % viewModeCount
			m.scrollOffset = 0
			m.updateLines()

		case key.Matches(msg, keys.Keep):
			m.decide(DecisionKeep)

		case key.Matches(msg, keys.Drop):
			m.decide(DecisionDrop)

		case key.Matches(msg, keys.Undo):
			delete(m.decisions, m.caseIndex)

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	listWidth := m.caseListWidth()
	detailWidth := m.width - listWidth - 1

	caseList := m.renderCaseList(listWidth, m.height-2)
	detail := m.renderDetail(detailWidth, m.height-2)

	main := lipgloss.JoinHorizontal(lipgloss.Top, caseList, " ", detail)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) caseListWidth() int {
	maxLen := 16
	for _, o := range m.outcomes {
		if n := len(o.PairID); n > maxLen {
			maxLen = n
		}
	}
	w := maxLen + 10 // marker + decision + padding
	if w > m.width/3 {
		w = m.width / 3
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderCaseList(width, height int) string {
	var b strings.Builder

	for i, o := range m.outcomes {
		marker, style := "✓", casePassStyle
		if !o.Passed {
			marker, style = "✗", caseFailStyle
		}

		d := m.decisions[i]
		name := o.PairID
		if maxName := width - 10; maxName > 0 && len(name) > maxName {
			name = "…" + name[len(name)-maxName+1:]
		}

		if i == m.caseIndex {
			b.WriteString(caseItemSelectedStyle.Width(width - 4).Render(fmt.Sprintf("%s %s %s", marker, d.letter(), name)))
		} else {
			mark := d.letter()
			switch d {
			case DecisionKeep:
				mark = keptStyle.Render(mark)
			case DecisionDrop:
				mark = droppedStyle.Render(mark)
			}
			fmt.Fprintf(&b, "%s %s %s", style.Render(marker), mark, name)
		}
		if i < len(m.outcomes)-1 {
			b.WriteByte('\n')
		}
	}

	return caseListStyle.Width(width).Height(height - 2).Render(b.String())
}

// letter is the one-character decision marker shown in the case list.
func (d Decision) letter() string {
	switch d {
	case DecisionKeep:
		return "K"
	case DecisionDrop:
		return "D"
	default:
		return " "
	}
}

func (m Model) renderDetail(width, height int) string {
	innerWidth := width - 4
	innerHeight := height - 2

	o, ok := m.current()
	if !ok {
		msg := model.NoCasesDetail
		if m.def.ReplayResult == nil {
			msg = "not validated"
		}
		return detailViewStyle.Width(width).Height(innerHeight).Render(emptyPaneStyle.Render(msg))
	}

	var b strings.Builder
	b.WriteString(caseHeaderStyle.Render(m.caseTitle(o)))
	b.WriteByte('\n')
	if o.Detail != "" {
		b.WriteString(diagnosticStyle.Render(truncate(o.Detail, innerWidth)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	headerLines := strings.Count(b.String(), "\n")
	visible := innerHeight - headerLines
	if visible < 1 {
		visible = 1
	}

	if len(m.lines) == 0 {
		b.WriteString(emptyPaneStyle.Render(m.emptyMessage(o)))
	} else {
		end := m.scrollOffset + visible
		if end > len(m.lines) {
			end = len(m.lines)
		}
		for i := m.scrollOffset; i < end; i++ {
			if m.mode == viewDiff {
				b.WriteString(styleDiffLine(m.lines[i], innerWidth))
			} else {
				b.WriteString(styleSourceLine(m.lines[i], innerWidth))
			}
			if i < end-1 {
				b.WriteByte('\n')
			}
		}
	}

	return detailViewStyle.Width(width).Height(innerHeight).Render(b.String())
}

func (m Model) caseTitle(o model.CaseOutcome) string {
	verdict := "PASS"
	if !o.Passed {
		verdict = "FAIL (" + o.Failure.String() + ")"
	}
	title := fmt.Sprintf("%s  %s  exit %d  %s", o.PairID, verdict, o.ExitCode, o.Duration.Round(time.Millisecond))
	if c, ok := m.cases[o.PairID]; ok && c.FilePath != "" {
		title += "  " + c.FilePath
	}
	return title
}

func (m Model) emptyMessage(o model.CaseOutcome) string {
	_, haveCase := m.cases[o.PairID]
	switch m.mode {
	case viewInput, viewExpected:
		if !haveCase {
			return "no job loaded for this case"
		}
		return "(empty)"
	case viewActual:
		if o.Failure == model.FailureStatic || o.Failure == model.FailureBuild {
			return "codemod never ran"
		}
		return "(no output)"
	default:
		if o.Passed {
			return "output matches expected"
		}
		return "no diff recorded"
	}
}

func (m Model) renderStatusBar() string {
	left := " " + m.statusLabel()
	if n := len(m.outcomes); n > 0 {
		left += fmt.Sprintf("  Case %d/%d", m.caseIndex+1, n)
	}
	if len(m.lines) > 0 {
		left += fmt.Sprintf("  Line %d/%d", m.scrollOffset+1, len(m.lines))
	}

	r := m.Result()
	right := fmt.Sprintf("%s  kept %d  dropped %d  %s  ? help ",
		m.def.ReplayResult.Summary(), len(r.KeptPairs()), len(r.DroppedPairs()), m.mode)

	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right) // minus padding
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) statusLabel() string {
	label := m.def.Status.String()
	if m.def.Status == model.StatusValidated {
		return statusPassStyle.Render(label)
	}
	if m.def.Status.IsTerminal() {
		return statusFailStyle.Render(label)
	}
	return label
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(fileHeaderStyle.Render("codemint review: Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, k := range []key.Binding{
		keys.Up, keys.Down, keys.NextCase, keys.PrevCase, keys.NextFailure, keys.PrevFailure,
		keys.Toggle, keys.Keep, keys.Drop, keys.Undo, keys.Help, keys.Quit,
	} {
		h := k.Help()
		fmt.Fprintf(&b, "  %s  %s\n", helpKeyStyle.Width(12).Render(h.Key), h.Desc)
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))
	return b.String()
}

// Run starts the review browser and returns the reviewer's decisions.
func Run(def model.CodemodDefinition, cases []model.ReplayCase) (*ReviewResult, error) {
	p := tea.NewProgram(New(def, cases), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(Model).Result(), nil
}
