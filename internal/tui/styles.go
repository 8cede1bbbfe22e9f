package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorOrange    = lipgloss.Color("#ffb86c")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	// Case list
	caseListStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	caseItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorHighlight).
				Bold(true)

	casePassStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	caseFailStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	// Detail pane
	detailViewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	caseHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	diagnosticStyle = lipgloss.NewStyle().
			Foreground(colorOrange)

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(4).
			Align(lipgloss.Right)

	addedLineStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	deletedLineStyle = lipgloss.NewStyle().
				Foreground(colorRed)

	contextLineStyle = lipgloss.NewStyle().
				Foreground(colorFg)

	hunkHeaderStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	fileHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true).
			Padding(0, 0, 1, 0)

	emptyPaneStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	statusPassStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Background(colorBgLight).
			Bold(true)

	statusFailStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Background(colorBgLight).
			Bold(true)

	// Review decisions
	keptStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	droppedStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	// Help
	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)
