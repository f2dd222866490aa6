package tui

import "github.com/charmbracelet/lipgloss"

// Terminal green palette.
var (
	ColorGreen    = lipgloss.Color("#22C55E")
	ColorDimGreen = lipgloss.Color("#15803D")
	ColorRed      = lipgloss.Color("#EF4444")
	ColorAmber    = lipgloss.Color("#F59E0B")
	ColorGray     = lipgloss.Color("245")
	ColorBlack    = lipgloss.Color("#000000")
	ColorWhite    = lipgloss.Color("#FFFFFF")
)

var (
	tabStyle = lipgloss.NewStyle().
			Foreground(ColorDimGreen).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ColorDimGreen)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	titleStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimGreen).
			Padding(0, 2)
)

// shareColors maps an accuracy outcome label to its card and bar color.
var shareColors = map[string]lipgloss.Color{
	"Correct":     ColorGreen,
	"Incorrect":   ColorRed,
	"Not Checked": ColorAmber,
}
