package tui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	healthyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	degradedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	unhealthyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	insightTitleStyle = lipgloss.NewStyle().Bold(true)
	insightWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	insightErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	logTimeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	logErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	panelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	focusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63"))
	blurredPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	tableSelectedFg = lipgloss.Color("229")
	tableSelectedBg = lipgloss.Color("57")
)
