package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"fluorite-flake/internal/orchestrator"
	"fluorite-flake/internal/services"
)

// DataSource is the read side of the orchestrator the dashboard consumes.
// Every mutation goes through orchestrator methods elsewhere; the TUI only
// renders.
type DataSource interface {
	GetMultiServiceDashboardData(ctx context.Context, opts *services.DataOptions) (*orchestrator.MultiServiceDashboardData, error)
}

const (
	logBacklog     = 200
	refreshTimeout = 15 * time.Second
)

type focusArea int

const (
	focusServices focusArea = iota
	focusLogs
)

// Model is the bubbletea model for the dashboard.
type Model struct {
	source DataSource

	table      table.Model
	snapshot   *orchestrator.MultiServiceDashboardData
	refreshErr error

	logs      []services.LogEntry
	logOffset int // lines scrolled back from the tail; 0 follows

	focus    focusArea
	width    int
	height   int
	quitting bool
}

// NewModel creates the dashboard model over a data source.
func NewModel(source DataSource) Model {
	columns := []table.Column{
		{Title: "SERVICE", Width: 14},
		{Title: "HEALTH", Width: 10},
		{Title: "RESOURCES", Width: 10},
		{Title: "ERRORS", Width: 8},
		{Title: "RESP(MS)", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	styles.Selected = styles.Selected.Foreground(tableSelectedFg).Background(tableSelectedBg)
	t.SetStyles(styles)

	return Model{source: source, table: t}
}

// Init kicks off the first snapshot fetch.
func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

// refreshCmd fetches a fresh aggregate snapshot off the UI goroutine.
func (m Model) refreshCmd() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		data, err := source.GetMultiServiceDashboardData(ctx, nil)
		if err != nil {
			return snapshotErrMsg{err: err}
		}
		return snapshotMsg{data: data}
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(m.tableHeight())
		return m, nil

	case snapshotMsg:
		m.snapshot = msg.data
		m.refreshErr = nil
		m.table.SetRows(m.buildRows())
		return m, nil

	case snapshotErrMsg:
		m.refreshErr = msg.err
		return m, nil

	case logMsg:
		m.logs = append(m.logs, msg.entry)
		if len(m.logs) > logBacklog {
			m.logs = m.logs[len(m.logs)-logBacklog:]
		}
		return m, nil

	case logsClosedMsg:
		return m, nil

	case orchestratorEventMsg:
		return m.handleEvent(msg.event)
	}

	return m, nil
}

// handleEvent reacts to orchestrator events: lifecycle and monitoring
// events trigger a snapshot refresh, log entries feed the tail.
func (m Model) handleEvent(event orchestrator.Event) (tea.Model, tea.Cmd) {
	switch event.Type {
	case orchestrator.EventServiceAdded,
		orchestrator.EventServiceRemoved,
		orchestrator.EventServiceHealthCheck,
		orchestrator.EventServiceAutoRefresh:
		return m, m.refreshCmd()

	case orchestrator.EventServiceLogEntry:
		if entry, ok := event.Payload.(services.LogEntry); ok {
			if entry.Service == "" {
				entry.Service = event.Service
			}
			return m.Update(logMsg{entry: entry})
		}
		return m, nil

	case orchestrator.EventShutdown, orchestrator.EventStopped:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "r":
		return m, m.refreshCmd()

	case "l":
		m.focus = focusLogs
		return m, nil

	case "tab":
		if m.focus == focusServices {
			m.focus = focusLogs
		} else {
			m.focus = focusServices
		}
		return m, nil

	case "up", "k":
		if m.focus == focusLogs {
			if m.logOffset < len(m.logs)-1 {
				m.logOffset++
			}
			return m, nil
		}

	case "down", "j":
		if m.focus == focusLogs {
			if m.logOffset > 0 {
				m.logOffset--
			}
			return m, nil
		}

	case "end", "G":
		if m.focus == focusLogs {
			m.logOffset = 0
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// buildRows converts the snapshot into sorted table rows.
func (m Model) buildRows() []table.Row {
	if m.snapshot == nil {
		return nil
	}
	names := make([]string, 0, len(m.snapshot.Services))
	for name := range m.snapshot.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]table.Row, 0, len(names)+len(m.snapshot.Errors))
	for _, name := range names {
		data := m.snapshot.Services[name]
		health := string(deriveRowHealth(data))
		resources := fmt.Sprintf("%d", len(data.Resources))
		errorsCell, response := "0", "-"
		if data.Metrics != nil {
			errorsCell = fmt.Sprintf("%d", data.Metrics.Errors.TotalErrors)
			response = fmt.Sprintf("%.0f", data.Metrics.Performance.AvgResponseTime)
		}
		rows = append(rows, table.Row{name, health, resources, errorsCell, response})
	}

	// Failed services still get a row so they do not silently vanish.
	failed := make([]string, 0, len(m.snapshot.Errors))
	for name := range m.snapshot.Errors {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		rows = append(rows, table.Row{name, "unreachable", "-", "-", "-"})
	}
	return rows
}

func deriveRowHealth(data *services.DashboardData) services.HealthState {
	switch {
	case !data.Status.Connected:
		return services.HealthUnhealthy
	case data.Status.Error != "":
		return services.HealthDegraded
	default:
		return services.HealthHealthy
	}
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	if m.refreshErr != nil {
		sb.WriteString(errorStyle.Render("refresh failed: " + m.refreshErr.Error()))
		sb.WriteString("\n")
	}

	tablePanel := blurredPanelStyle
	logPanel := blurredPanelStyle
	if m.focus == focusServices {
		tablePanel = focusedPanelStyle
	} else {
		logPanel = focusedPanelStyle
	}

	sb.WriteString(tablePanel.Render(m.table.View()))
	sb.WriteString("\n")
	sb.WriteString(m.renderInsights())
	sb.WriteString(panelTitleStyle.Render("Logs"))
	sb.WriteString("\n")
	sb.WriteString(logPanel.Render(m.renderLogs()))
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m Model) renderHeader() string {
	title := headerStyle.Render("fluorite-flake dashboard")
	if m.snapshot == nil {
		return title + " " + footerStyle.Render("loading...")
	}

	agg := m.snapshot.Aggregated
	health := renderHealth(agg.OverallHealth)
	counters := footerStyle.Render(fmt.Sprintf(
		"%d services | %d resources | %d errors | %.2f%% error rate",
		len(m.snapshot.Services), agg.TotalResources, agg.TotalErrors,
		agg.Performance.CombinedErrorRate,
	))
	return title + " " + health + " " + counters
}

func (m Model) renderInsights() string {
	if m.snapshot == nil || len(m.snapshot.Insights) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render("Insights"))
	sb.WriteString("\n")
	for _, insight := range m.snapshot.Insights {
		style := insightWarnStyle
		if insight.Type == orchestrator.InsightError {
			style = insightErrStyle
		}
		sb.WriteString(style.Render(fmt.Sprintf("[%s] ", insight.Priority)))
		sb.WriteString(insightTitleStyle.Render(insight.Title))
		sb.WriteString(": " + insight.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderLogs() string {
	visible := m.logHeight()
	if len(m.logs) == 0 {
		return footerStyle.Render("waiting for log entries...")
	}

	end := len(m.logs) - m.logOffset
	if end < 1 {
		end = 1
	}
	start := end - visible
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, end-start)
	for _, entry := range m.logs[start:end] {
		ts := logTimeStyle.Render(entry.Timestamp.Format("15:04:05"))
		line := fmt.Sprintf("%s [%s] %s", ts, entry.Service, entry.Message)
		if entry.Level == "error" {
			line = logErrorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	keys := "q: quit | r: refresh | l: logs | tab: switch panel"
	if m.focus == focusLogs {
		keys += " | j/k: scroll | G: follow"
	}
	return footerStyle.Render(keys)
}

func (m Model) tableHeight() int {
	if m.height == 0 {
		return 8
	}
	h := m.height / 3
	if h < 4 {
		h = 4
	}
	return h
}

func (m Model) logHeight() int {
	if m.height == 0 {
		return 10
	}
	h := m.height/3 - 2
	if h < 4 {
		h = 4
	}
	return h
}

func renderHealth(state services.HealthState) string {
	switch state {
	case services.HealthHealthy:
		return healthyStyle.Render(string(state))
	case services.HealthDegraded:
		return degradedStyle.Render(string(state))
	default:
		return unhealthyStyle.Render(string(state))
	}
}
