package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"xpurge/pkg/pipeline"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var sections []string

	sections = append(sections, m.renderLogo())

	leftColumn := m.renderLeftColumn()
	rightColumn := m.renderRightColumn()

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftColumn,
		"  ",
		rightColumn,
	)
	sections = append(sections, mainContent)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderLogo() string {
	logo := `
╔═══════════════════════════════════════════════════╗
║ ██╗  ██╗██████╗ ██╗   ██╗██████╗  ██████╗ ███████╗ ║
║ ╚██╗██╔╝██╔══██╗██║   ██║██╔══██╗██╔════╝ ██╔════╝ ║
║  ╚███╔╝ ██████╔╝██║   ██║██████╔╝██║  ███╗█████╗   ║
║  ██╔██╗ ██╔═══╝ ██║   ██║██╔══██╗██║   ██║██╔══╝   ║
║ ██╔╝ ██╗██║     ╚██████╔╝██║  ██║╚██████╔╝███████╗ ║
║ ╚═╝  ╚═╝╚═╝      ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚══════╝ ║
╚═══════════════════════════════════════════════════╝`

	return logoStyle.Width(m.width).Render(logo)
}

func (m *Model) renderLeftColumn() string {
	width := (m.width - 4) / 2

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderBatchPanel(width),
	)
}

func (m *Model) renderRightColumn() string {
	width := (m.width - 4) / 2

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderRecentPanel(width),
		m.renderLogsPanel(width),
	)
}

func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" RUN STATS ")

	elapsed := time.Since(m.sessionStartTime)
	perMinute, _ := m.stats()

	target := "@" + m.username
	if m.username == "" {
		target = "-"
	}

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Mode:"), statsValueStyle.Render(string(m.kind))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Account:"), statsValueStyle.Render(target)),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Session Time:"), statsValueStyle.Render(formatDuration(elapsed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render(pastTense(m.kind)+":"), successStyle.Render(fmt.Sprintf("%d", m.acted))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Skipped:"), warningStyle.Render(fmt.Sprintf("%d", m.skipped))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Failed:"), errorStyle.Render(fmt.Sprintf("%d", m.failed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Rate:"), speedStyle.Render(FormatRate(perMinute))),
	}

	switch {
	case m.finished && m.finishErr != nil:
		stats = append(stats, errorStyle.Render("✗ ABORTED"))
	case m.finished:
		stats = append(stats, successStyle.Render("✓ DONE"))
	case m.isPaused:
		stats = append(stats, warningStyle.Render("⏸  PAUSED"))
	default:
		stats = append(stats, m.spinner.View()+" running")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

func (m *Model) renderBatchPanel(width int) string {
	title := titleStyle.Render(" CURRENT BATCH ")

	if m.batch == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("Waiting for first fetch")
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, content),
		)
	}

	_, eta := m.stats()
	bar := m.progress
	if width > 12 {
		bar.Width = width - 8
	}

	content := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Batch:"), statsValueStyle.Render(fmt.Sprintf("#%d", m.batch))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Progress:"),
			statsValueStyle.Render(fmt.Sprintf("%d/%d", m.batchDone, m.batchSize))),
		bar.ViewAs(m.batchProgress()),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Batch ETA:"), statsValueStyle.Render(formatDuration(eta))),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

func (m *Model) renderRecentPanel(width int) string {
	title := titleStyle.Render(" RECENT ACTIONS ")

	if len(m.recent) == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("Nothing yet")
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, content),
		)
	}

	var items []string
	for i := len(m.recent) - 1; i >= 0; i-- {
		item := m.recent[i]
		switch item.State {
		case ActionDone:
			items = append(items, queueItemCompletedStyle.Render("✓ "+item.ID))
		case ActionSkipped:
			items = append(items, warningStyle.PaddingLeft(2).Render("↷ "+item.ID))
		case ActionFailed:
			items = append(items, errorStyle.PaddingLeft(2).Render("✗ "+item.ID))
		}
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		text := log.Message
		maxMsgLen := width - 25
		if maxMsgLen > 3 && len(text) > maxMsgLen {
			text = text[:maxMsgLen-3] + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(text)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	logsHeight := m.height - 30
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Stop the run and quit
    p/P      - Pause/Resume after the current action
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Recent actions:
    ` + successStyle.Render("✓") + `        - Done
    ` + warningStyle.Render("↷") + `        - Skipped, will not be retried
    ` + errorStyle.Render("✗") + `        - Failed, aborts the run
`

	return panelStyle.Width(m.width).Render(help)
}

func pastTense(kind pipeline.Kind) string {
	if kind == pipeline.KindUnlike {
		return "Unliked"
	}
	return "Deleted"
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
