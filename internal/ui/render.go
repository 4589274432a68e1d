package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/taskboard/internal/board"
	"github.com/nibzard/taskboard/internal/query"
	"github.com/nibzard/taskboard/internal/task"
)

const cardWidth = 26

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	todayStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3b82f6"))
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(cardWidth)
	selectedStyle = cardStyle.Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("#3b82f6"))
)

var priorityStyles = map[task.Priority]lipgloss.Style{
	task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
	task.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
	task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")),
}

// glyphs maps icon names to terminal symbols.
var glyphs = map[string]string{
	"fa-briefcase":          "▣",
	"fa-user":               "☺",
	"fa-shopping-cart":      "⊕",
	"fa-heart":              "♥",
	"fa-star":               "★",
	"fa-calendar-times":     "·",
	"fa-check-circle":       "✓",
	"fa-exclamation-circle": "!",
	"fa-clock":              "◷",
	"fa-calendar-day":       "›",
	"fa-calendar-alt":       "»",
	"fa-calendar":           "○",
}

func glyph(icon string) string {
	if g, ok := glyphs[icon]; ok {
		return g
	}
	return "•"
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	m.writeStats(&b)
	m.writeControls(&b)

	if len(m.tasks) == 0 {
		b.WriteString(dimStyle.Render("  No tasks to show.") + "\n\n")
	} else if m.board.View() == board.ViewGrid {
		m.writeGrid(&b)
	} else {
		m.writeList(&b)
	}

	m.writePrompt(&b)
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	writeFooter(&b, m.tickInterval)
	return b.String()
}

func writeTitle(b *strings.Builder) {
	title := "Taskboard"
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func (m *tuiModel) writeStats(b *strings.Builder) {
	stats := m.board.GetStats()
	adv := m.board.GetAdvancedStats()
	fmt.Fprintf(b, "  Total: %d  Completed: %d  Pending: %d  Overdue: %d\n",
		stats.Total, stats.Completed, stats.Pending, stats.Overdue)
	fmt.Fprintf(b, "  High priority: %d  Due today: %d  Due this week: %d\n\n",
		adv.HighPriority, adv.DueToday, adv.DueThisWeek)
}

func (m *tuiModel) writeControls(b *strings.Builder) {
	var filters []string
	for i, f := range query.Filters() {
		label := fmt.Sprintf("%d:%s", i, f)
		if f == m.filter {
			label = headerStyle.Render(label)
		}
		filters = append(filters, label)
	}
	b.WriteString("  " + strings.Join(filters, "  ") + "\n")
	fmt.Fprintf(b, "  Sort: %s  View: %s", m.board.Sort(), m.board.View())
	if m.search != "" {
		fmt.Fprintf(b, "  Search: %q", m.search)
	}
	b.WriteString("\n\n")
}

func (m *tuiModel) writeList(b *strings.Builder) {
	for i, t := range m.tasks {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		b.WriteString(marker + m.formatTask(t) + "\n")
	}
	b.WriteString("\n")
}

func (m *tuiModel) writeGrid(b *strings.Builder) {
	cols := max(1, m.width/(cardWidth+4))
	var row []string
	for i, t := range m.tasks {
		style := cardStyle
		if i == m.cursor {
			style = selectedStyle
		}
		row = append(row, style.Render(m.formatCard(t)))
		if len(row) == cols || i == len(m.tasks)-1 {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...) + "\n")
			row = row[:0]
		}
	}
	b.WriteString("\n")
}

func (m *tuiModel) writePrompt(b *strings.Builder) {
	var label string
	switch m.mode {
	case modeSearch:
		label = "Search"
	case modeAdd:
		label = "New task"
	case modeImport:
		label = "Import file"
	default:
		return
	}
	b.WriteString(label + ": " + m.input.View() + "\n")
	b.WriteString(dimStyle.Render("  enter to confirm, esc to cancel") + "\n\n")
}

func (m *tuiModel) formatTask(t task.Task) string {
	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = "[x]"
		title = doneStyle.Render(title)
	}
	parts := []string{
		check,
		title,
		priorityStyles[t.Priority].Render(string(t.Priority)),
		categoryLabel(t.Category),
		m.deadlineLabel(t),
	}
	return strings.Join(parts, "  ")
}

func (m *tuiModel) formatCard(t task.Task) string {
	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = "[x]"
		title = doneStyle.Render(title)
	}
	lines := []string{
		check + " " + title,
		priorityStyles[t.Priority].Render(string(t.Priority)) + "  " + categoryLabel(t.Category),
		m.deadlineLabel(t),
	}
	if t.Description != "" {
		lines = append(lines, dimStyle.Render(truncate(t.Description, cardWidth-2)))
	}
	return strings.Join(lines, "\n")
}

func categoryLabel(c task.Category) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(task.CategoryColor(c)))
	return style.Render(glyph(task.CategoryIcon(c)) + " " + string(c))
}

func (m *tuiModel) deadlineLabel(t task.Task) string {
	ds := m.board.GetDeadlineStatus(t)
	label := glyph(ds.Icon) + " " + ds.Text
	switch ds.Status {
	case query.StatusOverdue:
		return overdueStyle.Render(label)
	case query.StatusToday:
		return todayStyle.Render(label)
	case query.StatusNone, query.StatusCompleted:
		return dimStyle.Render(label)
	}
	return label
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c       Quit\n")
	b.WriteString("  j/k, arrows     Move selection\n")
	b.WriteString("  space, x, enter Toggle completed\n")
	b.WriteString("  a               Add task (Title !high #work @2024-10-20T17:00)\n")
	b.WriteString("  d               Delete task\n")
	b.WriteString("  /               Search, esc clears\n")
	b.WriteString("  0-5, tab        Choose filter\n")
	b.WriteString("  s               Cycle sort\n")
	b.WriteString("  v               Toggle list and grid view\n")
	b.WriteString("  i               Import an exported file\n")
	b.WriteString("  r, F5           Reload from storage\n")
	b.WriteString("  h, ?            Toggle this help screen\n\n")
}

func writeFooter(b *strings.Builder, interval time.Duration) {
	b.WriteString(dimStyle.Render(fmt.Sprintf("Press ? for help | q to quit | Refreshing every %s", interval)) + "\n")
}
