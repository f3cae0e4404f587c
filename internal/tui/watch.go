// Package tui implements the occ terminal UI: a live view of the execution
// feed with queue statistics and a throughput sparkline.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/execlog"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/queue"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/tui/components"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	// maxFeedRows bounds the in-memory feed history.
	maxFeedRows = 200

	// throughputWindow is the number of one-second buckets in the chart.
	throughputWindow = 60
)

// --- Messages ---

type feedEventMsg struct {
	event execlog.Event
	ok    bool
}

type watchTickMsg time.Time

type watchStatsMsg struct {
	stats *queue.Stats
}

// --- Model ---

// watchModel renders the live execution feed. Events arrive through a feed
// subscription; queue stats are refreshed once per second and whenever an
// event carries a snapshot.
type watchModel struct {
	sub      execlog.Subscription
	statsFn  execlog.StatsFunc
	context  string
	rows     []execlog.Entry
	stats    *queue.Stats
	lastErr  string
	spinner  spinner.Model
	buckets  []throughputBucket
	seen     int
	quitting bool

	width  int
	height int
}

// throughputBucket counts terminal outcomes inside one second.
type throughputBucket struct {
	completed int
	failed    int
}

// RunWatch renders the live execution feed until the user quits or ctx is
// canceled. The subscription starts inside, so only events published after
// the screen opens are shown.
func RunWatch(ctx context.Context, hub *execlog.Hub, stats execlog.StatsFunc) error {
	return RunWatchContext(ctx, hub, stats, "")
}

// RunWatchContext is RunWatch with a header context string (e.g. the
// database path).
func RunWatchContext(ctx context.Context, hub *execlog.Hub, stats execlog.StatsFunc, contextLabel string) error {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	sub := hub.Subscribe()
	defer sub.Close()

	m := watchModel{
		sub:     sub,
		statsFn: stats,
		context: contextLabel,
		spinner: s,
		buckets: make([]throughputBucket, 1, throughputWindow),
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil) {
		// Daemon shutdown closed the screen; not a TUI failure.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run watch: %w", err)
	}
	return nil
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent(), m.fetchStats(), watchTick())
}

// waitForEvent blocks on the feed subscription and hands the next event to
// Update. Re-issued after every received event.
func (m watchModel) waitForEvent() tea.Cmd {
	events := m.sub.Events
	return func() tea.Msg {
		ev, ok := <-events
		return feedEventMsg{event: ev, ok: ok}
	}
}

func (m watchModel) fetchStats() tea.Cmd {
	fn := m.statsFn
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		return watchStatsMsg{stats: fn()}
	}
}

func watchTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case feedEventMsg:
		if !msg.ok {
			// Feed closed underneath us; the daemon is gone.
			m.quitting = true
			return m, tea.Quit
		}
		m = m.absorb(msg.event)
		return m, m.waitForEvent()

	case watchTickMsg:
		m = m.rotateBucket()
		return m, tea.Batch(watchTick(), m.fetchStats())

	case watchStatsMsg:
		if msg.stats != nil {
			m.stats = msg.stats
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// absorb folds one feed event into the row history, the throughput buckets,
// and the stats snapshot.
func (m watchModel) absorb(ev execlog.Event) watchModel {
	m.seen++
	m.rows = append([]execlog.Entry{ev.Entry}, m.rows...)
	if len(m.rows) > maxFeedRows {
		m.rows = m.rows[:maxFeedRows]
	}

	last := len(m.buckets) - 1
	switch ev.Entry.Status {
	case execlog.StatusSuccess:
		m.buckets[last].completed++
	case execlog.StatusFailed:
		m.buckets[last].failed++
		m.lastErr = ev.Entry.Action + "/" + ev.Entry.Target + ": " + failureDetail(ev.Entry)
	}

	if ev.Stats != nil {
		m.stats = ev.Stats
	}
	return m
}

func failureDetail(entry execlog.Entry) string {
	if entry.Error != "" {
		return entry.Error
	}
	return "executor reported failure"
}

func (m watchModel) rotateBucket() watchModel {
	m.buckets = append(m.buckets, throughputBucket{})
	if len(m.buckets) > throughputWindow {
		m.buckets = m.buckets[len(m.buckets)-throughputWindow:]
	}
	return m
}

// --- View ---

func (m watchModel) View() string {
	if m.quitting || m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "watch", m.context)
	footer := components.Footer(m.width, []components.KeyBinding{
		{Key: "q", Desc: "quit"},
	})
	statsBar := m.renderStats()
	chart := m.renderChart()
	statusBar := components.StatusBar(m.width, m.lastErr, true)

	headerH := lipgloss.Height(header)
	footerH := lipgloss.Height(footer)
	statsH := lipgloss.Height(statsBar)
	chartH := lipgloss.Height(chart)
	feedH := m.height - headerH - footerH - statsH - chartH
	if statusBar != "" {
		feedH -= lipgloss.Height(statusBar)
	}
	if feedH < 1 {
		feedH = 1
	}

	feed := m.renderFeed(feedH)

	parts := []string{header, statsBar, feed, chart}
	if statusBar != "" {
		parts = append(parts, statusBar)
	}
	parts = append(parts, footer)
	view := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return padToHeight(view, m.width, m.height)
}

func (m watchModel) renderStats() string {
	if m.stats == nil {
		return lipgloss.NewStyle().Width(m.width).Padding(0, 2).
			Render(m.spinner.View() + " " + styles.MutedText.Render("waiting for queue stats..."))
	}

	s := m.stats
	parts := []string{
		styles.Label.Render("pending ") + styles.StatusStyle(queue.StatusPending).Render(fmt.Sprintf("%d", s.Pending)),
		styles.Label.Render("executing ") + styles.StatusStyle(queue.StatusExecuting).Render(fmt.Sprintf("%d", s.Executing)),
		styles.Label.Render("completed ") + styles.StatusStyle(queue.StatusCompleted).Render(fmt.Sprintf("%d", s.Completed)),
		styles.Label.Render("failed ") + styles.StatusStyle(queue.StatusFailed).Render(fmt.Sprintf("%d", s.Failed)),
		styles.MutedText.Render(fmt.Sprintf("avg wait %s", formatMs(s.AvgWaitMs))),
	}
	if s.OldestPendingMs > 0 {
		parts = append(parts, styles.MutedText.Render(
			fmt.Sprintf("oldest pending %s", formatMs(float64(s.OldestPendingMs)))))
	}

	return lipgloss.NewStyle().Width(m.width).Padding(0, 2).
		Render(strings.Join(parts, styles.KeySepStyle.Render("  │  ")))
}

func (m watchModel) renderFeed(height int) string {
	if len(m.rows) == 0 {
		text := styles.CenterText(m.spinner.View()+" "+styles.MutedText.Render("waiting for executions..."), m.width)
		return lipgloss.Place(m.width, height, lipgloss.Left, lipgloss.Center, text)
	}

	lines := make([]string, 0, height)
	for _, entry := range m.rows {
		if len(lines) >= height {
			break
		}
		lines = append(lines, m.renderRow(entry))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderRow formats one feed line:
//
//	15:04:05 ● success  create_task/trello  #2  124ms  sim-ab12cd34
func (m watchModel) renderRow(entry execlog.Entry) string {
	ts := styles.MutedText.Render(entry.Timestamp.Local().Format("15:04:05"))
	status := styles.StatusIndicator(entry.Status)
	// Pad past the longest status word so the columns line up.
	if n := 8 - len(entry.Status); n > 0 {
		status += strings.Repeat(" ", n)
	}
	pair := styles.Value.Render(entry.Action + "/" + entry.Target)

	detail := ""
	switch {
	case entry.Error != "":
		detail = styles.ErrorText.Render(entry.Error)
	case entry.Status == execlog.StatusSuccess:
		detail = styles.MutedText.Render(fmt.Sprintf("%dms", entry.DurationMs))
	}

	attempt := ""
	if entry.AttemptNumber > 1 {
		attempt = styles.WarningText.Render(fmt.Sprintf("#%d", entry.AttemptNumber))
	} else if entry.AttemptNumber == 0 {
		attempt = styles.ErrorText.Render("rejected")
	}

	row := "  " + ts + "  " + status + " " + pair
	if attempt != "" {
		row += "  " + attempt
	}
	if detail != "" {
		row += "  " + detail
	}

	if m.width > 1 {
		row = ansi.Truncate(row, m.width-1, "…")
	}
	return row
}

func (m watchModel) renderChart() string {
	completed := make([]float64, len(m.buckets))
	failed := make([]float64, len(m.buckets))
	for i, b := range m.buckets {
		completed[i] = float64(b.completed)
		failed[i] = float64(b.failed)
	}

	chart := components.ThroughputChart("Throughput (per second)", completed, failed, m.width-4)
	return lipgloss.NewStyle().Padding(0, 2).Render(chart)
}

// padToHeight ensures the view string has exactly `height` lines so the alt
// screen renderer always repaints the full terminal.
func padToHeight(view string, width, height int) string {
	if height <= 0 {
		return view
	}
	lines := strings.Split(view, "\n")
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func formatMs(ms float64) string {
	d := time.Duration(ms) * time.Millisecond
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.1fm", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fms", ms)
	}
}
