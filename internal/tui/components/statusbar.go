package components

import (
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// StatusBar renders one labeled message line above the footer, used for
// the most recent failure while the feed keeps scrolling. An empty message
// collapses to nothing so the feed keeps the row.
func StatusBar(width int, message string, isError bool) string {
	if message == "" {
		return ""
	}

	label := styles.MutedText.Render("note")
	text := styles.MutedText.Render(message)
	if isError {
		label = styles.ErrorText.Bold(true).Render("last failure")
		text = styles.ErrorText.Render(message)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		Render(label + "  " + text)
}
