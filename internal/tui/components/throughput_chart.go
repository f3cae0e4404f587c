package components

import (
	"fmt"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// chartHeight is the fixed height for all throughput sparklines.
const chartHeight = 5

// ThroughputChart renders completed and failed executions per interval as
// two overlaid sparklines with a label header and a totals line.
func ThroughputChart(label string, completed, failed []float64, width int) string {
	if len(completed) == 0 && len(failed) == 0 {
		return styles.MutedText.Render(label + ": no data")
	}
	if len(completed) == 0 {
		completed = make([]float64, len(failed))
	}
	if len(failed) == 0 {
		failed = make([]float64, len(completed))
	}

	// Reserve space for Y-axis labels (number + " ┤" ≈ 9 chars).
	plotWidth := width - 9
	if plotWidth < 10 {
		plotWidth = 10
	}

	chart := asciigraph.PlotMany(
		[][]float64{completed, failed},
		asciigraph.Height(chartHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.DodgerBlue, asciigraph.LightCoral),
		asciigraph.SeriesLegends("ok", "failed"),
		asciigraph.LabelColor(asciigraph.Default),
	)

	summary := styles.MutedText.Render(fmt.Sprintf(
		"  ok: %.0f  failed: %.0f  (last %d intervals)",
		sum(completed), sum(failed), len(completed),
	))

	header := styles.Label.Render(label)
	return lipgloss.JoinVertical(lipgloss.Left, header, chart, summary)
}

func sum(data []float64) float64 {
	var total float64
	for _, v := range data {
		total += v
	}
	return total
}
