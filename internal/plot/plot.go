// Package plot renders histograms as terminal bar charts.
package plot

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors of a chart.
type Theme struct {
	Bar lipgloss.Color
	Dim lipgloss.Color
}

// DefaultTheme is a green theme.
var DefaultTheme = Theme{
	Bar: lipgloss.Color("#00ff9f"),
	Dim: lipgloss.Color("#6e7681"),
}

// Chart renders a bar chart of bin values.
type Chart struct {
	Title  string
	Width  int
	Height int
	Theme  Theme
}

// NewChart returns a chart with the default theme.
func NewChart(title string, width, height int) Chart {
	return Chart{Title: title, Width: width, Height: height, Theme: DefaultTheme}
}

// eighths are the partial block glyphs, from empty to full.
var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Render draws values as vertical bars scaled to the largest value.
func (c Chart) Render(values []float32) string {
	width := max(c.Width, 1)
	height := max(c.Height, 1)

	cols := resample(values, width)
	peak := float32(0)
	for _, v := range cols {
		peak = max(peak, v)
	}

	levels := make([]int, len(cols))
	if peak > 0 {
		for i, v := range cols {
			levels[i] = int(v / peak * float32(height*8))
		}
	}

	rows := make([]string, height)
	var sb strings.Builder
	for r := range height {
		sb.Reset()
		base := (height - 1 - r) * 8
		for _, l := range levels {
			sb.WriteRune(eighths[min(max(l-base, 0), 8)])
		}
		rows[r] = sb.String()
	}

	bar := lipgloss.NewStyle().Foreground(c.Theme.Bar)
	dim := lipgloss.NewStyle().Foreground(c.Theme.Dim)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.Theme.Dim)

	chart := box.Render(bar.Render(strings.Join(rows, "\n")))
	axis := dim.Render(fmt.Sprintf("0%*d bins, max %.4g", max(width-1, 1), len(values), peak))

	parts := []string{}
	if c.Title != "" {
		parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(c.Theme.Bar).Render(c.Title))
	}
	parts = append(parts, chart, axis)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// resample maps values onto width columns. Wider inputs are averaged per
// column; narrower inputs are stretched.
func resample(values []float32, width int) []float32 {
	n := len(values)
	if n == 0 {
		return make([]float32, width)
	}
	cols := make([]float32, width)
	for c := range width {
		lo := c * n / width
		hi := max((c+1)*n/width, lo+1)
		var s float32
		for _, v := range values[lo:hi] {
			s += v
		}
		cols[c] = s / float32(hi-lo)
	}
	return cols
}
