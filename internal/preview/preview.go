// Package preview draws the visible window of a dataset as a terminal chart.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/satindergrewal/sonigraph/internal/music"
)

// DefaultHeight is the number of chart rows when none is given.
const DefaultHeight = 8

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	axisStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	markerStyle = lipgloss.NewStyle().Reverse(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))

	// Low to high pitch.
	palette = []lipgloss.Color{"#4a90d9", "#50c8a0", "#e0c050", "#e08040", "#d04848"}
)

var blocks = []rune(" ▁▂▃▄▅▆▇█")

// Frame is one window of a dataset ready to draw.
type Frame struct {
	Title      string
	Start      int
	Values     []float64
	Normalized []float64
	Labels     []string
	Marker     int // window-relative; -1 when not visible
	Range      string
}

// Build selects the window of values visible at zoom and position and maps
// each point to its note. The marker sits at position when it is visible.
func Build(title string, values []float64, m music.Mapping, position int, live bool) Frame {
	norm := music.Normalize(values)
	win := music.SelectWindow(values, m.Zoom, position, live)

	f := Frame{
		Title:      title,
		Start:      win.Start,
		Values:     win.Values,
		Normalized: norm[win.Start : win.Start+len(win.Values)],
		Marker:     -1,
		Range:      music.RangeDescription(m.Zoom),
	}
	f.Labels = make([]string, len(f.Normalized))
	for i, n := range f.Normalized {
		f.Labels[i] = m.Note(n).String()
	}
	if rel := win.Relative(position); win.Contains(rel) {
		f.Marker = rel
	}
	return f
}

// Render draws f with height rows of eighth-block resolution.
func Render(f Frame, height int) string {
	if height < 1 {
		height = DefaultHeight
	}
	var b strings.Builder
	if f.Title != "" {
		b.WriteString(titleStyle.Render(f.Title))
		b.WriteByte('\n')
	}
	if len(f.Normalized) == 0 {
		b.WriteString(statusStyle.Render("No data"))
		b.WriteByte('\n')
		return b.String()
	}

	top, bottom := axisLabels(f)
	gutter := max(len(top), len(bottom))

	for row := height - 1; row >= 0; row-- {
		label := ""
		switch row {
		case height - 1:
			label = top
		case 0:
			label = bottom
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s │", gutter, label)))
		for i, n := range f.Normalized {
			cell := string(cellAt(n, row, height))
			style := lipgloss.NewStyle().Foreground(colorFor(n))
			if i == f.Marker {
				style = style.Inherit(markerStyle)
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteByte('\n')
	}

	b.WriteString(axisStyle.Render(strings.Repeat(" ", gutter) + " └" + strings.Repeat("─", len(f.Normalized))))
	b.WriteByte('\n')

	end := f.Start + len(f.Normalized) - 1
	span := fmt.Sprintf("%d", f.Start)
	if pad := len(f.Normalized) - len(span) - len(fmt.Sprint(end)); pad > 0 {
		span += strings.Repeat(" ", pad) + fmt.Sprint(end)
	}
	b.WriteString(strings.Repeat(" ", gutter+2) + axisStyle.Render(span))
	b.WriteByte('\n')

	b.WriteString(statusStyle.Render(status(f)))
	b.WriteByte('\n')
	return b.String()
}

// Sparkline draws the window on a single row.
func Sparkline(f Frame) string {
	var b strings.Builder
	for i, n := range f.Normalized {
		cell := string(cellAt(n, 0, 1))
		if cell == " " {
			cell = string(blocks[1])
		}
		if i == f.Marker {
			cell = markerStyle.Render(cell)
		}
		b.WriteString(cell)
	}
	return b.String()
}

// cellAt returns the block drawn for a value n at row of height rows.
func cellAt(n float64, row, height int) rune {
	level := int(n*float64(height*8) + 0.5)
	fill := level - row*8
	switch {
	case fill <= 0:
		if row == 0 {
			return blocks[1]
		}
		return blocks[0]
	case fill >= 8:
		return blocks[8]
	default:
		return blocks[fill]
	}
}

func colorFor(n float64) lipgloss.Color {
	i := int(n * float64(len(palette)))
	return palette[min(max(i, 0), len(palette)-1)]
}

// axisLabels returns the notes of the highest and lowest visible points.
func axisLabels(f Frame) (top, bottom string) {
	if len(f.Labels) != len(f.Normalized) {
		return "", ""
	}
	hi, lo := 0, 0
	for i, n := range f.Normalized {
		if n > f.Normalized[hi] {
			hi = i
		}
		if n < f.Normalized[lo] {
			lo = i
		}
	}
	return f.Labels[hi], f.Labels[lo]
}

func status(f Frame) string {
	parts := []string{
		fmt.Sprintf("points %d-%d", f.Start, f.Start+len(f.Normalized)-1),
		f.Range,
	}
	if f.Marker >= 0 && f.Marker < len(f.Labels) && f.Marker < len(f.Values) {
		parts = append(parts, fmt.Sprintf("▶ %d %s (%g)",
			f.Start+f.Marker, f.Labels[f.Marker], f.Values[f.Marker]))
	}
	return strings.Join(parts, "  ·  ")
}
