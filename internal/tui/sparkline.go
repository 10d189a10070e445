package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks is the 8-level block character set for sparklines.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline converts a slice of float64 values into a block sparkline
// string of exactly `width` characters, colored with the given color.
//
// Rules:
//   - Empty values → return width spaces
//   - Values scale from 0 to the window maximum; all zeros → all '▁'
//   - Negative values clamp to the floor
//   - Values longer than width → use last width values
//   - Fewer values than width → left-pad with spaces
func RenderSparkline(values []float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	maxVal := slices.Max(values)

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(values)))
	for _, v := range values {
		sb.WriteRune(sparkBlocks[sparkLevel(v, maxVal)])
	}
	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}

// sparkLevel maps v onto [0, len(sparkBlocks)-1] relative to maxVal.
func sparkLevel(v, maxVal float64) int {
	top := len(sparkBlocks) - 1
	if maxVal <= 0 || v <= 0 {
		return 0
	}
	idx := int(v / maxVal * float64(top))
	return min(max(idx, 0), top)
}
