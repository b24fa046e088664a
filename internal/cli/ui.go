package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/phanxgames/canopy"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
)

const (
	iconSuccess = "✓"
	iconArrow   = "→"
	iconDefault = "default"
)

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, styleTitle.Render(title))
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+styleValue.Render(value))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+styleDim.Render(iconArrow)+" "+styleValue.Render(path))
}

// printStats prints the renderer's counters as an aligned key/value block.
func printStats(w io.Writer, st canopy.FrameStats) {
	printKeyValue(w, "frames", fmt.Sprintf("%d rendered, %d skipped, %d aborted", st.Frames, st.Skipped, st.Aborted))
	printKeyValue(w, "last frame", st.LastFrameDuration.String())
	printKeyValue(w, "painted", fmt.Sprintf("%d nodes", st.NodesPainted))
	printKeyValue(w, "cache", fmt.Sprintf("%d hits, %d misses", st.CacheHits, st.CacheMisses))
	printKeyValue(w, "cached", fmt.Sprintf("%d nodes, %s", st.CachedNodes, formatBytes(st.CachedBytes)))
}

// printBackends prints one backend per line, marking the default.
func printBackends(w io.Writer, names []string, def string) {
	for _, name := range names {
		line := "  " + styleValue.Render(name)
		if name == def {
			line += " " + styleDim.Render("("+iconDefault+")")
		}
		fmt.Fprintln(w, line)
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), strings.ToUpper("kmgtpe")[exp])
}
