package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowtower/pkg/flow"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorOrange = lipgloss.Color("208") // Orange - loops
	colorPurple = lipgloss.Color("141") // Purple - subflows
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleFault for nodes on a fault path.
	StyleFault = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// typeStyles colors node types by family in tables.
var typeStyles = map[flow.NodeType]lipgloss.Style{
	flow.TypeStart:       lipgloss.NewStyle().Foreground(colorGreen),
	flow.TypeEnd:         lipgloss.NewStyle().Foreground(colorGray),
	flow.TypeDecision:    lipgloss.NewStyle().Foreground(colorYellow),
	flow.TypeWait:        lipgloss.NewStyle().Foreground(colorYellow),
	flow.TypeLoop:        lipgloss.NewStyle().Foreground(colorOrange),
	flow.TypeSubflow:     lipgloss.NewStyle().Foreground(colorPurple),
	flow.TypeCustomError: lipgloss.NewStyle().Foreground(colorRed),
	flow.TypeOrphan:      lipgloss.NewStyle().Foreground(colorDim),
}

// typeStyle returns the table style for a node type. Record operations and
// actions share the primary color.
func typeStyle(t flow.NodeType) lipgloss.Style {
	if s, ok := typeStyles[t]; ok {
		return s
	}
	return lipgloss.NewStyle().Foreground(colorCyan)
}

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output file.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// flowStats summarizes a pipeline run for one status line.
type flowStats struct {
	nodes, edges, rows, warnings int
	cached                       bool
}

// printStats prints graph statistics on a single line, e.g.
// "14 nodes · 15 edges · 9 rows · cached".
func printStats(w io.Writer, s flowStats) {
	var parts []string
	if s.nodes > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d nodes", s.nodes)))
	}
	if s.edges > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d edges", s.edges)))
	}
	if s.rows > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d rows", s.rows)))
	}
	if s.warnings > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d warnings", s.warnings)))
	}
	if s.cached {
		parts = append(parts, styleCached.Render(iconCached))
	} else {
		parts = append(parts, styleComputed.Render(iconFresh))
	}
	fmt.Fprintln(w, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// printNextStep prints a suggested next command.
func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline(w io.Writer) {
	fmt.Fprintln(w)
}
