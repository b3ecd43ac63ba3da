package terminal

import "github.com/charmbracelet/lipgloss"

var (
	// Source colors. Orange for Claude, emerald for Codex.
	colorClaude = lipgloss.AdaptiveColor{Light: "#c2410c", Dark: "#fb923c"}
	colorCodex  = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34d399"}

	// UI colors.
	colorBright = lipgloss.AdaptiveColor{Light: "#0f172a", Dark: "#f1f5f9"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"}
)

var (
	styleTitle   = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleHeading = lipgloss.NewStyle().Foreground(colorDim).Bold(true)
	styleDate    = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleWeekday = lipgloss.NewStyle().Foreground(colorDim)

	styleModel = lipgloss.NewStyle().Foreground(colorClaude)
	styleCodex = lipgloss.NewStyle().Foreground(colorCodex)
	styleValue = lipgloss.NewStyle().Foreground(colorBright)
	styleTotal = lipgloss.NewStyle().Foreground(colorBright).Bold(true)

	styleSeparator = lipgloss.NewStyle().Foreground(colorDim)
)
