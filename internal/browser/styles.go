package browser

import "github.com/charmbracelet/lipgloss"

// CursorMarker is the prefix shown on the selected row.
const CursorMarker = "▸ "

// FavoriteBadge marks an entity that is already a favorite.
const FavoriteBadge = "★ favorite"

var (
	accentColor = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	mutedColor  = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	errorColor  = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	favColor    = lipgloss.AdaptiveColor{Light: "3", Dark: "11"}

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	mutedText  = lipgloss.NewStyle().Foreground(mutedColor)
	errorText  = lipgloss.NewStyle().Foreground(errorColor)
	labelStyle = lipgloss.NewStyle().Bold(true)
	favStyle   = lipgloss.NewStyle().Foreground(favColor)
	selected   = lipgloss.NewStyle().Foreground(accentColor)
)

// ErrorBanner renders the most recent failure as a bordered banner.
// An empty message renders nothing.
func ErrorBanner(msg string, width int) string {
	if msg == "" {
		return ""
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errorColor).
		Foreground(errorColor).
		Padding(0, 1)
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render("Error: " + msg)
}

// Card renders one favorite as a bordered card.
func Card(body string, focused bool) string {
	border := mutedColor
	if focused {
		border = accentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(body)
}

// Column pads s to width cells, truncating with an ellipsis when longer.
func Column(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > width {
		if width == 1 {
			return "…"
		}
		s = string(r[:width-1]) + "…"
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
