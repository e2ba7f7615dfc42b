package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/foxzi/disparo/internal/display"
)

var (
	colorPrimary = lipgloss.Color("#0e121b")
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#6b7280")
	colorSuccess = lipgloss.Color("#15803d")
	colorWarning = lipgloss.Color("#a16207")
	colorInfo    = lipgloss.Color("#1d4ed8")
	colorDanger  = lipgloss.Color("#b91c1c")
)

// Styles holds the lipgloss styles of the console
type Styles struct {
	Title    lipgloss.Style
	Tab      lipgloss.Style
	TabOn    lipgloss.Style
	Header   lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Modal    lipgloss.Style
	Box      lipgloss.Style

	badges map[display.Tone]lipgloss.Style
}

// DefaultStyles returns the console styles
func DefaultStyles() Styles {
	badge := lipgloss.NewStyle().Padding(0, 1)
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Tab:      lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted),
		TabOn:    lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true),
		Header:   lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Label:    lipgloss.NewStyle().Foreground(colorMuted),
		Value:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Error:    lipgloss.NewStyle().Foreground(colorDanger),
		Success:  lipgloss.NewStyle().Foreground(colorSuccess),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDanger).
			Padding(1, 2),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1),
		badges: map[display.Tone]lipgloss.Style{
			display.ToneMuted:   badge.Foreground(colorMuted),
			display.ToneSuccess: badge.Foreground(colorSuccess),
			display.ToneWarning: badge.Foreground(colorWarning),
			display.ToneInfo:    badge.Foreground(colorInfo),
			display.ToneDanger:  badge.Foreground(colorDanger),
		},
	}
}

// Badge renders a status badge. Unknown tones render unstyled.
func (s Styles) Badge(b display.Badge) string {
	st, ok := s.badges[b.Tone]
	if !ok {
		return b.Label
	}
	return st.Render(b.Label)
}
