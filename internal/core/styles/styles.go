// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import "github.com/charmbracelet/lipgloss"

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	DividerStyle       lipgloss.Style
	WarningStyle       lipgloss.Style
	ErrorStyle         lipgloss.Style

	// TUI shared styles.
	HeaderStyle     lipgloss.Style
	TabActiveStyle  lipgloss.Style
	TabStyle        lipgloss.Style
	HelpStyle       lipgloss.Style
	SelectedStyle   lipgloss.Style
	NormalStyle     lipgloss.Style
	UnreadStyle     lipgloss.Style
	ReadStyle       lipgloss.Style
	TimeStyle       lipgloss.Style
	PendingStyle    lipgloss.Style
	HeartStyle      lipgloss.Style
	MediaFrameStyle lipgloss.Style
	ConnectedStyle  lipgloss.Style
	ConnectingStyle lipgloss.Style
	OfflineStyle    lipgloss.Style

	// Toast styles by level.
	ToastInfoStyle    lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	WarningStyle = lipgloss.NewStyle().
		Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true).
		PaddingBottom(1)
	TabActiveStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Primary).
		Bold(true).
		Padding(0, 1)
	TabStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Padding(0, 1)
	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		MarginTop(1)
	SelectedStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	NormalStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	UnreadStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true)
	ReadStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	TimeStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	PendingStyle = lipgloss.NewStyle().
		Foreground(p.Warning).
		Italic(true)
	HeartStyle = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)
	MediaFrameStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 1)
	ConnectedStyle = lipgloss.NewStyle().Foreground(p.Success)
	ConnectingStyle = lipgloss.NewStyle().Foreground(p.Warning)
	OfflineStyle = lipgloss.NewStyle().Foreground(p.Error)

	toast := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Foreground(p.Foreground)
	ToastInfoStyle = toast.BorderForeground(p.Primary)
	ToastWarningStyle = toast.BorderForeground(p.Warning)
	ToastErrorStyle = toast.BorderForeground(p.Error)
}

// ApplyTheme switches to the named theme. It returns false and keeps the
// current theme when the name is unknown.
func ApplyTheme(name string) bool {
	p, ok := GetPalette(name)
	if !ok {
		return false
	}
	SetTheme(p)
	return true
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
