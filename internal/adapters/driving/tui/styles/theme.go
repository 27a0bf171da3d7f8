// Package styles provides colour themes and styling for the monitor.
package styles

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// Theme is the monitor palette. Outcome colours follow the timeline status:
// Success for processed, Warning for skipped and Error for failed files.
type Theme struct {
	Accent lipgloss.Color
	Filter lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Bar    lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme returns the palette used when none is configured.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  lipgloss.Color("#2A9D8F"), // teal
		Filter:  lipgloss.Color("#E9C46A"), // sand
		Text:    lipgloss.Color("#E0E0E0"),
		Muted:   lipgloss.Color("#7A7A85"),
		Bar:     lipgloss.Color("#1B1B22"),
		Success: lipgloss.Color("#8AC926"),
		Warning: lipgloss.Color("#F4A261"),
		Error:   lipgloss.Color("#E63946"),
	}
}

// Styles holds the lipgloss styles the monitor renders with.
type Styles struct {
	theme *Theme

	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style
}

// NewStyles derives styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		theme:     theme,
		Title:     fg(theme.Accent).Bold(true).PaddingLeft(1),
		Subtitle:  fg(theme.Filter).Bold(true),
		Normal:    fg(theme.Text),
		Muted:     fg(theme.Muted),
		Selected:  fg(theme.Text).Background(theme.Accent).Bold(true),
		Error:     fg(theme.Error),
		Success:   fg(theme.Success),
		Warning:   fg(theme.Warning),
		StatusBar: fg(theme.Muted).Background(theme.Bar).Padding(0, 1),
		Help:      fg(theme.Muted),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette these styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// HelpStyles colours the key help so it matches the status bar hints.
func (s *Styles) HelpStyles() help.Styles {
	keyStyle := lipgloss.NewStyle().Foreground(s.theme.Accent)
	return help.Styles{
		ShortKey:       keyStyle,
		ShortDesc:      s.Help,
		ShortSeparator: s.Muted,
		Ellipsis:       s.Muted,
		FullKey:        keyStyle,
		FullDesc:       s.Help,
		FullSeparator:  s.Muted,
	}
}

// ForEvent picks the style for an event row from its kind and outcome.
func (s *Styles) ForEvent(e domain.Event) lipgloss.Style {
	switch e.Kind {
	case domain.KindItemFailed:
		return s.Error
	case domain.KindTextReady:
		return s.Success
	case domain.KindDedupe:
		if e.DetailString(domain.DetailStatus) == "duplicate" {
			return s.Warning
		}
		return s.Normal
	case domain.KindTimelineRecorded, domain.KindTimelineMerged:
		return s.Muted
	default:
		return s.Normal
	}
}

// ForStatus picks the style for a processing status.
func (s *Styles) ForStatus(status domain.Status) lipgloss.Style {
	switch status {
	case domain.StatusProcessed:
		return s.Success
	case domain.StatusDuplicate, domain.StatusRejected, domain.StatusCancelled:
		return s.Warning
	case domain.StatusError, domain.StatusTimeout:
		return s.Error
	default:
		return s.Muted
	}
}
