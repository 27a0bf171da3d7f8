// Package status provides the status bar component for the monitor.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// State represents what the monitor is doing.
type State string

const (
	StateFollowing State = "following"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
	StateError     State = "error"
)

// tallyOrder is the order outcome counts are shown in.
var tallyOrder = []domain.Status{
	domain.StatusProcessed, domain.StatusDuplicate, domain.StatusRejected,
	domain.StatusError, domain.StatusTimeout, domain.StatusCancelled,
}

// Bar displays monitor state, outcome counts and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	filter  domain.EventKind
	events  int
	tally   map[domain.Status]int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateFollowing,
		tally:  make(map[domain.Status]int),
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var head string
	switch s.state {
	case StatePaused:
		head = s.styles.Warning.Render("Paused")
	case StateStopped:
		head = s.styles.Muted.Render("Stopped")
	case StateError:
		if s.message != "" {
			head = s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		} else {
			head = s.styles.Error.Render("Error")
		}
	default:
		head = s.styles.Success.Render("Following")
	}

	parts := []string{head, s.styles.Normal.Render(fmt.Sprintf("%d events", s.events))}
	if s.filter != "" {
		parts = append(parts, s.styles.Subtitle.Render("kind="+string(s.filter)))
	}
	for _, st := range tallyOrder {
		if n := s.tally[st]; n > 0 {
			parts = append(parts, s.styles.ForStatus(st).Render(fmt.Sprintf("%d %s", n, st)))
		}
	}
	return strings.Join(parts, s.styles.Muted.Render(" · "))
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetFilter sets the kind filter shown.
func (s *Bar) SetFilter(kind domain.EventKind) {
	s.filter = kind
}

// Observe counts an event. Recorded outcomes feed the tally.
func (s *Bar) Observe(e domain.Event) {
	s.events++
	if e.Kind == domain.KindTimelineRecorded {
		s.tally[domain.Status(e.DetailString(domain.DetailStatus))]++
	}
}

// Events returns how many events were observed.
func (s *Bar) Events() int {
	return s.events
}

// Tally returns how many outcomes with status were recorded.
func (s *Bar) Tally(status domain.Status) int {
	return s.tally[status]
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
