// Package list provides the event list component for the monitor.
package list

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// DefaultCapacity is how many events the list keeps before dropping the oldest.
const DefaultCapacity = 2000

// EventList displays the tail of the event stream. While following it keeps
// the newest event selected; moving the selection stops following.
type EventList struct {
	events    []domain.Event
	capacity  int
	filter    domain.EventKind
	selected  int
	following bool
	styles    *styles.Styles
	width     int
	height    int
}

// NewEventList creates a new event list component.
func NewEventList(s *styles.Styles, capacity int) *EventList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &EventList{
		capacity:  capacity,
		following: true,
		styles:    s,
		width:     80,
		height:    10,
	}
}

// Append adds an event, dropping the oldest when full.
func (l *EventList) Append(e domain.Event) {
	l.events = append(l.events, e)
	if over := len(l.events) - l.capacity; over > 0 {
		l.events = append(l.events[:0], l.events[over:]...)
	}
	visible := l.Visible()
	if l.following {
		l.selected = len(visible) - 1
	} else if l.selected >= len(visible) {
		l.selected = len(visible) - 1
	}
}

// Visible returns the events that pass the kind filter.
func (l *EventList) Visible() []domain.Event {
	if l.filter == "" {
		return l.events
	}
	out := make([]domain.Event, 0, len(l.events))
	for _, e := range l.events {
		if e.Kind == l.filter {
			out = append(out, e)
		}
	}
	return out
}

// SetFilter restricts the list to one kind. Empty shows everything.
func (l *EventList) SetFilter(kind domain.EventKind) {
	l.filter = kind
	l.selected = len(l.Visible()) - 1
}

// Filter returns the current kind filter.
func (l *EventList) Filter() domain.EventKind {
	return l.filter
}

// MoveUp moves the selection to an older event and stops following.
func (l *EventList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
	l.following = false
}

// MoveDown moves the selection to a newer event.
func (l *EventList) MoveDown() {
	if l.selected < len(l.Visible())-1 {
		l.selected++
	}
}

// Follow selects the newest event and keeps it selected as events arrive.
func (l *EventList) Follow() {
	l.following = true
	l.selected = len(l.Visible()) - 1
}

// SetFollowing turns tailing on or off without moving the selection.
func (l *EventList) SetFollowing(following bool) {
	if following {
		l.Follow()
		return
	}
	l.following = false
}

// Following reports whether the list is tailing the stream.
func (l *EventList) Following() bool {
	return l.following
}

// Selected returns the index of the selected event among visible events.
func (l *EventList) Selected() int {
	return l.selected
}

// SelectedEvent returns the selected event, or nil if the list is empty.
func (l *EventList) SelectedEvent() *domain.Event {
	visible := l.Visible()
	if l.selected < 0 || l.selected >= len(visible) {
		return nil
	}
	return &visible[l.selected]
}

// Count returns the number of events held, ignoring the filter.
func (l *EventList) Count() int {
	return len(l.events)
}

// SetDimensions sets the component dimensions.
func (l *EventList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// View renders the window of events around the selection.
func (l *EventList) View() string {
	visible := l.Visible()
	if len(visible) == 0 {
		return l.styles.Muted.Render("Waiting for events...")
	}

	rows := l.height
	if rows < 1 {
		rows = 1
	}
	end := l.selected + 1
	if end < rows {
		end = min(rows, len(visible))
	}
	start := max(0, end-rows)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderEvent(i, visible[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *EventList) renderEvent(index int, e domain.Event) string {
	line := fmt.Sprintf("%6d  %s  %-17s  %s",
		e.Seq, e.TS.Local().Format(time.TimeOnly), e.Kind, e.FileRelpath)
	if e.Title != "" {
		line += "  " + e.Title
	}
	if maxLen := l.width - 2; maxLen > 10 && len([]rune(line)) > maxLen {
		line = string([]rune(line)[:maxLen-3]) + "..."
	}

	if index == l.selected && !l.following {
		return l.styles.Selected.Render("> " + line)
	}
	return l.styles.ForEvent(e).Render("  " + line)
}
