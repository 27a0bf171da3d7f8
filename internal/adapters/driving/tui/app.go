package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// filterCycle is the order the filter key steps through event kinds.
var filterCycle = []domain.EventKind{
	"",
	domain.KindIntake,
	domain.KindDedupe,
	domain.KindTextReady,
	domain.KindItemFailed,
	domain.KindTimelineRecorded,
	domain.KindTimelineMerged,
}

// App is the monitor following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	cancel context.CancelFunc

	styles *styles.Styles
	keymap *keymap.KeyMap
	list   *list.EventList
	bar    *status.Bar
	help   help.Model

	showHelp bool
	filter   int

	// events and errc are the open stream, nil until Init.
	events <-chan domain.Event
	errc   <-chan error

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a monitor over the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	ctx, cancel := context.WithCancel(context.Background())
	h := help.New()
	h.Styles = s.HelpStyles()

	return &App{
		ports:  ports,
		ctx:    ctx,
		cancel: cancel,
		styles: s,
		keymap: km,
		list:   list.NewEventList(s, 0),
		bar:    status.NewBar(s, km),
		help:   h,
		width:  80,
		height: 24,
	}, nil
}

// WithContext sets the context the stream is read under.
func (a *App) WithContext(ctx context.Context) *App {
	a.cancel()
	a.ctx, a.cancel = context.WithCancel(ctx)
	return a
}

// Init implements tea.Model. It opens the stream and waits for the first event.
func (a *App) Init() tea.Cmd {
	a.events, a.errc = a.ports.Bus.Consume(a.ctx, a.ports.From)
	return tea.Batch(
		tea.SetWindowTitle("intake monitor"),
		a.waitForEvent(),
	)
}

// waitForEvent reads the next event off the stream.
func (a *App) waitForEvent() tea.Cmd {
	events, errc := a.events, a.errc
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return messages.StreamEnded{Err: <-errc}
		}
		return messages.EventReceived{Event: e}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.EventReceived:
		a.list.Append(msg.Event)
		a.bar.Observe(msg.Event)
		return a, a.waitForEvent()

	case messages.StreamEnded:
		if msg.Err != nil {
			a.bar.SetState(status.StateError)
			a.bar.SetMessage(msg.Err.Error())
		} else {
			a.bar.SetState(status.StateStopped)
		}
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		a.cancel()
		return a, tea.Quit
	case key.Matches(msg, a.keymap.Help):
		a.showHelp = !a.showHelp
		a.layout()
	case key.Matches(msg, a.keymap.Up):
		a.list.MoveUp()
		a.syncState()
	case key.Matches(msg, a.keymap.Down):
		a.list.MoveDown()
	case key.Matches(msg, a.keymap.Follow):
		a.list.Follow()
		a.syncState()
	case key.Matches(msg, a.keymap.Pause):
		a.list.SetFollowing(!a.list.Following())
		a.syncState()
	case key.Matches(msg, a.keymap.Filter):
		a.filter = (a.filter + 1) % len(filterCycle)
		a.list.SetFilter(filterCycle[a.filter])
		a.bar.SetFilter(filterCycle[a.filter])
	}
	return a, nil
}

// syncState mirrors the list's follow mode into the status bar unless the
// stream has already ended.
func (a *App) syncState() {
	switch a.bar.State() {
	case status.StateStopped, status.StateError:
		return
	}
	if a.list.Following() {
		a.bar.SetState(status.StateFollowing)
	} else {
		a.bar.SetState(status.StatePaused)
	}
}

// View implements tea.Model.
func (a *App) View() string {
	title := a.styles.Title.Render("intake monitor")
	sections := []string{title, a.list.View()}
	if a.showHelp {
		sections = append(sections, a.help.FullHelpView(a.keymap.FullHelp()))
	}
	sections = append(sections, a.bar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions resizes the monitor and its components.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.layout()
}

func (a *App) layout() {
	// Title and status bar take one line each.
	rows := a.height - 2
	if a.showHelp {
		rows -= lipgloss.Height(a.help.FullHelpView(a.keymap.FullHelp()))
	}
	a.list.SetDimensions(a.width, max(rows, 1))
	a.bar.SetWidth(a.width)
	a.help.Width = a.width
}

// List returns the event list component.
func (a *App) List() *list.EventList {
	return a.list
}

// Bar returns the status bar component.
func (a *App) Bar() *status.Bar {
	return a.bar
}

// ShowingHelp reports whether the full help is visible.
func (a *App) ShowingHelp() bool {
	return a.showHelp
}
