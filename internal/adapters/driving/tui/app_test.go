package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/intake-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/intake-cli/internal/core/domain"
	"github.com/custodia-labs/intake-cli/internal/core/ports/driving"
)

// fakeBus replays a fixed set of events, then closes with err.
type fakeBus struct {
	events []domain.Event
	err    error
	from   domain.Cursor
}

func (b *fakeBus) Publish(_ context.Context, e domain.Event) (domain.Event, error) {
	return e, nil
}

func (b *fakeBus) Replay(_ context.Context, _ domain.Cursor) ([]domain.Event, error) {
	return b.events, nil
}

func (b *fakeBus) Consume(_ context.Context, from domain.Cursor) (<-chan domain.Event, <-chan error) {
	b.from = from
	events := make(chan domain.Event, len(b.events))
	errc := make(chan error, 1)
	for _, e := range b.events {
		events <- e
	}
	close(events)
	errc <- b.err
	close(errc)
	return events, errc
}

func (b *fakeBus) Subscribe(context.Context, string, driving.Handler) error {
	return nil
}

func (b *fakeBus) Drain(context.Context, string, driving.Handler) error {
	return nil
}

func newTestApp(t *testing.T, bus *fakeBus) *App {
	t.Helper()
	app, err := NewApp(&Ports{Bus: bus, From: 5})
	require.NoError(t, err)
	app.SetDimensions(120, 30)
	return app
}

// drain feeds stream messages back into the app until the stream ends.
func drain(t *testing.T, app *App) {
	t.Helper()
	cmd := app.waitForEvent()
	for i := 0; cmd != nil; i++ {
		require.Less(t, i, 100)
		_, cmd = app.Update(cmd())
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewApp_MissingBus(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingEventBus)
	assert.Nil(t, app)
}

func TestApp_ConsumesStream(t *testing.T) {
	bus := &fakeBus{events: []domain.Event{
		{Seq: 6, Kind: domain.KindIntake, FileRelpath: "a.pdf"},
		{Seq: 7, Kind: domain.KindTimelineRecorded, FileRelpath: "a.pdf",
			Details: map[string]any{domain.DetailStatus: "processed"}},
	}}
	app := newTestApp(t, bus)

	require.NotNil(t, app.Init())
	drain(t, app)

	assert.Equal(t, domain.Cursor(5), bus.from)
	assert.Equal(t, 2, app.List().Count())
	assert.Equal(t, 1, app.Bar().Tally(domain.StatusProcessed))
	assert.Equal(t, status.StateStopped, app.Bar().State())
	assert.Contains(t, app.View(), "a.pdf")
}

func TestApp_StreamError(t *testing.T) {
	app := newTestApp(t, &fakeBus{err: errors.New("store closed")})
	app.Init()

	drain(t, app)

	assert.Equal(t, status.StateError, app.Bar().State())
	assert.Equal(t, "store closed", app.Bar().Message())
}

func TestApp_Keys(t *testing.T) {
	bus := &fakeBus{events: []domain.Event{
		{Seq: 1, Kind: domain.KindIntake},
		{Seq: 2, Kind: domain.KindDedupe},
		{Seq: 3, Kind: domain.KindIntake},
	}}

	t.Run("pause toggles following", func(t *testing.T) {
		app := newTestApp(t, bus)
		app.Update(keyPress(" "))
		assert.False(t, app.List().Following())
		assert.Equal(t, status.StatePaused, app.Bar().State())

		app.Update(keyPress(" "))
		assert.True(t, app.List().Following())
		assert.Equal(t, status.StateFollowing, app.Bar().State())
	})

	t.Run("filter cycles kinds", func(t *testing.T) {
		app := newTestApp(t, bus)
		app.Init()
		drain(t, app)

		app.Update(keyPress("f"))
		assert.Equal(t, domain.KindIntake, app.List().Filter())
		assert.Len(t, app.List().Visible(), 2)

		app.Update(keyPress("f"))
		assert.Equal(t, domain.KindDedupe, app.List().Filter())
	})

	t.Run("help toggles", func(t *testing.T) {
		app := newTestApp(t, bus)
		app.Update(keyPress("?"))
		assert.True(t, app.ShowingHelp())
		assert.Contains(t, app.View(), "follow")
	})

	t.Run("quit", func(t *testing.T) {
		app := newTestApp(t, bus)
		_, cmd := app.Update(keyPress("q"))
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
		assert.Error(t, app.ctx.Err())
	})
}

func TestApp_WindowSize(t *testing.T) {
	app := newTestApp(t, &fakeBus{})

	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Equal(t, 100, app.Bar().Width())
}

func TestApp_EventReceivedKeepsWaiting(t *testing.T) {
	app := newTestApp(t, &fakeBus{})
	app.Init()

	_, cmd := app.Update(messages.EventReceived{Event: domain.Event{Seq: 1, Kind: domain.KindIntake}})

	assert.NotNil(t, cmd)
	assert.Equal(t, 1, app.List().Count())
}
