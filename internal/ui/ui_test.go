package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sappers/internal/field"
	"sappers/internal/game"
	"sappers/internal/sapper"
)

type fakeSession struct {
	game    *game.Game
	actions []sapper.Action
	err     error
}

func (s *fakeSession) Tick(action sapper.Action) error {
	s.actions = append(s.actions, action)
	return s.err
}

func (s *fakeSession) Snapshot() game.Snapshot {
	return s.game.Snapshot()
}

func newScreen(t *testing.T, width, height int) tcell.SimulationScreen {
	t.Helper()
	scr := tcell.NewSimulationScreen("")
	require.NoError(t, scr.Init())
	scr.SetSize(width, height)
	t.Cleanup(scr.Fini)
	return scr
}

func contents(scr tcell.SimulationScreen) ([]string, []tcell.SimCell, int) {
	cells, width, height := scr.GetContents()
	var buf bytes.Buffer
	lines := make([]string, 0, height)
	for i := 0; i < len(cells); i++ {
		if i > 0 && i%width == 0 {
			lines = append(lines, buf.String())
			buf.Reset()
		}
		buf.Write(cells[i].Bytes)
	}
	return append(lines, buf.String()), cells, width
}

func TestDrawLaysOutFrame(t *testing.T) {
	g := game.New(game.DefaultConfig(), game.WithField(field.New(2, 0)))
	g.AddSapper(0, sapper.Player, 0)
	g.AddSapper(1, sapper.Bot, 3)
	scr := newScreen(t, 48, 10)

	Draw(scr, g.Snapshot(), "lost")

	lines, cells, width := contents(scr)
	header := "discovered 0  undiscovered 4  marks 0  mines 0"
	assert.Equal(t, header, lines[0][:len(header)])
	assert.Equal(t, "  0 YOU     0", lines[2][:13])
	assert.Equal(t, "  1 BOT     0", lines[3][:13])
	assert.Equal(t, ". . ", lines[5][:4])
	assert.Equal(t, ". . ", lines[6][:4])
	assert.Equal(t, help, lines[8][:len(help)])
	assert.Equal(t, "lost", lines[9][:4])

	_, _, attrs := cells[5*width].Style.Decompose()
	assert.NotZero(t, attrs&tcell.AttrReverse, "viewer tile is reversed")
	_, bg, _ := cells[6*width+2].Style.Decompose()
	assert.Equal(t, tcell.ColorGray, bg, "other agents are grey")
}

func TestRunForwardsKeys(t *testing.T) {
	session := &fakeSession{game: game.New(game.DefaultConfig())}
	scr := newScreen(t, 40, 20)

	scr.InjectKey(tcell.KeyRight, 0, tcell.ModNone)
	scr.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	scr.InjectKey(tcell.KeyRune, 'm', tcell.ModNone)
	scr.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	scr.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	require.NoError(t, Run(context.Background(), scr, session, time.Hour))
	require.Equal(t, []sapper.Action{
		sapper.ActionNone,
		sapper.ActionRight,
		sapper.ActionToggleMark,
		sapper.ActionDiscover,
	}, session.actions)
}

func TestRunShowsErrorUntilKey(t *testing.T) {
	lost := errors.New("connection lost")
	session := &fakeSession{game: game.New(game.DefaultConfig()), err: lost}
	scr := newScreen(t, 60, 20)

	scr.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	require.ErrorIs(t, Run(context.Background(), scr, session, time.Hour), lost)
	require.Len(t, session.actions, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	session := &fakeSession{game: game.New(game.DefaultConfig())}
	scr := newScreen(t, 40, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, Run(ctx, scr, session, time.Hour))
}
