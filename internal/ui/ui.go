package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell"

	"sappers/internal/field"
	"sappers/internal/game"
	"sappers/internal/sapper"
)

// Session is the game loop the terminal drives.
type Session interface {
	Tick(action sapper.Action) error
	Snapshot() game.Snapshot
}

const help = "arrows move  m mark  space discover  esc quit"

var colors = map[field.Color]tcell.Color{
	field.ColorDefault: tcell.ColorDefault,
	field.ColorBlue:    tcell.ColorBlue,
	field.ColorGreen:   tcell.ColorGreen,
	field.ColorRed:     tcell.ColorRed,
	field.ColorNavy:    tcell.ColorNavy,
	field.ColorMaroon:  tcell.ColorMaroon,
	field.ColorAqua:    tcell.ColorAqua,
	field.ColorPurple:  tcell.ColorPurple,
	field.ColorGrey:    tcell.ColorGray,
}

// Run draws the session on an initialized screen and feeds it the player's
// keys until Esc, ctx cancellation or a session error. Every key press ticks
// the session immediately; between presses it ticks once per interval. A
// session error is shown until the next key and then returned.
func Run(ctx context.Context, screen tcell.Screen, session Session, interval time.Duration) error {
	keys := make(chan tcell.Event, 16)
	go poll(ctx, screen, keys)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	step := func(action sapper.Action) error {
		err := session.Tick(action)
		status := ""
		if err != nil {
			status = fmt.Sprintf("%v (press any key)", err)
		}
		Draw(screen, session.Snapshot(), status)
		return err
	}

	err := step(sapper.ActionNone)
	for err == nil {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err = step(sapper.ActionNone)
		case ev := <-keys:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if isQuit(ev) {
					return nil
				}
				if action, ok := actionFor(ev); ok {
					err = step(action)
				}
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return err
		case ev := <-keys:
			if _, ok := ev.(*tcell.EventKey); ok {
				return err
			}
		}
	}
}

// poll forwards screen events until the screen is finalized.
func poll(ctx context.Context, screen tcell.Screen, out chan<- tcell.Event) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC
}

func actionFor(ev *tcell.EventKey) (sapper.Action, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return sapper.ActionUp, true
	case tcell.KeyDown:
		return sapper.ActionDown, true
	case tcell.KeyLeft:
		return sapper.ActionLeft, true
	case tcell.KeyRight:
		return sapper.ActionRight, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'm', 'M':
			return sapper.ActionToggleMark, true
		case ' ':
			return sapper.ActionDiscover, true
		}
	}
	return sapper.ActionNone, false
}

// Draw renders one frame: the statistics header, the score board, the grid
// and a status line.
func Draw(screen tcell.Screen, snap game.Snapshot, status string) {
	screen.Clear()
	plain := tcell.StyleDefault

	s := snap.Stats
	row := 0
	drawText(screen, 0, row, plain, fmt.Sprintf("discovered %d  undiscovered %d  marks %d  mines %d",
		s.Discovered, s.Undiscovered, s.Marks, s.MinesLeft))
	row += 2

	for _, entry := range snap.Board {
		drawText(screen, 0, row, boardStyle(entry), boardLine(entry))
		row++
	}
	row++

	size := int(snap.Size)
	for i, tile := range snap.Tiles {
		x, y := i%size, i/size
		style := plain.
			Foreground(colors[tile.Foreground]).
			Background(colors[tile.Background]).
			Reverse(tile.Reverse)
		screen.SetContent(x*2, row+y, tile.Symbol, nil, style)
		screen.SetContent(x*2+1, row+y, ' ', nil, style)
	}
	row += size + 1

	drawText(screen, 0, row, plain.Foreground(tcell.ColorGray), help)
	if status != "" {
		drawText(screen, 0, row+1, plain.Foreground(tcell.ColorRed), status)
	}
	screen.Show()
}

func boardLine(e game.Entry) string {
	line := fmt.Sprintf("%3d %s %5d", e.ID, e.Name, e.Score)
	switch {
	case e.Won:
		line += " won"
	case !e.Alive:
		line += " dead"
	}
	return line
}

func boardStyle(e game.Entry) tcell.Style {
	style := tcell.StyleDefault
	if e.IsPlayer {
		style = style.Bold(true)
	}
	if !e.Alive {
		style = style.Foreground(tcell.ColorGray)
	}
	return style
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
