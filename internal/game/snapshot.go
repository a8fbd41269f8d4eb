package game

import (
	"sort"

	"sappers/internal/field"
	"sappers/internal/sapper"
)

// Tile is the render state of one grid position.
type Tile struct {
	field.Mark
	// Reverse is set on the viewer's own position.
	Reverse bool
}

// Stats is the header shown above the score board.
type Stats struct {
	Discovered   int
	Undiscovered int
	Marks        int
	MinesLeft    int
}

// Entry is one line of the score board.
type Entry struct {
	ID       uint8
	Name     string
	Score    uint16
	Alive    bool
	IsPlayer bool
	// Won is set for a living player on a cleaned field.
	Won bool
}

// Snapshot is everything a presentation layer needs to draw one frame.
type Snapshot struct {
	Size  uint8
	Tiles []Tile
	Stats Stats
	Board []Entry
}

// Snapshot captures the field from the local player's point of view. Other
// living agents are highlighted grey.
func (g *Game) Snapshot() Snapshot {
	var viewer *sapper.Sapper
	others := make(map[uint16]struct{}, len(g.sappers))
	for _, s := range g.sappers {
		if !s.Alive {
			continue
		}
		if s.IsPlayer() {
			viewer = s
		} else {
			others[s.Position] = struct{}{}
		}
	}

	cells := g.field.Cells()
	tiles := make([]Tile, len(cells))
	for i, cell := range cells {
		position := uint16(i)
		isViewer := viewer != nil && viewer.Position == position
		tile := Tile{
			Mark:    cell.Mark(viewer != nil && viewer.HasMarked(position)),
			Reverse: isViewer,
		}
		if _, ok := others[position]; ok && !isViewer {
			tile.Background = field.ColorGrey
		}
		tiles[i] = tile
	}

	return Snapshot{
		Size:  g.field.Size(),
		Tiles: tiles,
		Stats: g.stats(),
		Board: g.board(),
	}
}

func (g *Game) stats() Stats {
	marks := 0
	if p, ok := g.Player(); ok {
		marks = p.MarksCount()
	}
	left := g.field.MinesCount() - marks
	if left < 0 {
		left = 0
	}
	return Stats{
		Discovered:   g.field.DiscoveredCount(),
		Undiscovered: g.field.UndiscoveredCount(),
		Marks:        marks,
		MinesLeft:    left,
	}
}

func (g *Game) board() []Entry {
	cleaned := g.field.IsCleaned()
	entries := make([]Entry, 0, len(g.sappers))
	for _, s := range g.sappers {
		entries = append(entries, Entry{
			ID:       s.ID(),
			Name:     s.Name(),
			Score:    s.Score,
			Alive:    s.Alive,
			IsPlayer: s.IsPlayer(),
			Won:      s.IsPlayer() && s.Alive && cleaned,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}
