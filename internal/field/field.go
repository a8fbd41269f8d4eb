package field

import (
	"math/rand"

	"sappers/internal/event"
)

// MaxSize is the largest side length; MaxSize² positions fit in uint16.
const MaxSize = 255

// Result is the outcome of a discovery request.
type Result uint8

const (
	Success Result = iota
	Failure
	AlreadyDiscovered
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case AlreadyDiscovered:
		return "already_discovered"
	default:
		return "unknown"
	}
}

// Emitter receives the events a field produces while it mutates.
type Emitter interface {
	Fire(data event.Data, source, target event.Peer)
}

// Option configures a field at construction.
type Option func(*Field)

// WithRand sets the generator used for mine placement and random positions.
func WithRand(rng *rand.Rand) Option {
	return func(f *Field) {
		if rng != nil {
			f.rng = rng
		}
	}
}

// WithMines fixes the mine layout up front instead of generating it on the
// first discovery. Positions outside the grid are ignored.
func WithMines(positions ...uint16) Option {
	return func(f *Field) {
		f.minesPlaced = true
		for _, p := range positions {
			if int(p) < len(f.cells) {
				f.mines[p] = struct{}{}
			}
		}
	}
}

// Field is a square grid of cells with lazily placed mines.
type Field struct {
	size        uint8
	cells       []Cell
	mines       map[uint16]struct{}
	density     float64
	minesPlaced bool
	discovered  int
	exploded    int
	rng         *rand.Rand
}

// New builds an undiscovered field. Mines are placed on the first Discover.
func New(size uint8, density float64, opts ...Option) *Field {
	total := int(size) * int(size)
	f := &Field{
		size:    size,
		cells:   make([]Cell, total),
		mines:   make(map[uint16]struct{}),
		density: density,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.rng == nil {
		f.rng = NewRand("", "field")
	}
	return f
}

func (f *Field) placeMines(first uint16) {
	f.minesPlaced = true
	excluded := make(map[uint16]struct{}, 9)
	for _, p := range f.Around(first, true) {
		excluded[p] = struct{}{}
	}
	for i := range f.cells {
		p := uint16(i)
		if _, skip := excluded[p]; skip {
			continue
		}
		if f.rng.Float64() < f.density {
			f.mines[p] = struct{}{}
		}
	}
}

// Discover reveals a position. The first call on a field places the mines
// away from the 3×3 block around it. Revealing a zero-count cell reveals its
// neighbors until the open region is bordered by counted cells.
func (f *Field) Discover(position uint16, events Emitter) Result {
	if int(position) >= len(f.cells) {
		return AlreadyDiscovered
	}
	if !f.minesPlaced {
		f.placeMines(position)
	}

	result := f.discoverOne(position, events)
	if result != Success || f.cells[position].minesAround != 0 {
		return result
	}

	pending := f.Around(position, false)
	for len(pending) > 0 {
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if f.discoverOne(next, events) == Success && f.cells[next].minesAround == 0 {
			pending = append(pending, f.Around(next, false)...)
		}
	}
	return result
}

func (f *Field) discoverOne(position uint16, events Emitter) Result {
	cell := &f.cells[position]
	if cell.discovered || cell.exploded {
		return AlreadyDiscovered
	}

	if _, mined := f.mines[position]; mined {
		delete(f.mines, position)
		cell.exploded = true
		f.exploded++
		fire(events, event.CellExplode(position))
		return Failure
	}

	var count uint8
	for _, p := range f.Around(position, false) {
		if f.IsMined(p) {
			count++
		}
	}
	cell.minesAround = count
	cell.discovered = true
	f.discovered++
	fire(events, event.CellDiscover(position, count))
	return Success
}

// ExplodeMines reveals every remaining mine and empties the mine set. It
// returns the number of cells that exploded.
func (f *Field) ExplodeMines(events Emitter) int {
	if len(f.mines) == 0 {
		return 0
	}
	count := 0
	for i := range f.cells {
		p := uint16(i)
		if _, mined := f.mines[p]; !mined {
			continue
		}
		cell := &f.cells[p]
		if !cell.exploded && !cell.discovered {
			cell.exploded = true
			f.exploded++
			count++
			fire(events, event.CellExplode(p))
		}
	}
	clear(f.mines)
	return count
}

// ApplyDiscovered records a discovery decided elsewhere. It returns false
// when the position is outside the grid.
func (f *Field) ApplyDiscovered(position uint16, minesAround uint8) bool {
	if int(position) >= len(f.cells) {
		return false
	}
	cell := &f.cells[position]
	if cell.discovered || cell.exploded {
		return true
	}
	cell.minesAround = minesAround
	cell.discovered = true
	f.discovered++
	return true
}

// ApplyExploded records an explosion decided elsewhere. It returns false when
// the position is outside the grid.
func (f *Field) ApplyExploded(position uint16) bool {
	if int(position) >= len(f.cells) {
		return false
	}
	cell := &f.cells[position]
	if cell.discovered || cell.exploded {
		return true
	}
	delete(f.mines, position)
	cell.exploded = true
	f.exploded++
	return true
}

func fire(events Emitter, data event.Data) {
	if events != nil {
		events.Fire(data, "", "")
	}
}

var shifts = [3]int{-1, 0, 1}

// Around lists the valid positions in the 3×3 block centered on center, in
// row-major order, optionally including center itself.
func (f *Field) Around(center uint16, includeCenter bool) []uint16 {
	positions := make([]uint16, 0, 9)
	for _, dy := range shifts {
		for _, dx := range shifts {
			if dx == 0 && dy == 0 && !includeCenter {
				continue
			}
			if p, ok := f.Move(center, dx, dy); ok {
				positions = append(positions, p)
			}
		}
	}
	return positions
}

// Move shifts a position by whole cells, failing when it leaves the grid.
func (f *Field) Move(position uint16, dx, dy int) (uint16, bool) {
	size := int(f.size)
	x, y := f.Coordinate(position)
	nx := int(x) + dx
	ny := int(y) + dy
	if nx < 0 || nx >= size || ny < 0 || ny >= size {
		return 0, false
	}
	return uint16(ny*size + nx), true
}

// Coordinate converts a row-major position into column and row.
func (f *Field) Coordinate(position uint16) (x, y uint16) {
	if f.size == 0 {
		return 0, 0
	}
	size := uint16(f.size)
	return position % size, position / size
}

// Distance is the Manhattan distance between two positions.
func (f *Field) Distance(a, b uint16) uint16 {
	ax, ay := f.Coordinate(a)
	bx, by := f.Coordinate(b)
	return difference(ax, bx) + difference(ay, by)
}

func difference(a, b uint16) uint16 {
	if a > b {
		return a - b
	}
	return b - a
}

// RandomPosition picks any position on the grid.
func (f *Field) RandomPosition() uint16 {
	if len(f.cells) == 0 {
		return 0
	}
	return uint16(f.rng.Intn(len(f.cells)))
}

// IsMined reports whether an unexploded mine sits at position.
func (f *Field) IsMined(position uint16) bool {
	_, ok := f.mines[position]
	return ok
}

// Cell returns the cell at position.
func (f *Field) Cell(position uint16) (Cell, bool) {
	if int(position) >= len(f.cells) {
		return Cell{}, false
	}
	return f.cells[position], true
}

// Cells exposes the grid in row-major order. Callers must not modify it.
func (f *Field) Cells() []Cell {
	return f.cells
}

func (f *Field) Size() uint8 {
	return f.size
}

// SizeFull is the number of cells.
func (f *Field) SizeFull() int {
	return len(f.cells)
}

func (f *Field) Density() float64 {
	return f.density
}

// MinesPlaced reports whether the mine layout exists yet.
func (f *Field) MinesPlaced() bool {
	return f.minesPlaced
}

// MinesCount is the number of mines that have not exploded.
func (f *Field) MinesCount() int {
	return len(f.mines)
}

func (f *Field) DiscoveredCount() int {
	return f.discovered
}

func (f *Field) ExplodedCount() int {
	return f.exploded
}

// UndiscoveredCount is the number of hidden safe cells left to discover.
func (f *Field) UndiscoveredCount() int {
	return len(f.cells) - f.discovered - f.exploded - len(f.mines)
}

// IsCleaned reports whether every safe cell has been discovered.
func (f *Field) IsCleaned() bool {
	return f.UndiscoveredCount() == 0
}
