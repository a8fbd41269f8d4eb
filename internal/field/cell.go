package field

// Color is a terminal-agnostic color attribute for render marks.
type Color uint8

const (
	ColorDefault Color = iota
	ColorBlue
	ColorGreen
	ColorRed
	ColorNavy
	ColorMaroon
	ColorAqua
	ColorPurple
	ColorGrey
)

const (
	SymbolUndiscovered = '.'
	SymbolEmpty        = ' '
	SymbolExploded     = '#'
	SymbolMarked       = '!'
)

// Cell holds the visible state of one grid position. A cell is undiscovered
// until it becomes either discovered or exploded, and never changes again.
type Cell struct {
	minesAround uint8
	discovered  bool
	exploded    bool
}

// MinesAround returns the neighboring mine count once the cell is discovered.
func (c Cell) MinesAround() (uint8, bool) {
	return c.minesAround, c.discovered
}

func (c Cell) IsDiscovered() bool {
	return c.discovered
}

func (c Cell) IsExploded() bool {
	return c.exploded
}

// IsMarkable reports whether an agent may place a mark on the cell.
func (c Cell) IsMarkable() bool {
	return !c.discovered && !c.exploded
}

// Mark is the render attributes of a single cell.
type Mark struct {
	Symbol     rune
	Foreground Color
	Background Color
}

var digitColors = [...]Color{
	1: ColorBlue,
	2: ColorGreen,
	3: ColorRed,
	4: ColorNavy,
	5: ColorMaroon,
	6: ColorAqua,
}

// Mark renders the cell as seen by an agent that may have marked it.
func (c Cell) Mark(marked bool) Mark {
	switch {
	case marked:
		return Mark{Symbol: SymbolMarked, Background: ColorMaroon}
	case c.exploded:
		return Mark{Symbol: SymbolExploded, Background: ColorMaroon}
	case c.discovered:
		if c.minesAround == 0 {
			return Mark{Symbol: SymbolEmpty}
		}
		fg := ColorPurple
		if int(c.minesAround) < len(digitColors) {
			fg = digitColors[c.minesAround]
		}
		symbol := '?'
		if c.minesAround <= 9 {
			symbol = rune('0' + c.minesAround)
		}
		return Mark{Symbol: symbol, Foreground: fg}
	default:
		return Mark{Symbol: SymbolUndiscovered}
	}
}
