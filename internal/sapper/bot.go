package sapper

import (
	"math"

	"sappers/internal/field"
)

// Task is a provable action on one undiscovered cell.
type Task struct {
	Position uint16
	IsMined  bool
}

// Tasks scans every discovered cell and lists the neighbors it proves safe
// (all its mines are accounted for) or mined (every hidden neighbor must be
// a mine). Exploded cells and this agent's marks count as found mines. A
// position proven by several cells is listed once, at its first proof.
func (s *Sapper) Tasks(f *field.Field) []Task {
	var tasks []Task
	listed := make(map[uint16]struct{})
	undiscovered := make([]uint16, 0, 8)
	for i, cell := range f.Cells() {
		minesAround, ok := cell.MinesAround()
		if !ok {
			continue
		}
		position := uint16(i)
		undiscovered = undiscovered[:0]
		var minesFound uint8
		for _, near := range f.Around(position, false) {
			nearCell, _ := f.Cell(near)
			switch {
			case nearCell.IsExploded() || s.HasMarked(near):
				minesFound++
			case !nearCell.IsDiscovered():
				undiscovered = append(undiscovered, near)
			}
		}

		var unmarked uint8
		if minesAround > minesFound {
			unmarked = minesAround - minesFound
		}
		isMined := len(undiscovered) == int(unmarked)
		if minesAround != minesFound && !isMined {
			continue
		}
		for _, p := range undiscovered {
			if _, ok := listed[p]; ok {
				continue
			}
			listed[p] = struct{}{}
			tasks = append(tasks, Task{Position: p, IsMined: isMined})
		}
	}
	return tasks
}

// FindTask picks the task closest to the agent; the first one found wins a
// tie.
func (s *Sapper) FindTask(f *field.Field) (Task, bool) {
	var best Task
	found := false
	bestDistance := uint16(math.MaxUint16)
	for _, task := range s.Tasks(f) {
		if d := f.Distance(s.Position, task.Position); d < bestDistance {
			bestDistance = d
			best = task
			found = true
		}
	}
	return best, found
}

func (s *Sapper) perform(f *field.Field, task Task) {
	if s.Position != task.Position {
		s.stepTowards(f, task.Position)
		return
	}
	if task.IsMined {
		s.ToggleMark(f)
	} else {
		s.Discover(f)
	}
}

// stepTowards moves one cell, closing the horizontal gap before the vertical
// one.
func (s *Sapper) stepTowards(f *field.Field, target uint16) {
	x, y := f.Coordinate(s.Position)
	tx, ty := f.Coordinate(target)
	switch {
	case x < tx:
		s.shift(f, 1, 0)
	case x > tx:
		s.shift(f, -1, 0)
	case y < ty:
		s.shift(f, 0, 1)
	case y > ty:
		s.shift(f, 0, -1)
	}
}
