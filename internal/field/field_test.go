package field

import (
	"math/rand"
	"sort"
	"testing"

	"sappers/internal/event"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(SeedValue("field-test", "mines")))
}

func assertCounters(t *testing.T, f *Field) {
	t.Helper()
	total := f.DiscoveredCount() + f.MinesCount() + f.UndiscoveredCount() + f.ExplodedCount()
	if total != f.SizeFull() {
		t.Fatalf("counters out of balance: discovered=%d mines=%d undiscovered=%d exploded=%d size=%d",
			f.DiscoveredCount(), f.MinesCount(), f.UndiscoveredCount(), f.ExplodedCount(), f.SizeFull())
	}
}

func TestDiscoverEmptyFieldCascadesEverywhere(t *testing.T) {
	f := New(4, 0, WithRand(newTestRand()))
	var bus event.Bus

	if result := f.Discover(0, &bus); result != Success {
		t.Fatalf("expected success, got %s", result)
	}
	if f.DiscoveredCount() != 16 {
		t.Fatalf("expected 16 discovered cells, got %d", f.DiscoveredCount())
	}
	if !f.IsCleaned() {
		t.Fatalf("expected field to be cleaned")
	}
	events := bus.Pull()
	if len(events) != 16 {
		t.Fatalf("expected one event per cell, got %d", len(events))
	}
	seen := make(map[uint16]bool)
	for _, ev := range events {
		if ev.Data.Kind != event.KindCellDiscover || ev.Data.MinesAround != 0 {
			t.Fatalf("unexpected event %v", ev.Data)
		}
		if seen[ev.Data.Position] {
			t.Fatalf("position %d discovered twice", ev.Data.Position)
		}
		seen[ev.Data.Position] = true
	}
	assertCounters(t, f)
}

func TestDiscoverIsIdempotent(t *testing.T) {
	f := New(5, 0, WithMines(24))
	var bus event.Bus

	if result := f.Discover(0, &bus); result != Success {
		t.Fatalf("expected success, got %s", result)
	}
	discovered := f.DiscoveredCount()
	bus.Pull()

	if result := f.Discover(0, &bus); result != AlreadyDiscovered {
		t.Fatalf("expected already discovered, got %s", result)
	}
	if f.DiscoveredCount() != discovered {
		t.Fatalf("expected no state change, discovered went from %d to %d", discovered, f.DiscoveredCount())
	}
	if bus.Len() != 0 {
		t.Fatalf("expected no events on repeated discovery, got %d", bus.Len())
	}
}

func TestFirstDiscoverNeverFails(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		f := New(6, 1, WithRand(rand.New(rand.NewSource(seed))))
		position := uint16(seed % 36)
		if result := f.Discover(position, nil); result == Failure {
			t.Fatalf("seed %d: first discovery at %d failed", seed, position)
		}
		for _, p := range f.Around(position, true) {
			if f.IsMined(p) {
				t.Fatalf("seed %d: mine placed next to the first discovery at %d", seed, p)
			}
		}
		assertCounters(t, f)
	}
}

func TestDiscoverMineFailsWithoutSideEffects(t *testing.T) {
	f := New(4, 0, WithMines(5))
	var bus event.Bus

	if result := f.Discover(5, &bus); result != Failure {
		t.Fatalf("expected failure, got %s", result)
	}
	cell, _ := f.Cell(5)
	if !cell.IsExploded() || cell.IsDiscovered() {
		t.Fatalf("expected exploded cell, got %+v", cell)
	}
	for i, c := range f.Cells() {
		if i == 5 {
			continue
		}
		if c.IsDiscovered() || c.IsExploded() {
			t.Fatalf("cell %d changed: %+v", i, c)
		}
	}
	events := bus.Pull()
	if len(events) != 1 || events[0].Data != event.CellExplode(5) {
		t.Fatalf("expected a single explode event, got %v", events)
	}
	if f.MinesCount() != 0 {
		t.Fatalf("expected exploded mine to leave the mine set, got %d", f.MinesCount())
	}
	assertCounters(t, f)
}

func TestFloodFillStopsAtBorder(t *testing.T) {
	// 5×5 with a mine in the bottom-right corner:
	// . . . . .
	// . . . . .
	// . . . . .
	// . . . 1 1
	// . . . 1 *
	f := New(5, 0, WithMines(24))
	var bus event.Bus

	if result := f.Discover(0, &bus); result != Success {
		t.Fatalf("expected success, got %s", result)
	}
	if f.DiscoveredCount() != 24 {
		t.Fatalf("expected 24 discovered cells, got %d", f.DiscoveredCount())
	}
	for _, p := range []uint16{18, 19, 23} {
		cell, _ := f.Cell(p)
		if n, ok := cell.MinesAround(); !ok || n != 1 {
			t.Fatalf("expected border cell %d to count 1 mine, got %d (discovered=%v)", p, n, ok)
		}
	}
	mine, _ := f.Cell(24)
	if mine.IsDiscovered() || mine.IsExploded() {
		t.Fatalf("mine cell must stay hidden")
	}
	if !f.IsCleaned() {
		t.Fatalf("expected every safe cell discovered")
	}
	assertCounters(t, f)
}

func TestFloodFillDiscoversOnlyConnectedRegion(t *testing.T) {
	// A wall of mines in column 2 splits a 5×5 field.
	f := New(5, 0, WithMines(2, 7, 12, 17, 22))
	var bus event.Bus

	f.Discover(0, &bus)

	var got []int
	for i, c := range f.Cells() {
		if c.IsDiscovered() {
			got = append(got, i)
		}
	}
	want := []int{0, 1, 5, 6, 10, 11, 15, 16, 20, 21}
	sort.Ints(got)
	if len(got) != len(want) {
		t.Fatalf("expected discovered %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected discovered %v, got %v", want, got)
		}
	}
	assertCounters(t, f)
}

func TestExplodeMinesRevealsRemaining(t *testing.T) {
	f := New(4, 0, WithMines(3, 12, 15))
	var bus event.Bus

	f.Discover(12, &bus)
	bus.Pull()

	if n := f.ExplodeMines(&bus); n != 2 {
		t.Fatalf("expected 2 mines to explode, got %d", n)
	}
	if f.MinesCount() != 0 {
		t.Fatalf("expected mine set to be cleared")
	}
	for _, p := range []uint16{3, 12, 15} {
		if cell, _ := f.Cell(p); !cell.IsExploded() {
			t.Fatalf("expected %d to be exploded", p)
		}
	}
	if events := bus.Pull(); len(events) != 2 {
		t.Fatalf("expected one event per revealed mine, got %v", events)
	}
	if n := f.ExplodeMines(&bus); n != 0 {
		t.Fatalf("expected second reveal to be a no-op, got %d", n)
	}
	assertCounters(t, f)
}

func TestAroundClipsEdges(t *testing.T) {
	f := New(3, 0)
	cases := []struct {
		center  uint16
		include bool
		want    []uint16
	}{
		{0, false, []uint16{1, 3, 4}},
		{0, true, []uint16{0, 1, 3, 4}},
		{4, false, []uint16{0, 1, 2, 3, 5, 6, 7, 8}},
		{4, true, []uint16{0, 1, 2, 3, 4, 5, 6, 7, 8}},
		{5, false, []uint16{1, 2, 4, 7, 8}},
		{8, false, []uint16{4, 5, 7}},
	}
	for _, tc := range cases {
		got := f.Around(tc.center, tc.include)
		if len(got) != len(tc.want) {
			t.Fatalf("Around(%d, %v) = %v, want %v", tc.center, tc.include, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("Around(%d, %v) = %v, want %v", tc.center, tc.include, got, tc.want)
			}
		}
	}
}

func TestDistanceIsManhattan(t *testing.T) {
	f := New(10, 0)
	if d := f.Distance(0, 99); d != 18 {
		t.Fatalf("expected 18, got %d", d)
	}
	if d := f.Distance(45, 45); d != 0 {
		t.Fatalf("expected 0, got %d", d)
	}
	if d := f.Distance(19, 10); d != 9 {
		t.Fatalf("expected 9, got %d", d)
	}
}

func TestApplyRemoteChanges(t *testing.T) {
	f := New(3, 0)
	if !f.ApplyDiscovered(4, 2) {
		t.Fatalf("expected in-bounds discovery to apply")
	}
	if !f.ApplyExploded(0) {
		t.Fatalf("expected in-bounds explosion to apply")
	}
	if f.ApplyDiscovered(9, 0) || f.ApplyExploded(100) {
		t.Fatalf("expected out-of-bounds positions to be rejected")
	}
	if cell, _ := f.Cell(4); !cell.IsDiscovered() {
		t.Fatalf("expected cell 4 discovered")
	}
	f.ApplyExploded(4)
	if cell, _ := f.Cell(4); cell.IsExploded() {
		t.Fatalf("discovered cell must not become exploded")
	}
	if f.DiscoveredCount() != 1 || f.ExplodedCount() != 1 {
		t.Fatalf("unexpected counters: discovered=%d exploded=%d", f.DiscoveredCount(), f.ExplodedCount())
	}
}

func TestCellMarks(t *testing.T) {
	cases := []struct {
		cell   Cell
		marked bool
		want   Mark
	}{
		{Cell{}, false, Mark{Symbol: SymbolUndiscovered}},
		{Cell{}, true, Mark{Symbol: SymbolMarked, Background: ColorMaroon}},
		{Cell{exploded: true}, false, Mark{Symbol: SymbolExploded, Background: ColorMaroon}},
		{Cell{discovered: true}, false, Mark{Symbol: SymbolEmpty}},
		{Cell{discovered: true, minesAround: 1}, false, Mark{Symbol: '1', Foreground: ColorBlue}},
		{Cell{discovered: true, minesAround: 3}, false, Mark{Symbol: '3', Foreground: ColorRed}},
		{Cell{discovered: true, minesAround: 8}, false, Mark{Symbol: '8', Foreground: ColorPurple}},
	}
	for _, tc := range cases {
		if got := tc.cell.Mark(tc.marked); got != tc.want {
			t.Fatalf("Mark(%+v, %v) = %+v, want %+v", tc.cell, tc.marked, got, tc.want)
		}
	}
}
