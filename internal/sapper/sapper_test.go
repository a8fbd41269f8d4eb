package sapper

import (
	"testing"
	"time"

	"sappers/internal/event"
	"sappers/internal/field"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestTasksAroundZeroCellAreSafe(t *testing.T) {
	f := field.New(3, 0)
	f.ApplyDiscovered(4, 0)
	s := New(0, Bot, 4, time.Second)

	tasks := s.Tasks(f)
	if len(tasks) != 8 {
		t.Fatalf("expected 8 tasks, got %d: %v", len(tasks), tasks)
	}
	for _, task := range tasks {
		if task.IsMined {
			t.Fatalf("expected only discover tasks, got mark on %d", task.Position)
		}
		if task.Position == 4 {
			t.Fatalf("discovered cell must not be a task")
		}
	}
}

func TestTasksAroundZeroCellClipsEdges(t *testing.T) {
	f := field.New(4, 0)
	f.ApplyDiscovered(0, 0)
	s := New(0, Bot, 0, time.Second)

	tasks := s.Tasks(f)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 corner tasks, got %v", tasks)
	}
}

func TestTasksSingleHiddenMineIsMarked(t *testing.T) {
	// Mine at 8; everything else discovered with consistent counts.
	f := field.New(3, 0)
	counts := map[uint16]uint8{0: 0, 1: 0, 2: 0, 3: 0, 4: 1, 5: 1, 6: 0, 7: 1}
	for p, n := range counts {
		f.ApplyDiscovered(p, n)
	}
	s := New(0, Bot, 0, time.Second)

	tasks := s.Tasks(f)
	if len(tasks) != 1 {
		t.Fatalf("expected exactly one task, got %v", tasks)
	}
	if tasks[0] != (Task{Position: 8, IsMined: true}) {
		t.Fatalf("expected mark task on 8, got %+v", tasks[0])
	}
}

func TestTasksCountMarksAsFound(t *testing.T) {
	// 1 counts one mine among five hidden neighbors; marking 0 proves the
	// other four safe.
	f := field.New(3, 0)
	f.ApplyDiscovered(1, 1)
	s := New(0, Bot, 0, time.Second)
	s.ToggleMark(f)
	if !s.HasMarked(0) {
		t.Fatalf("expected 0 to be marked")
	}

	for _, task := range s.Tasks(f) {
		if task.IsMined {
			t.Fatalf("expected only discover tasks once the mine is marked, got %+v", task)
		}
		if task.Position == 0 {
			t.Fatalf("marked cell must not be a task")
		}
	}
}

func TestTasksExplodedCountsAsFound(t *testing.T) {
	f := field.New(3, 0)
	f.ApplyDiscovered(4, 1)
	f.ApplyExploded(0)
	s := New(0, Bot, 8, time.Second)

	tasks := s.Tasks(f)
	if len(tasks) != 7 {
		t.Fatalf("expected 7 safe tasks, got %v", tasks)
	}
	for _, task := range tasks {
		if task.IsMined {
			t.Fatalf("unexpected mark task %+v", task)
		}
	}
}

func TestFindTaskPrefersClosest(t *testing.T) {
	f := field.New(5, 0)
	f.ApplyDiscovered(24, 0)
	s := New(0, Bot, 0, time.Second)

	task, ok := s.FindTask(f)
	if !ok {
		t.Fatalf("expected a task")
	}
	if task.Position != 18 {
		t.Fatalf("expected closest task at 18, got %d", task.Position)
	}
}

func TestFindTaskNoneOnHiddenField(t *testing.T) {
	f := field.New(5, 0)
	s := New(0, Bot, 0, time.Second)
	if _, ok := s.FindTask(f); ok {
		t.Fatalf("expected no task on a hidden field")
	}
}

func TestBotStepsOneCellHorizontalFirst(t *testing.T) {
	f := field.New(5, 0)
	f.ApplyDiscovered(24, 0)
	s := New(3, Bot, 0, time.Second)

	s.Update(f, ActionNone, epoch)
	events := s.Events().Pull()
	if len(events) != 1 || events[0].Data != event.Move(3, 1) {
		t.Fatalf("expected a single move to 1, got %v", events)
	}
	if s.Position != 1 {
		t.Fatalf("expected position 1, got %d", s.Position)
	}
}

func TestBotWaitsForReactionTimer(t *testing.T) {
	f := field.New(3, 0)
	f.ApplyDiscovered(4, 0)
	s := New(1, Bot, 0, time.Second)

	s.Update(f, ActionNone, epoch)
	if events := s.Events().Pull(); len(events) != 1 || events[0].Data != event.Discover(1, 0) {
		t.Fatalf("expected immediate discover on 0, got %v", events)
	}

	s.Update(f, ActionNone, epoch.Add(500*time.Millisecond))
	if n := s.Events().Len(); n != 0 {
		t.Fatalf("expected no action before the timer elapses, got %d events", n)
	}

	s.Update(f, ActionNone, epoch.Add(time.Second))
	if n := s.Events().Len(); n != 1 {
		t.Fatalf("expected one action once the timer elapses, got %d events", n)
	}
}

func TestBotMarksProvenMine(t *testing.T) {
	f := field.New(3, 0)
	counts := map[uint16]uint8{0: 0, 1: 0, 2: 0, 3: 0, 4: 1, 5: 1, 6: 0, 7: 1}
	for p, n := range counts {
		f.ApplyDiscovered(p, n)
	}
	s := New(0, Bot, 8, time.Second)

	s.Update(f, ActionNone, epoch)
	if !s.HasMarked(8) {
		t.Fatalf("expected the bot to mark 8")
	}
	if n := s.Events().Len(); n != 0 {
		t.Fatalf("marks are local, expected no events, got %d", n)
	}
}

func TestPlayerActions(t *testing.T) {
	f := field.New(3, 0)
	s := New(2, Player, 4, time.Hour)

	s.Update(f, ActionUp, epoch)
	s.Update(f, ActionUp, epoch)
	s.Update(f, ActionLeft, epoch)
	s.Update(f, ActionDiscover, epoch)

	events := s.Events().Pull()
	want := []event.Data{event.Move(2, 1), event.Move(2, 0), event.Discover(2, 0)}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i].Data != want[i] {
			t.Fatalf("event %d: expected %v, got %v", i, want[i], events[i].Data)
		}
	}
}

func TestPlayerCannotDiscoverMarkedCell(t *testing.T) {
	f := field.New(3, 0)
	s := New(0, Player, 0, 0)

	s.Update(f, ActionToggleMark, epoch)
	s.Update(f, ActionDiscover, epoch)
	if n := s.Events().Len(); n != 0 {
		t.Fatalf("expected marked cell to block discovery, got %d events", n)
	}

	s.Update(f, ActionToggleMark, epoch)
	s.Update(f, ActionDiscover, epoch)
	if n := s.Events().Len(); n != 1 {
		t.Fatalf("expected discovery after unmarking, got %d events", n)
	}
}

func TestStaleMarksArePurged(t *testing.T) {
	f := field.New(3, 0)
	s := New(0, Player, 0, 0)
	s.ToggleMark(f)

	f.ApplyDiscovered(0, 0)
	s.Update(f, ActionNone, epoch)
	if s.HasMarked(0) || s.MarksCount() != 0 {
		t.Fatalf("expected mark on a discovered cell to be purged")
	}
}

func TestDiscoveredCellCannotBeMarked(t *testing.T) {
	f := field.New(3, 0)
	f.ApplyDiscovered(0, 0)
	s := New(0, Player, 0, 0)
	s.ToggleMark(f)
	if s.HasMarked(0) {
		t.Fatalf("discovered cells are not markable")
	}
}

func TestDeadAndRemoteAgentsIdle(t *testing.T) {
	f := field.New(3, 0)
	f.ApplyDiscovered(4, 0)

	dead := New(0, Bot, 0, 0)
	dead.Alive = false
	dead.Update(f, ActionNone, epoch)

	remote := New(1, Remote, 0, 0)
	remote.Update(f, ActionRight, epoch)

	if dead.Events().Len() != 0 || remote.Events().Len() != 0 {
		t.Fatalf("expected dead and remote agents to emit nothing")
	}
}

func TestMoveStopsAtEdge(t *testing.T) {
	f := field.New(3, 0)
	s := New(0, Player, 0, 0)
	s.Update(f, ActionLeft, epoch)
	s.Update(f, ActionUp, epoch)
	if s.Position != 0 || s.Events().Len() != 0 {
		t.Fatalf("expected no movement past the edge")
	}
}

func TestTimer(t *testing.T) {
	timer := NewTimer(time.Second)
	if !timer.NextIfDone(epoch) {
		t.Fatalf("new timer must be due")
	}
	if timer.NextIfDone(epoch.Add(999 * time.Millisecond)) {
		t.Fatalf("timer fired early")
	}
	if !timer.NextIfDone(epoch.Add(time.Second)) {
		t.Fatalf("timer did not fire at its deadline")
	}
}

func TestNames(t *testing.T) {
	cases := map[Behavior]string{Player: "YOU", Bot: "BOT", Remote: "NET"}
	for behavior, want := range cases {
		if got := New(0, behavior, 0, 0).Name(); got != want {
			t.Fatalf("%s: expected %s, got %s", behavior, want, got)
		}
	}
}
