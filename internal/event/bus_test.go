package event

import "testing"

func TestBusPullReturnsFiringOrder(t *testing.T) {
	var bus Bus
	bus.Fire(Move(1, 1), "", "")
	bus.Fire(Move(1, 2), "", "")
	bus.FireAll([]Event{{Data: Move(1, 3)}, {Data: Move(1, 4)}})

	pulled := bus.Pull()
	if len(pulled) != 4 {
		t.Fatalf("expected 4 events, got %d", len(pulled))
	}
	for i, ev := range pulled {
		if want := uint16(i + 1); ev.Data.Position != want {
			t.Fatalf("event %d: expected position %d, got %d", i, want, ev.Data.Position)
		}
	}
	if bus.Len() != 0 {
		t.Fatalf("expected empty bus after pull, got %d", bus.Len())
	}
	if again := bus.Pull(); len(again) != 0 {
		t.Fatalf("expected nothing on second pull, got %v", again)
	}
}

func TestBusPopReturnsMostRecent(t *testing.T) {
	var bus Bus
	bus.Fire(Die(1), "a", "")
	bus.Fire(Die(2), "", "b")

	ev, ok := bus.Pop()
	if !ok || ev.Data.ID != 2 || ev.Target != "b" {
		t.Fatalf("expected most recent event first, got %+v ok=%v", ev, ok)
	}

	bus.Fire(Die(3), "", "")
	ev, ok = bus.Pop()
	if !ok || ev.Data.ID != 3 {
		t.Fatalf("expected newly fired event before older ones, got %+v", ev)
	}
	ev, ok = bus.Pop()
	if !ok || ev.Data.ID != 1 || ev.Source != "a" {
		t.Fatalf("expected oldest event last, got %+v", ev)
	}
	if _, ok := bus.Pop(); ok {
		t.Fatalf("expected empty bus")
	}
}

func TestBusRefireRestoresFiringOrder(t *testing.T) {
	var bus Bus
	bus.Fire(Score(1, 1), "", "")
	bus.Fire(Score(1, 2), "", "")

	var suspended []Event
	for ev, ok := bus.Pop(); ok; ev, ok = bus.Pop() {
		suspended = append(suspended, ev)
	}
	bus.FireAll(suspended)

	first, _ := bus.Pop()
	second, _ := bus.Pop()
	if first.Data.Score != 1 || second.Data.Score != 2 {
		t.Fatalf("expected refired events to pop in firing order, got %v then %v", first.Data, second.Data)
	}
}
