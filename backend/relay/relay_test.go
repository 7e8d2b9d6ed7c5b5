package relay

import (
	"context"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/rajputgovind/swit-call-server/backend/model"
	"github.com/rs/zerolog"
)

func bufferedWire() model.Wire {
	return model.Wire{
		RX: make(chan model.Event, 4),
		TX: make(chan model.Event, 4),
	}
}

func drain(t *testing.T, wire model.Wire) []model.Event {
	t.Helper()
	var out []model.Event
	for {
		select {
		case ev := <-wire.TX:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func newTestRelay() *Relay {
	logger := zerolog.Nop()
	return NewRelay(&logger)
}

func TestRelaySendTo(t *testing.T) {
	rl := newTestRelay()
	a, b := bufferedWire(), bufferedWire()
	rl.Connect("A", a)
	rl.Connect("B", b)

	ev := model.Event{Type: "offer", RoomID: "r1", SRC: "A"}
	rl.SendTo(context.Background(), ev, "B", "missing")

	got := drain(t, b)
	if len(got) != 1 || got[0].Type != "offer" {
		t.Errorf("B should receive the event, got %s", spew.Sdump(got))
	}
	if got := drain(t, a); len(got) != 0 {
		t.Errorf("A should receive nothing, got %s", spew.Sdump(got))
	}
}

func TestRelayBroadcastReachesEveryone(t *testing.T) {
	rl := newTestRelay()
	wires := map[string]model.Wire{
		"A": bufferedWire(),
		"B": bufferedWire(),
		"C": bufferedWire(),
	}
	for token, wire := range wires {
		rl.Connect(token, wire)
	}
	rl.Disconnect("C")

	rl.Broadcast(context.Background(), model.Event{Type: "getWaitingRooms"})

	for _, token := range []string{"A", "B"} {
		if got := drain(t, wires[token]); len(got) != 1 {
			t.Errorf("%s should receive the broadcast, got %s", token, spew.Sdump(got))
		}
	}
	if got := drain(t, wires["C"]); len(got) != 0 {
		t.Errorf("disconnected C should receive nothing, got %s", spew.Sdump(got))
	}
}

func TestRelayDeadEndpointIsSkipped(t *testing.T) {
	rl := newTestRelay()
	dead := model.NewWire() // unbuffered, nobody reading
	live := bufferedWire()
	rl.Connect("dead", dead)
	rl.Connect("live", live)

	done := make(chan struct{})
	go func() {
		rl.SendTo(context.Background(), model.Event{Type: "ready"}, "dead", "live")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * defaultFwdTimout):
		t.Fatal("send to dead endpoint should give up after the timeout")
	}
	if got := drain(t, live); len(got) != 1 {
		t.Errorf("live endpoint should still be served, got %s", spew.Sdump(got))
	}
}

func TestRelaySendCanceledContext(t *testing.T) {
	rl := newTestRelay()
	rl.Connect("dead", model.NewWire())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		rl.SendTo(ctx, model.Event{Type: "ready"}, "dead")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(defaultFwdTimout):
		t.Fatal("canceled context should abort the send immediately")
	}
}
