package notify

import (
	"context"
	"testing"
	"time"
)

func TestKeepalivePublishesSyncEvents(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("m1")
	defer sub.Cancel()

	k := NewKeepalive(h, nil, nil, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	k.Start(ctx)
	defer func() { _ = k.Stop(context.Background()) }()

	select {
	case ev := <-sub.C:
		if ev.Kind != KindSync || ev.MatchID != "m1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a sync event within the interval")
	}
}

func TestKeepaliveCustomSource(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("m9")
	defer sub.Cancel()

	source := func(context.Context) []Event {
		return []Event{{MatchID: "m9", Seq: 42}}
	}
	k := NewKeepalive(h, source, nil, 5*time.Millisecond)
	k.Start(context.Background())
	defer func() { _ = k.Stop(context.Background()) }()

	select {
	case ev := <-sub.C:
		if ev.Kind != KindSync {
			t.Fatalf("expected kind defaulted to sync, got %+v", ev)
		}
		if ev.Seq != 42 {
			t.Fatalf("expected source event passed through, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected event from custom source")
	}
}

func TestKeepaliveStopIsIdempotent(t *testing.T) {
	h := NewHub()
	k := NewKeepalive(h, nil, nil, time.Hour)
	k.Start(context.Background())
	k.Start(context.Background()) // second start is a no-op

	if err := k.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := k.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestKeepaliveDefaultInterval(t *testing.T) {
	k := NewKeepalive(NewHub(), nil, nil, 0)
	if k.interval != defaultKeepaliveInterval {
		t.Fatalf("expected default interval, got %v", k.interval)
	}
}
