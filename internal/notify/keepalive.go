package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultKeepaliveInterval = 30 * time.Second

// EventSource yields the sync events to re-publish on each keepalive tick,
// typically one per match with live subscribers.
type EventSource func(ctx context.Context) []Event

// Keepalive periodically re-publishes sync events so late-joining or lossy
// overlay consumers converge on the current snapshot.
type Keepalive struct {
	hub      *Hub
	source   EventSource
	logger   *slog.Logger
	interval time.Duration

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool
}

// NewKeepalive constructs a Keepalive with sane defaults. A nil source
// nudges every match that currently has subscribers.
func NewKeepalive(hub *Hub, source EventSource, logger *slog.Logger, interval time.Duration) *Keepalive {
	if interval <= 0 {
		interval = defaultKeepaliveInterval
	}
	if source == nil {
		source = func(context.Context) []Event {
			var evs []Event
			for _, id := range hub.SubscribedMatches() {
				evs = append(evs, Event{Kind: KindSync, MatchID: id})
			}
			return evs
		}
	}
	return &Keepalive{
		hub:      hub,
		source:   source,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins ticking until the context is cancelled or Stop is called.
func (k *Keepalive) Start(ctx context.Context) {
	k.startMu.Lock()
	if k.started {
		k.startMu.Unlock()
		return
	}
	k.started = true
	k.startMu.Unlock()

	k.ticker = time.NewTicker(k.interval)

	go func() {
		k.logInfo("keepalive started", slog.Int64("interval_ms", k.interval.Milliseconds()))
		for {
			select {
			case <-ctx.Done():
				k.stopTicker()
				k.logInfo("keepalive stopped")
				return
			case <-k.done:
				k.stopTicker()
				k.logInfo("keepalive stopped")
				return
			case <-k.ticker.C:
				k.tick(ctx)
			}
		}
	}()
}

// Stop halts the keepalive loop.
func (k *Keepalive) Stop(ctx context.Context) error {
	_ = ctx
	k.stopOnce.Do(func() {
		close(k.done)
		k.stopTicker()
	})
	return nil
}

func (k *Keepalive) tick(ctx context.Context) {
	if k.source == nil {
		return
	}
	for _, ev := range k.source(ctx) {
		if ev.Kind == "" {
			ev.Kind = KindSync
		}
		k.hub.Publish(ev)
	}
}

func (k *Keepalive) stopTicker() {
	if k.ticker != nil {
		k.ticker.Stop()
	}
}

func (k *Keepalive) logInfo(msg string, args ...any) {
	if k.logger != nil {
		k.logger.Info(msg, args...)
	}
}
