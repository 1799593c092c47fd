package metrics

import (
	"sync"
	"time"
)

type rallyStats struct {
	rallies  int
	sideOuts int
	wins     int
}

type storeStats struct {
	calls       int
	errors      int
	lastLatency time.Duration
}

// Recorder captures lightweight, in-memory metrics about rally scoring and
// store calls, mirroring them to OpenTelemetry instruments when configured.
type Recorder struct {
	mu          sync.Mutex
	rallies     map[string]*rallyStats // keyed by scoring mode
	store       map[string]*storeStats // keyed by op
	subscribers int
	otel        *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		rallies: make(map[string]*rallyStats),
		store:   make(map[string]*storeStats),
		otel:    otel,
	}
}

// RecordRally counts a scored rally, its side-out, and game completion.
func (r *Recorder) RecordRally(mode string, sideOut, won bool) {
	if r == nil {
		return
	}

	stats := r.ensureRally(mode)
	r.mu.Lock()
	stats.rallies++
	if sideOut {
		stats.sideOuts++
	}
	if won {
		stats.wins++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordRally(mode, sideOut, won)
	}
}

// RecordStoreCall tracks a persistence call and its latency/outcome.
func (r *Recorder) RecordStoreCall(op string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	stats := r.ensureStore(op)
	r.mu.Lock()
	stats.calls++
	stats.lastLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordStoreCall(op, duration, err)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// StreamSubscriberChange adjusts the live overlay subscriber gauge.
func (r *Recorder) StreamSubscriberChange(delta int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.subscribers += delta
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordSubscriberChange(delta)
	}
}

// Rallies returns the rallies recorded for a scoring mode.
func (r *Recorder) Rallies(mode string) int {
	return r.RallySnapshot(mode).Rallies
}

// SideOuts returns the side-outs recorded for a scoring mode.
func (r *Recorder) SideOuts(mode string) int {
	return r.RallySnapshot(mode).SideOuts
}

// StoreErrors returns the failed calls recorded for a store op.
func (r *Recorder) StoreErrors(op string) int {
	return r.StoreSnapshot(op).Errors
}

// StreamSubscribers returns the current overlay subscriber count.
func (r *Recorder) StreamSubscribers() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribers
}

// RallySnapshot is a copy of the rally stats for one scoring mode.
type RallySnapshot struct {
	Rallies  int
	SideOuts int
	Wins     int
}

func (r *Recorder) RallySnapshot(mode string) RallySnapshot {
	if r == nil {
		return RallySnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.rallies[mode]; ok && stats != nil {
		return RallySnapshot{Rallies: stats.rallies, SideOuts: stats.sideOuts, Wins: stats.wins}
	}
	return RallySnapshot{}
}

// StoreSnapshot is a copy of the store stats for one op.
type StoreSnapshot struct {
	Calls       int
	Errors      int
	LastLatency time.Duration
}

func (r *Recorder) StoreSnapshot(op string) StoreSnapshot {
	if r == nil {
		return StoreSnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.store[op]; ok && stats != nil {
		return StoreSnapshot{Calls: stats.calls, Errors: stats.errors, LastLatency: stats.lastLatency}
	}
	return StoreSnapshot{}
}

func (r *Recorder) ensureRally(mode string) *rallyStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.rallies[mode]
	if !ok {
		stats = &rallyStats{}
		r.rallies[mode] = stats
	}
	return stats
}

func (r *Recorder) ensureStore(op string) *storeStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.store[op]
	if !ok {
		stats = &storeStats{}
		r.store[op] = stats
	}
	return stats
}
