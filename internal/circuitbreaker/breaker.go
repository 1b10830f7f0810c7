// Package circuitbreaker sits between a TransformBuffer and the
// downstream Target it forwards transformed messages into. A
// TransformBuffer has no notion of its downstream's health: every
// Accept it calls either succeeds or it doesn't, and left alone it will
// keep offering messages to a downstream that has started failing
// every one of them. A Breaker tracks the Accepted/Declined outcome of
// every offer to one downstream Target and, once the decline rate
// crosses a threshold, stops the TransformBuffer from calling Accept at
// all for a cooldown window — trading a guaranteed Declined locally for
// the cost of actually reaching a struggling Target.
//
// # State machine
//
// The breaker follows the standard three-state model:
//
//	Closed ──(decline rate ≥ threshold)──► Open ──(OpenDuration elapsed)──► HalfOpen
//	  ▲                                                                          │
//	  └───────────────(all probes Accepted)──────────────────────────────────────┘
//	                   (any probe Declined) ──────────────────────────────────► Open
//
// # Why sliding window, not counters
//
// A fixed counter resets on schedule regardless of traffic volume, which
// means a burst of declines just before a reset window is silently lost.
// A sliding window always reflects the last WindowDuration of offers, so
// the decline rate is meaningful even under irregular message rates.
//
// # Concurrency
//
// All public methods (Allow, RecordSuccess, RecordFailure, State) are safe
// for concurrent use; they acquire the internal mutex for every call.
// The Registry uses a separate read-write mutex so that the common
// read path (Get for an existing breaker) does not contend with the rare
// write path (a new stage registered or removed).
package circuitbreaker

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // Normal operation, requests pass through
	StateOpen                  // Requests are rejected
	StateHalfOpen              // Limited probe requests are allowed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds the circuit breaker configuration.
type Config struct {
	ErrorPct       float64       // Error percentage threshold to trip the breaker (0-100)
	WindowDuration time.Duration // Sliding window for error rate calculation
	OpenDuration   time.Duration // How long the breaker stays open before transitioning to half-open
	HalfOpenProbes int           // Number of probe requests allowed in half-open state
}

// Breaker guards a single downstream Target, deciding whether a
// TransformBuffer may still call Accept on it.
type Breaker struct {
	mu             sync.Mutex
	cfg            Config
	state          State
	successes      []time.Time // timestamps of recent successes within window
	failures       []time.Time // timestamps of recent failures within window
	openedAt       time.Time   // when the breaker transitioned to open
	halfOpenProbes int         // number of probes allowed so far in half-open
	halfOpenOK     int         // number of successful probes in half-open
}

// New creates a new circuit breaker with the given configuration.
func New(cfg Config) *Breaker {
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 1
	}
	return &Breaker{cfg: cfg}
}

// Allow reports whether the TransformBuffer may offer its next message to
// the guarded downstream Target's Accept.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.openedAt) >= b.cfg.OpenDuration {
			b.state = StateHalfOpen
			b.halfOpenProbes = 0
			b.halfOpenOK = 0
			b.halfOpenProbes++
			return true
		}
		return false
	case StateHalfOpen:
		if b.halfOpenProbes < b.cfg.HalfOpenProbes {
			b.halfOpenProbes++
			return true
		}
		return false
	}
	return true
}

// RecordSuccess records that the downstream Target's Accept returned
// runtime.Accepted for the last offered message.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()

	switch b.state {
	case StateClosed:
		b.successes = append(b.successes, now)
		b.trimWindow(now)
	case StateHalfOpen:
		b.halfOpenOK++
		if b.halfOpenOK >= b.cfg.HalfOpenProbes {
			b.state = StateClosed
			b.successes = b.successes[:0]
			b.failures = b.failures[:0]
		}
	}
}

// RecordFailure records that the downstream Target's Accept returned
// anything other than runtime.Accepted for the last offered message.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()

	switch b.state {
	case StateClosed:
		b.failures = append(b.failures, now)
		b.trimWindow(now)
		b.checkThreshold(now)
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = now
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.openedAt) >= b.cfg.OpenDuration {
		b.state = StateHalfOpen
		b.halfOpenProbes = 0
		b.halfOpenOK = 0
	}
	return b.state
}

// maxWindowEntries is a hard cap on sliding window entries to prevent memory exhaustion.
const maxWindowEntries = 10000

// trimWindow removes entries outside the sliding window. Must be called under lock.
func (b *Breaker) trimWindow(now time.Time) {
	cutoff := now.Add(-b.cfg.WindowDuration)
	b.successes = trimBefore(b.successes, cutoff)
	b.failures = trimBefore(b.failures, cutoff)

	if len(b.successes) > maxWindowEntries {
		b.successes = b.successes[len(b.successes)-maxWindowEntries:]
	}
	if len(b.failures) > maxWindowEntries {
		b.failures = b.failures[len(b.failures)-maxWindowEntries:]
	}
}

// checkThreshold trips the breaker if error rate reaches or exceeds the configured threshold. Must be called under lock.
func (b *Breaker) checkThreshold(now time.Time) {
	total := len(b.successes) + len(b.failures)
	if total == 0 {
		return
	}
	errorPct := float64(len(b.failures)) / float64(total) * 100
	if errorPct >= b.cfg.ErrorPct {
		b.state = StateOpen
		b.openedAt = now
	}
}

// trimBefore removes timestamps before the cutoff time.
func trimBefore(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && times[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return times
	}
	copy(times, times[i:])
	return times[:len(times)-i]
}

// StageKey identifies one TransformBuffer stage's downstream Target for
// circuit breaker bookkeeping: the buffer the TransformBuffer reads
// from, and — when a single TransformBuffer fans its output to more
// than one downstream Target — which one of those downstreams this
// breaker guards. A TransformBuffer with a single downstream leaves
// Downstream empty.
type StageKey struct {
	Buffer     string // e.g. "orders:validate", the TransformBuffer's own name
	Downstream string // e.g. "orders:settle"; empty when there is only one
}

// String renders the key for map storage and for Prometheus/log labels.
func (k StageKey) String() string {
	if k.Downstream == "" {
		return k.Buffer
	}
	return k.Buffer + "->" + k.Downstream
}

// Registry holds one Breaker per StageKey, so a pipeline with several
// TransformBuffer stages (each guarding its own downstream Target) can
// share a single place to look up, list, and retire breakers.
type Registry struct {
	mu       sync.RWMutex
	breakers map[StageKey]*Breaker
}

// NewRegistry creates a new breaker registry.
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[StageKey]*Breaker)}
}

// Get returns the breaker guarding key's downstream Target, creating one
// if the config is valid. Returns nil if circuit breaking is not
// configured for this stage.
func (r *Registry) Get(key StageKey, cfg Config) *Breaker {
	if cfg.ErrorPct <= 0 || cfg.WindowDuration <= 0 || cfg.OpenDuration <= 0 {
		return nil
	}

	r.mu.RLock()
	b, ok := r.breakers[key]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[key]; ok {
		return b
	}
	b = New(cfg)
	r.breakers[key] = b
	return b
}

// Remove deletes the breaker for key, for example when its
// TransformBuffer stage is torn down.
func (r *Registry) Remove(key StageKey) {
	r.mu.Lock()
	delete(r.breakers, key)
	r.mu.Unlock()
}

// Snapshot returns a map of stage label to breaker state for
// observability (see internal/metrics.WatchBreakers).
func (r *Registry) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.breakers))
	for key, b := range r.breakers {
		out[key.String()] = b.State().String()
	}
	return out
}
