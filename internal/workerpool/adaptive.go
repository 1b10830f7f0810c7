package workerpool

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oriys/conduit/internal/logging"
)

// AdaptiveController dynamically adjusts worker count and poll interval
// based on observed source backlog and drain throughput.
//
// Algorithm:
//   - Every probe interval, the controller reads the current backlog depth
//     (as reported by the pool via SetBacklog) and the number of messages
//     drained since the last probe.
//   - When the backlog is growing, the controller increases concurrency
//     (additive increase) and shortens the poll interval.
//   - When the backlog has been empty for StableRoundsBeforeScaleDown
//     consecutive probes, the controller decreases concurrency
//     (multiplicative decrease) and lengthens the poll interval. A backlog
//     that is shrinking but not empty does not scale down; it adds one
//     worker when the backlog exceeds the current worker count.
//   - All values are clamped to configured min/max bounds.
//
// This is inspired by the AIMD (Additive Increase / Multiplicative Decrease)
// pattern used in TCP congestion control, adapted for drain throughput.
type AdaptiveController struct {
	cfg AdaptiveConfig

	currentWorkers atomic.Int32
	currentPollNs  atomic.Int64

	drainedCount atomic.Int64
	backlog      atomic.Int64

	prevBacklog  int64
	stableRounds int

	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// AdaptiveConfig configures the adaptive concurrency controller.
type AdaptiveConfig struct {
	Enabled bool

	ProbeInterval time.Duration // default: 2s

	MinWorkers int // default: 2
	MaxWorkers int // default: 64

	MinPollInterval time.Duration // default: 10ms
	MaxPollInterval time.Duration // default: 250ms

	ScaleUpStep   int     // default: 2
	ScaleDownRate float64 // default: 0.75

	StableRoundsBeforeScaleDown int // default: 3
}

func defaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		Enabled:                     false,
		ProbeInterval:               2 * time.Second,
		MinWorkers:                  2,
		MaxWorkers:                  64,
		MinPollInterval:             10 * time.Millisecond,
		MaxPollInterval:             250 * time.Millisecond,
		ScaleUpStep:                 2,
		ScaleDownRate:               0.75,
		StableRoundsBeforeScaleDown: 3,
	}
}

func mergeAdaptiveConfig(cfg AdaptiveConfig) AdaptiveConfig {
	d := defaultAdaptiveConfig()
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = d.ProbeInterval
	}
	if cfg.MinWorkers <= 0 {
		cfg.MinWorkers = d.MinWorkers
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = d.MaxWorkers
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = cfg.MinWorkers
	}
	if cfg.MinPollInterval <= 0 {
		cfg.MinPollInterval = d.MinPollInterval
	}
	if cfg.MaxPollInterval <= 0 {
		cfg.MaxPollInterval = d.MaxPollInterval
	}
	if cfg.MaxPollInterval < cfg.MinPollInterval {
		cfg.MaxPollInterval = cfg.MinPollInterval
	}
	if cfg.ScaleUpStep <= 0 {
		cfg.ScaleUpStep = d.ScaleUpStep
	}
	if cfg.ScaleDownRate <= 0 || cfg.ScaleDownRate >= 1 {
		cfg.ScaleDownRate = d.ScaleDownRate
	}
	if cfg.StableRoundsBeforeScaleDown <= 0 {
		cfg.StableRoundsBeforeScaleDown = d.StableRoundsBeforeScaleDown
	}
	return cfg
}

func newAdaptiveController(cfg AdaptiveConfig, initialWorkers int, initialPoll time.Duration) *AdaptiveController {
	cfg = mergeAdaptiveConfig(cfg)

	workers := clampInt(initialWorkers, cfg.MinWorkers, cfg.MaxWorkers)
	poll := clampDuration(initialPoll, cfg.MinPollInterval, cfg.MaxPollInterval)

	ac := &AdaptiveController{
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}
	ac.currentWorkers.Store(int32(workers))
	ac.currentPollNs.Store(int64(poll))
	return ac
}

// Start begins the background control loop.
func (ac *AdaptiveController) Start() {
	ac.wg.Add(1)
	go ac.loop()
}

// Stop signals the control loop to exit and waits for it.
func (ac *AdaptiveController) Stop() {
	close(ac.stopCh)
	ac.wg.Wait()
}

// RecordDrained increments the drained-message counter. Called by workers
// after each message handed off to the sink.
func (ac *AdaptiveController) RecordDrained(n int64) {
	ac.drainedCount.Add(n)
}

// SetBacklog updates the latest known source backlog depth.
func (ac *AdaptiveController) SetBacklog(depth int64) {
	ac.backlog.Store(depth)
}

// Workers returns the current target worker count.
func (ac *AdaptiveController) Workers() int {
	return int(ac.currentWorkers.Load())
}

// PollInterval returns the current target poll interval.
func (ac *AdaptiveController) PollInterval() time.Duration {
	return time.Duration(ac.currentPollNs.Load())
}

func (ac *AdaptiveController) loop() {
	defer ac.wg.Done()
	ticker := time.NewTicker(ac.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ac.stopCh:
			return
		case <-ticker.C:
			ac.probe()
		}
	}
}

func (ac *AdaptiveController) probe() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	drained := ac.drainedCount.Swap(0)
	depth := ac.backlog.Load()

	workers := int(ac.currentWorkers.Load())
	pollNs := ac.currentPollNs.Load()

	growing := depth > 0 && depth > ac.prevBacklog
	idle := depth == 0 && drained == 0
	draining := depth == 0 && drained > 0

	switch {
	case growing:
		ac.stableRounds = 0
		workers = minInt(workers+ac.cfg.ScaleUpStep, ac.cfg.MaxWorkers)
		newPoll := time.Duration(float64(pollNs) * 0.75)
		pollNs = int64(clampDuration(newPoll, ac.cfg.MinPollInterval, ac.cfg.MaxPollInterval))

	case idle:
		ac.stableRounds++
		if ac.stableRounds >= ac.cfg.StableRoundsBeforeScaleDown {
			workers = maxInt(int(math.Ceil(float64(workers)*ac.cfg.ScaleDownRate)), ac.cfg.MinWorkers)
			newPoll := time.Duration(float64(pollNs) * 1.5)
			pollNs = int64(clampDuration(newPoll, ac.cfg.MinPollInterval, ac.cfg.MaxPollInterval))
		}

	case draining:
		ac.stableRounds++
		if ac.stableRounds >= ac.cfg.StableRoundsBeforeScaleDown {
			workers = maxInt(int(math.Ceil(float64(workers)*ac.cfg.ScaleDownRate)), ac.cfg.MinWorkers)
			newPoll := time.Duration(float64(pollNs) * 1.25)
			pollNs = int64(clampDuration(newPoll, ac.cfg.MinPollInterval, ac.cfg.MaxPollInterval))
		}

	default:
		ac.stableRounds = 0
		if depth > int64(workers) {
			workers = minInt(workers+1, ac.cfg.MaxWorkers)
		}
	}

	ac.currentWorkers.Store(int32(workers))
	ac.currentPollNs.Store(pollNs)
	ac.prevBacklog = depth

	logging.Op().Debug("adaptive worker pool probe",
		"backlog", depth,
		"drained", drained,
		"workers", workers,
		"poll_interval", time.Duration(pollNs),
	)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
