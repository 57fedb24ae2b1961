// Package fault decides how much latency to add to an API call and whether the
// call should fail outright.
package fault

import (
	"math/rand"
	"sync"
	"time"

	"github.com/kiranshivaraju/hiretrack/internal/config"
)

// Policy is consulted once per request.
type Policy interface {
	Delay() time.Duration
	Fail() bool
}

// RandomPolicy draws a uniform delay in [MinDelay, MaxDelay] and fails with
// probability ErrorRate. Draws are independent per call.
type RandomPolicy struct {
	MinDelay  time.Duration
	MaxDelay  time.Duration
	ErrorRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPolicy builds a policy with its own random source. A zero seed uses the
// current time.
func NewRandomPolicy(minDelay, maxDelay time.Duration, errorRate float64, seed int64) *RandomPolicy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &RandomPolicy{
		MinDelay:  minDelay,
		MaxDelay:  maxDelay,
		ErrorRate: errorRate,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (p *RandomPolicy) Delay() time.Duration {
	span := p.MaxDelay - p.MinDelay
	if span <= 0 {
		return p.MinDelay
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.MinDelay + time.Duration(p.rng.Int63n(int64(span)+1))
}

func (p *RandomPolicy) Fail() bool {
	if p.ErrorRate <= 0 {
		return false
	}
	if p.ErrorRate >= 1 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < p.ErrorRate
}

type disabled struct{}

func (disabled) Delay() time.Duration { return 0 }
func (disabled) Fail() bool           { return false }

// Disabled never delays and never fails.
var Disabled Policy = disabled{}

// FromConfig returns Disabled when injection is switched off.
func FromConfig(cfg config.FaultConfig, seed int64) Policy {
	if cfg.Disabled {
		return Disabled
	}
	return NewRandomPolicy(cfg.MinDelay, cfg.MaxDelay, cfg.ErrorRate, seed)
}
