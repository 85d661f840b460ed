package courier

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// reconnectBackoff yields min(Base*2^n, Max) for the n-th consecutive failure,
// optionally jittered. Reset restarts the sequence after a successful connect.
type reconnectBackoff struct {
	exp     *backoff.ExponentialBackOff
	max     time.Duration
	attempt int
}

func newReconnectBackoff(cfg Backoff) *reconnectBackoff {
	if cfg.Base <= 0 {
		cfg.Base = time.Second
	}
	if cfg.Max < cfg.Base {
		cfg.Max = cfg.Base
	}
	jitter := cfg.Jitter
	if jitter < 0 {
		jitter = 0
	}
	if jitter > 1 {
		jitter = 1
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.Base
	exp.RandomizationFactor = jitter
	exp.Multiplier = 2
	exp.MaxInterval = cfg.Max
	exp.Reset()
	return &reconnectBackoff{exp: exp, max: cfg.Max}
}

// Next returns the attempt number, counted from 1, and the delay before it.
func (b *reconnectBackoff) Next() (int, time.Duration) {
	b.attempt++
	d := b.exp.NextBackOff()
	if d > b.max {
		d = b.max
	}
	if d < 0 {
		d = 0
	}
	return b.attempt, d
}

func (b *reconnectBackoff) Reset() {
	b.attempt = 0
	b.exp.Reset()
}
