package retry

import (
	"time"

	"git.home.luguber.info/inful/docaggregator/internal/config"
)

const (
	defaultInitial = time.Second
	defaultMax     = 30 * time.Second
)

// Policy says how often a failed git transfer is repeated and how long to wait
// before each repeat.
type Policy struct {
	Backoff    config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int
}

// None makes a single attempt.
var None = Policy{Backoff: config.RetryBackoffFixed, Initial: defaultInitial, Max: defaultMax}

// NewPolicy builds a policy from raw settings. Unknown backoff modes become
// exponential, non-positive delays take the defaults (1s and 30s) and the
// initial delay never exceeds the cap.
func NewPolicy(backoff config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := Policy{
		Backoff:    config.NormalizeRetryBackoff(string(backoff)),
		Initial:    initial,
		Max:        maxDelay,
		MaxRetries: max(maxRetries, 0),
	}
	if p.Backoff == "" {
		p.Backoff = config.RetryBackoffExponential
	}
	if p.Initial <= 0 {
		p.Initial = defaultInitial
	}
	if p.Max <= 0 {
		p.Max = defaultMax
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// FromConfig builds the transport retry policy from the playbook's git.retry block.
func FromConfig(rc config.RetryConfig) Policy {
	initial, maxDelay := rc.Delays()
	return NewPolicy(rc.Backoff, initial, maxDelay, rc.Retries())
}

// Delay returns the wait before the given retry, counting the first retry as 1.
func (p Policy) Delay(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Backoff {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffLinear:
		d = time.Duration(retry) * p.Initial
	default:
		d = p.Initial
		for i := 1; i < retry && d < p.Max; i++ {
			d *= 2
		}
	}
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}
