// Package policy derives expiration rules from a pair of optional TTLs.
// A policy with neither TTL set is permanent: entries never expire and the
// sweep is disabled entirely.
package policy

import (
	"sync"
	"time"
)

const (
	// sweepDivisor sets the sweep cadence to a tenth of the shortest TTL.
	sweepDivisor     = 10
	minSweepInterval = time.Second
	maxSweepInterval = 24 * time.Hour
)

// Policy holds the expiration configuration for a cache instance.
//
// Absolute expiration bounds an entry's lifetime from its creation time;
// relative (sliding) expiration bounds it from its last access. Zero or
// negative durations mean "unset". When both are set an entry expires on
// whichever bound fires first.
//
// Derived values are computed once and cached; mutating either TTL through
// the setters invalidates the cached derivation.
type Policy struct {
	mu       sync.RWMutex
	absolute time.Duration
	relative time.Duration
	derived  *derived
}

type derived struct {
	permanent     bool
	hasAbsolute   bool
	hasRelative   bool
	sweepInterval time.Duration
}

// New returns a policy with the given absolute and relative expirations.
func New(absolute, relative time.Duration) *Policy {
	return &Policy{absolute: absolute, relative: relative}
}

// AbsoluteExpiration returns the configured absolute TTL.
func (p *Policy) AbsoluteExpiration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.absolute
}

// SetAbsoluteExpiration replaces the absolute TTL and invalidates the
// derived values.
func (p *Policy) SetAbsoluteExpiration(d time.Duration) {
	p.mu.Lock()
	p.absolute = d
	p.derived = nil
	p.mu.Unlock()
}

// RelativeExpiration returns the configured relative (sliding) TTL.
func (p *Policy) RelativeExpiration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.relative
}

// SetRelativeExpiration replaces the relative TTL and invalidates the
// derived values.
func (p *Policy) SetRelativeExpiration(d time.Duration) {
	p.mu.Lock()
	p.relative = d
	p.derived = nil
	p.mu.Unlock()
}

// IsPermanent reports whether entries under this policy never expire.
func (p *Policy) IsPermanent() bool { return p.derive().permanent }

// HasAbsolute reports whether an absolute TTL is set.
func (p *Policy) HasAbsolute() bool { return p.derive().hasAbsolute }

// HasRelative reports whether a relative TTL is set.
func (p *Policy) HasRelative() bool { return p.derive().hasRelative }

// SweepInterval returns how often a sweep pass is due: a tenth of the
// shortest configured TTL, clamped between one second and one day. It is
// zero for a permanent policy.
func (p *Policy) SweepInterval() time.Duration { return p.derive().sweepInterval }

// Expired reports whether an entry created at created and last read at
// accessed has expired as of now. A permanent policy never expires entries.
func (p *Policy) Expired(created, accessed, now time.Time) bool {
	d := p.derive()
	if d.permanent {
		return false
	}
	p.mu.RLock()
	absolute, relative := p.absolute, p.relative
	p.mu.RUnlock()
	if d.hasAbsolute && !created.Add(absolute).After(now) {
		return true
	}
	if d.hasRelative && !accessed.Add(relative).After(now) {
		return true
	}
	return false
}

func (p *Policy) derive() derived {
	p.mu.RLock()
	d := p.derived
	p.mu.RUnlock()
	if d != nil {
		return *d
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.derived == nil {
		p.derived = compute(p.absolute, p.relative)
	}
	return *p.derived
}

func compute(absolute, relative time.Duration) *derived {
	d := &derived{
		hasAbsolute: absolute > 0,
		hasRelative: relative > 0,
	}
	d.permanent = !d.hasAbsolute && !d.hasRelative
	if d.permanent {
		return d
	}
	shortest := absolute
	if !d.hasAbsolute || (d.hasRelative && relative < shortest) {
		shortest = relative
	}
	interval := shortest / sweepDivisor
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	if interval > maxSweepInterval {
		interval = maxSweepInterval
	}
	d.sweepInterval = interval
	return d
}
