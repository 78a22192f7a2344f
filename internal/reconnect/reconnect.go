package reconnect

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Status is the connection state surfaced to the player.
type Status int

const (
	Connected Status = iota
	Reconnecting
	// Resyncing means the link is back and a snapshot has been requested.
	Resyncing
	// Offline means the retry budget is exhausted.
	Offline
)

func (s Status) String() string {
	switch s {
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Resyncing:
		return "resyncing"
	case Offline:
		return "offline"
	}
	return "unknown"
}

// Policy bounds redial attempts. It is shared with the transport, which owns the
// actual dialing.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// Delay is the wait before attempt (1-based), doubling from BaseDelay up to MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Coordinator tracks transport loss and restore and decides when local state must be
// replaced by a snapshot.
type Coordinator struct {
	policy   Policy
	status   Status
	attempts int
	awaiting bool
}

func NewCoordinator(policy Policy) *Coordinator {
	return &Coordinator{policy: policy, status: Connected}
}

func (c *Coordinator) Status() Status { return c.status }

// Available reports whether outbound intents can be sent.
func (c *Coordinator) Available() bool {
	return c.status == Connected || c.status == Resyncing
}

// AwaitingSnapshot reports whether a resync request is outstanding.
func (c *Coordinator) AwaitingSnapshot() bool { return c.awaiting }

func (c *Coordinator) Attempts() int { return c.attempts }

// Lost records a dropped transport. It reports false if the loss was already known.
func (c *Coordinator) Lost() bool {
	if c.status == Reconnecting || c.status == Offline {
		return false
	}
	c.status = Reconnecting
	c.attempts = 0
	c.awaiting = false
	log.Warn().Msg("transport lost, reconnecting")
	return true
}

// AttemptFailed consumes one retry and reports whether the budget is now exhausted.
func (c *Coordinator) AttemptFailed() bool {
	if c.status == Offline {
		return true
	}
	c.status = Reconnecting
	c.attempts++
	log.Warn().Int("attempt", c.attempts).Int("max_attempts", c.policy.MaxAttempts).Msg("reconnect attempt failed")
	if c.policy.MaxAttempts > 0 && c.attempts >= c.policy.MaxAttempts {
		c.status = Offline
		return true
	}
	return false
}

// Restored records a re-established transport; the caller must request a snapshot.
func (c *Coordinator) Restored() {
	c.status = Resyncing
	c.attempts = 0
	c.awaiting = true
	log.Info().Msg("transport restored, requesting snapshot")
}

// RequestResync marks a snapshot as outstanding without a transport change, e.g.
// after a ledger gap.
func (c *Coordinator) RequestResync() {
	c.awaiting = true
	if c.status == Connected {
		c.status = Resyncing
	}
}

// SnapshotApplied completes a resync.
func (c *Coordinator) SnapshotApplied() {
	c.awaiting = false
	if c.status == Resyncing {
		c.status = Connected
	}
}
