package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

const (
	defaultReplyCooldown  = 30 * time.Second
	defaultGuardRetention = time.Hour
	defaultSweepInterval  = 10 * time.Minute
)

type guardSlot struct {
	owner          string
	lastResponseAt time.Time
}

// ReplyGuard provides per-lead mutual exclusion and an anti-spam cooldown so
// two producers never reply to the same lead at once, and no lead is replied
// to more than once per cooldown window. State is process-local and bounded
// by the periodic sweep.
type ReplyGuard struct {
	mu    sync.Mutex
	slots map[string]*guardSlot

	cooldown  time.Duration
	retention time.Duration
	now       func() time.Time

	logger *logging.Logger
}

// GuardOption configures a ReplyGuard.
type GuardOption func(*ReplyGuard)

// WithCooldown overrides the per-lead reply cooldown.
func WithCooldown(d time.Duration) GuardOption {
	return func(g *ReplyGuard) {
		if d > 0 {
			g.cooldown = d
		}
	}
}

// WithRetention overrides how long completed entries are kept before the
// sweep reclaims them.
func WithRetention(d time.Duration) GuardOption {
	return func(g *ReplyGuard) {
		if d > 0 {
			g.retention = d
		}
	}
}

// WithClock injects a clock, used by tests to drive the cooldown window.
func WithClock(now func() time.Time) GuardOption {
	return func(g *ReplyGuard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewReplyGuard creates a guard with the 30s cooldown / 1h retention defaults.
func NewReplyGuard(logger *logging.Logger, opts ...GuardOption) *ReplyGuard {
	if logger == nil {
		logger = logging.Default()
	}
	g := &ReplyGuard{
		slots:     make(map[string]*guardSlot),
		cooldown:  defaultReplyCooldown,
		retention: defaultGuardRetention,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanGenerate reports whether serviceID may generate a reply for leadID right
// now. It does not take ownership; use TryAcquire for the atomic
// check-and-set that callers should prefer.
func (g *ReplyGuard) CanGenerate(leadID, serviceID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.admitLocked(leadID, serviceID)
}

// Register marks serviceID as the owner of leadID's guard slot.
func (g *ReplyGuard) Register(leadID, serviceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.slotLocked(leadID).owner = serviceID
}

// TryAcquire atomically checks admission and registers ownership. Returns
// false if another service owns the slot or the cooldown has not elapsed.
func (g *ReplyGuard) TryAcquire(leadID, serviceID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.admitLocked(leadID, serviceID) {
		return false
	}
	g.slotLocked(leadID).owner = serviceID
	return true
}

// Complete releases the owner token and stamps the cooldown clock. Callers
// must invoke Complete on every exit path after a successful TryAcquire,
// including errors.
func (g *ReplyGuard) Complete(leadID, serviceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	slot, ok := g.slots[leadID]
	if !ok {
		return
	}
	if slot.owner != "" && slot.owner != serviceID {
		g.logger.Warn("guard complete from non-owner ignored",
			"lead_id", leadID,
			"owner", slot.owner,
			"caller", serviceID,
		)
		return
	}
	slot.owner = ""
	slot.lastResponseAt = g.now()
}

// Cleanup removes entries whose last response is older than the retention
// window. Slots still owned are kept regardless of age.
func (g *ReplyGuard) Cleanup() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-g.retention)
	removed := 0
	for leadID, slot := range g.slots {
		if slot.owner != "" {
			continue
		}
		if slot.lastResponseAt.Before(cutoff) {
			delete(g.slots, leadID)
			removed++
		}
	}
	return removed
}

// Run sweeps stale entries until ctx is cancelled.
func (g *ReplyGuard) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := g.Cleanup(); removed > 0 {
				g.logger.Debug("reply guard sweep", "removed", removed)
			}
		}
	}
}

// DenialReason explains why admission was refused, for metrics.
func (g *ReplyGuard) DenialReason(leadID, serviceID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	slot, ok := g.slots[leadID]
	if !ok {
		return ""
	}
	if slot.owner != "" && slot.owner != serviceID {
		return "owned"
	}
	if !slot.lastResponseAt.IsZero() && g.now().Sub(slot.lastResponseAt) < g.cooldown {
		return "cooldown"
	}
	return ""
}

func (g *ReplyGuard) admitLocked(leadID, serviceID string) bool {
	slot, ok := g.slots[leadID]
	if !ok {
		return true
	}
	if slot.owner != "" && slot.owner != serviceID {
		return false
	}
	// Cooldown applies regardless of who produced the last reply.
	if !slot.lastResponseAt.IsZero() && g.now().Sub(slot.lastResponseAt) < g.cooldown {
		return false
	}
	return true
}

func (g *ReplyGuard) slotLocked(leadID string) *guardSlot {
	slot, ok := g.slots[leadID]
	if !ok {
		slot = &guardSlot{}
		g.slots[leadID] = slot
	}
	return slot
}
