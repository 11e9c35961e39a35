package service

import (
	"sync"
	"time"
)

// CooldownScope picks the key the guard rate-limits on.
type CooldownScope string

const (
	// ScopeUser applies one cooldown per user across every guild.
	ScopeUser CooldownScope = "user"
	// ScopeGuildUser tracks each (guild, user) pair independently.
	ScopeGuildUser CooldownScope = "guild-user"
)

// Cooldown rate-limits LFG post creation. State is in-memory only; a process
// restart resets everyone's cooldown, which is acceptable.
type Cooldown struct {
	mu     sync.Mutex
	last   map[string]time.Time
	window time.Duration
	scope  CooldownScope
	now    func() time.Time
}

func NewCooldown(window time.Duration, scope CooldownScope) *Cooldown {
	if scope != ScopeGuildUser {
		scope = ScopeUser
	}
	return &Cooldown{
		last:   map[string]time.Time{},
		window: window,
		scope:  scope,
		now:    time.Now,
	}
}

func (c *Cooldown) key(guildID, userID string) string {
	if c.scope == ScopeGuildUser {
		return guildID + ":" + userID
	}
	return userID
}

// Check reports whether the user may create a post now, and if not, how long
// until they can. It does not record anything; call Stamp once the creation
// actually succeeds.
func (c *Cooldown) Check(guildID, userID string) (allowed bool, retryAfter time.Duration) {
	if c.window <= 0 {
		return true, 0
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if at, ok := c.last[c.key(guildID, userID)]; ok {
		if until := at.Add(c.window); now.Before(until) {
			return false, until.Sub(now)
		}
	}
	return true, 0
}

// Stamp records a successful creation at the current time.
func (c *Cooldown) Stamp(guildID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[c.key(guildID, userID)] = c.now()
}
