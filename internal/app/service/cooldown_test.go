package service

import (
	"testing"
	"time"
)

func TestCooldownCheckAndStamp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCooldown(5*time.Minute, ScopeUser)
	c.now = func() time.Time { return now }

	if ok, _ := c.Check("g1", "alice"); !ok {
		t.Fatal("first check should be allowed")
	}
	c.Stamp("g1", "alice")

	ok, retry := c.Check("g1", "alice")
	if ok {
		t.Fatal("check inside window should be denied")
	}
	if retry != 5*time.Minute {
		t.Errorf("retry = %v, want 5m", retry)
	}

	now = now.Add(4 * time.Minute)
	ok, retry = c.Check("g1", "alice")
	if ok {
		t.Fatal("still inside window")
	}
	if retry != 1*time.Minute {
		t.Errorf("retry = %v, want 1m", retry)
	}

	now = now.Add(time.Minute + time.Second)
	if ok, _ := c.Check("g1", "alice"); !ok {
		t.Fatal("check after window should be allowed")
	}
}

func TestCooldownCheckDoesNotStamp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCooldown(5*time.Minute, ScopeUser)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if ok, _ := c.Check("g1", "alice"); !ok {
			t.Fatalf("check %d should be allowed, Check must not record", i)
		}
	}
}

func TestCooldownScopeUser(t *testing.T) {
	c := NewCooldown(5*time.Minute, ScopeUser)
	c.Stamp("guild-a", "alice")
	if ok, _ := c.Check("guild-b", "alice"); ok {
		t.Error("user scope: cooldown should apply across guilds")
	}
	if ok, _ := c.Check("guild-a", "bob"); !ok {
		t.Error("other users should not be affected")
	}
}

func TestCooldownScopeGuildUser(t *testing.T) {
	c := NewCooldown(5*time.Minute, ScopeGuildUser)
	c.Stamp("guild-a", "alice")
	if ok, _ := c.Check("guild-a", "alice"); ok {
		t.Error("same guild should be on cooldown")
	}
	if ok, _ := c.Check("guild-b", "alice"); !ok {
		t.Error("guild-user scope: other guilds should be unaffected")
	}
}

func TestCooldownZeroWindowAllowsEverything(t *testing.T) {
	c := NewCooldown(0, ScopeUser)
	c.Stamp("g1", "alice")
	if ok, _ := c.Check("g1", "alice"); !ok {
		t.Error("zero window must always allow")
	}
}
