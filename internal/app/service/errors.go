package service

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds returned to the command surface. Each one maps to a distinct
// user-facing message there; none of them are retried automatically.
var (
	ErrInvalidGame        = errors.New("unknown game")
	ErrInvalidGameType    = errors.New("invalid game type for this game")
	ErrInvalidPlayerCount = errors.New("player count out of range for this game")
	ErrInvalidDuration    = errors.New("duration out of range")
	ErrRoomProvisioning   = errors.New("voice room provisioning failed")
	ErrNotFound           = errors.New("lfg post not found")
	ErrNotOwner           = errors.New("only the post owner can do that")
	ErrPostFull           = errors.New("lfg post is full")
	ErrAlreadyJoined      = errors.New("already joined this post")
	ErrNotMember          = errors.New("not a member of this post")
	ErrStorage            = errors.New("storage failure")
)

// CooldownError tells the caller exactly how long until another post is
// allowed, so the reply can carry a retry hint.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("on cooldown, retry in %s", e.RetryAfter.Round(time.Second))
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
