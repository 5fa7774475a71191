package grapple

import "errors"

// Begin rejections. None of them mutate state; callers may retry at once.
var (
	ErrActive   = errors.New("grapple: session already active")
	ErrCooldown = errors.New("grapple: on cooldown")
	ErrNoActor  = errors.New("grapple: actor body or controller missing")
	ErrDead     = errors.New("grapple: actor is dead")
	ErrNoTarget = errors.New("grapple: no target")
)
