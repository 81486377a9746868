package app

import (
	"fmt"

	"github.com/dkeye/Relay/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose send queue is full.
type Policy interface {
	OnBackPressure(member core.Session) BackpressureAction
}

// KickPolicy closes slow connections; the transport teardown then unregisters them.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(core.Session) BackpressureAction { return KickMember }

// DropPolicy keeps slow connections and loses the frame.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.Session) BackpressureAction { return DropFrame }

func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return KickPolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown backpressure policy %q", name)
}
