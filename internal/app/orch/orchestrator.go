package orch

import (
	"time"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
)

type Options struct {
	Policy      app.Policy
	DedupSize   int
	DedupWindow time.Duration
}

// Orchestrator owns the relay state and is the only entry point adapters call.
type Orchestrator struct {
	Registry   *app.Registry
	Rooms      *app.RoomTracker
	Locks      *app.IdentityLocks
	Fanout     *app.Fanout
	Presence   *app.Presence
	Messages   *app.MessageRelay
	Calls      *app.CallRelay
	GroupCalls *app.GroupCallRelay
	Verifier   core.CredentialVerifier
	Directory  core.Directory
	Metrics    *app.Metrics
}

func New(opts Options, verifier core.CredentialVerifier, dir core.Directory, metrics *app.Metrics) *Orchestrator {
	if opts.Policy == nil {
		opts.Policy = app.KickPolicy{}
	}
	reg := app.NewRegistry()
	rooms := app.NewRoomTracker()
	fan := &app.Fanout{Policy: opts.Policy, Metrics: metrics}
	var dedup *app.Deduper
	if opts.DedupWindow > 0 {
		dedup = app.NewDeduper(opts.DedupSize, opts.DedupWindow)
	}
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Locks:    app.NewIdentityLocks(),
		Fanout:   fan,
		Presence: &app.Presence{Registry: reg, Fanout: fan},
		Messages: &app.MessageRelay{
			Registry: reg,
			Rooms:    rooms,
			Fanout:   fan,
			Dedup:    dedup,
			Metrics:  metrics,
		},
		Calls: &app.CallRelay{Registry: reg, Fanout: fan},
		GroupCalls: &app.GroupCallRelay{
			Registry: reg,
			Rooms:    rooms,
			Calls:    app.NewCallTracker(),
			Fanout:   fan,
		},
		Verifier:  verifier,
		Directory: dir,
		Metrics:   metrics,
	}
}
