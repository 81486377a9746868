package core

import (
	"github.com/dkeye/Relay/internal/domain"
)

// PublishResult reports delivery stats/backpressure to callers.
type PublishResult struct {
	SendTo  int
	Dropped []Session
}

type RoomInfo struct {
	ID          domain.GroupID `json:"id"`
	MemberCount int            `json:"member_count"`
}
