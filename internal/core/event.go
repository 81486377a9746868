package core

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Relay/internal/domain"
)

// EventType is the wire name of an event.
type EventType string

const (
	EventUsersOnline EventType = "users_online"
	EventUserOnline  EventType = "user_online"
	EventUserOffline EventType = "user_offline"

	EventPrivateMessage EventType = "private_message"
	EventPrivateFile    EventType = "private_file"
	EventGroupMessage   EventType = "group_message"
	EventGroupFile      EventType = "group_file"

	EventCallOffer  EventType = "call:offer"
	EventCallAnswer EventType = "call:answer"
	EventCallICE    EventType = "call:ice"
	EventCallEnd    EventType = "call:end"

	EventGroupCallJoin       EventType = "groupCall:join"
	EventGroupCallLeave      EventType = "groupCall:leave"
	EventGroupCallUserJoined EventType = "groupCall:user-joined"
	EventGroupCallEnd        EventType = "groupCall:end"
	EventGroupCallOffer      EventType = "groupCall:offer"
	EventGroupCallAnswer     EventType = "groupCall:answer"
	EventGroupCallICE        EventType = "groupCall:ice"

	EventPing EventType = "ping"
	EventPong EventType = "pong"
)

// IsPrivateChat reports whether t is delivered to one receiver identity.
func (t EventType) IsPrivateChat() bool {
	return t == EventPrivateMessage || t == EventPrivateFile
}

// IsGroupChat reports whether t is delivered to a whole room.
func (t EventType) IsGroupChat() bool {
	return t == EventGroupMessage || t == EventGroupFile
}

// Envelope is the framing of every text frame in both directions.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps v into an Envelope frame.
func Encode(t EventType, v any) (Frame, error) {
	env := Envelope{Type: t}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", t, err)
		}
		env.Data = data
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	return b, nil
}

// Outbound payloads.

type UsersOnline struct {
	Count int             `json:"count"`
	Users []domain.UserID `json:"users"`
}

type PresenceChange struct {
	UserID domain.UserID `json:"userId"`
}

type ChatDelivery struct {
	ToUserID domain.UserID      `json:"toUserId,omitempty"`
	GroupID  domain.GroupID     `json:"groupId,omitempty"`
	Msg      domain.ChatMessage `json:"msg"`
}

// CallSignal carries SDP and ICE blobs untouched.
type CallSignal struct {
	GroupID      domain.GroupID  `json:"groupId,omitempty"`
	FromUserID   domain.UserID   `json:"fromUserId"`
	FromUserName string          `json:"fromUserName,omitempty"`
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
	CallType     domain.CallKind `json:"callType,omitempty"`
}

type ParticipantChange struct {
	GroupID  domain.GroupID `json:"groupId"`
	UserID   domain.UserID  `json:"userId"`
	UserName string         `json:"userName,omitempty"`
}
