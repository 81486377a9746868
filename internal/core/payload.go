package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/pion/webrtc/v4"
)

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnknownEvent     = errors.New("unknown event")
)

var validate = validator.New()

// Event is one decoded inbound client event.
// Handlers switch on the concrete type.
type Event interface {
	Type() EventType
}

type ChatSend struct {
	Kind     EventType          `json:"-"`
	ToUserID domain.UserID      `json:"toUserId"`
	GroupID  domain.GroupID     `json:"groupId"`
	Msg      domain.ChatMessage `json:"msg"`
}

type CallOffer struct {
	ToUserID domain.UserID   `json:"toUserId" validate:"required"`
	Offer    json.RawMessage `json:"offer" validate:"required"`
	CallType domain.CallKind `json:"callType"`
}

type CallAnswer struct {
	ToUserID domain.UserID   `json:"toUserId" validate:"required"`
	Answer   json.RawMessage `json:"answer" validate:"required"`
}

type CallICE struct {
	ToUserID  domain.UserID   `json:"toUserId" validate:"required"`
	Candidate json.RawMessage `json:"candidate" validate:"required"`
}

// CallEnd without a target is accepted and relays nowhere.
type CallEnd struct {
	ToUserID domain.UserID `json:"toUserId"`
}

type GroupCallJoin struct {
	GroupID domain.GroupID `json:"groupId" validate:"required"`
}

type GroupCallLeave struct {
	GroupID domain.GroupID `json:"groupId" validate:"required"`
}

// GroupCallOffer goes to ToUserID when set, otherwise to every other participant.
type GroupCallOffer struct {
	GroupID  domain.GroupID  `json:"groupId" validate:"required"`
	ToUserID domain.UserID   `json:"toUserId"`
	Offer    json.RawMessage `json:"offer" validate:"required"`
	CallType domain.CallKind `json:"callType"`
}

type GroupCallAnswer struct {
	GroupID  domain.GroupID  `json:"groupId" validate:"required"`
	ToUserID domain.UserID   `json:"toUserId" validate:"required"`
	Answer   json.RawMessage `json:"answer" validate:"required"`
}

type GroupCallICE struct {
	GroupID   domain.GroupID  `json:"groupId" validate:"required"`
	ToUserID  domain.UserID   `json:"toUserId" validate:"required"`
	Candidate json.RawMessage `json:"candidate" validate:"required"`
}

type Ping struct{}

func (e ChatSend) Type() EventType      { return e.Kind }
func (CallOffer) Type() EventType       { return EventCallOffer }
func (CallAnswer) Type() EventType      { return EventCallAnswer }
func (CallICE) Type() EventType         { return EventCallICE }
func (CallEnd) Type() EventType         { return EventCallEnd }
func (GroupCallJoin) Type() EventType   { return EventGroupCallJoin }
func (GroupCallLeave) Type() EventType  { return EventGroupCallLeave }
func (GroupCallOffer) Type() EventType  { return EventGroupCallOffer }
func (GroupCallAnswer) Type() EventType { return EventGroupCallAnswer }
func (GroupCallICE) Type() EventType    { return EventGroupCallICE }
func (Ping) Type() EventType            { return EventPing }

// Decode parses one inbound frame into its typed Event.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch env.Type {
	case EventPrivateMessage, EventPrivateFile, EventGroupMessage, EventGroupFile:
		ev, err := decodeAs[ChatSend](env.Data)
		if err != nil {
			return nil, err
		}
		ev.Kind = env.Type
		if err := ev.normalize(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Type, err)
		}
		return ev, nil
	case EventCallOffer:
		return decodeAs[CallOffer](env.Data)
	case EventCallAnswer:
		return decodeAs[CallAnswer](env.Data)
	case EventCallICE:
		return decodeAs[CallICE](env.Data)
	case EventCallEnd:
		return decodeAs[CallEnd](env.Data)
	case EventGroupCallJoin:
		return decodeAs[GroupCallJoin](env.Data)
	case EventGroupCallLeave:
		return decodeAs[GroupCallLeave](env.Data)
	case EventGroupCallOffer:
		return decodeAs[GroupCallOffer](env.Data)
	case EventGroupCallAnswer:
		return decodeAs[GroupCallAnswer](env.Data)
	case EventGroupCallICE:
		return decodeAs[GroupCallICE](env.Data)
	case EventPing:
		return Ping{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
}

type checker interface {
	check() error
}

func decodeAs[T Event](raw json.RawMessage) (T, error) {
	var ev T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ev); err != nil {
			return ev, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, ev.Type(), err)
		}
	}
	if err := validate.Struct(ev); err != nil {
		return ev, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, ev.Type(), err)
	}
	if c, ok := any(&ev).(checker); ok {
		if err := c.check(); err != nil {
			return ev, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, ev.Type(), err)
		}
	}
	return ev, nil
}

// normalize fills the routing target from whichever field the client used.
func (e *ChatSend) normalize() error {
	switch {
	case e.Kind.IsPrivateChat():
		if e.ToUserID == "" {
			e.ToUserID = e.Msg.ReceiverID
		}
		if e.ToUserID == "" {
			return errors.New("toUserId is required")
		}
		e.Msg.ReceiverID = e.ToUserID
	case e.Kind.IsGroupChat():
		if e.GroupID == "" {
			e.GroupID = e.Msg.GroupID
		}
		if e.GroupID == "" {
			return errors.New("groupId is required")
		}
		e.Msg.GroupID = e.GroupID
	}
	if e.Kind == EventPrivateFile || e.Kind == EventGroupFile {
		if e.Msg.FileURL == "" {
			return errors.New("msg.fileUrl is required")
		}
	} else if e.Msg.Content == "" {
		return errors.New("msg.content is required")
	}
	return nil
}

func (e *CallOffer) check() error {
	kind, err := domain.ParseCallKind(string(e.CallType))
	if err != nil {
		return err
	}
	e.CallType = kind
	return checkSDP(e.Offer, webrtc.SDPTypeOffer)
}

func (e *CallAnswer) check() error { return checkSDP(e.Answer, webrtc.SDPTypeAnswer) }

func (e *CallICE) check() error { return checkCandidate(e.Candidate) }

func (e *GroupCallOffer) check() error {
	kind, err := domain.ParseCallKind(string(e.CallType))
	if err != nil {
		return err
	}
	e.CallType = kind
	return checkSDP(e.Offer, webrtc.SDPTypeOffer)
}

func (e *GroupCallAnswer) check() error { return checkSDP(e.Answer, webrtc.SDPTypeAnswer) }

func (e *GroupCallICE) check() error { return checkCandidate(e.Candidate) }

var jsonNull = []byte("null")

// checkSDP only looks at the shape; the SDP body itself stays opaque.
func checkSDP(raw json.RawMessage, want webrtc.SDPType) error {
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return fmt.Errorf("%s is null", want)
	}
	var sd webrtc.SessionDescription
	if err := json.Unmarshal(raw, &sd); err != nil {
		return fmt.Errorf("%s: %w", want, err)
	}
	if sd.Type != want {
		return fmt.Errorf("expected %s, got %s", want, sd.Type)
	}
	if sd.SDP == "" {
		return fmt.Errorf("%s: empty sdp", want)
	}
	return nil
}

// An empty candidate string is the end-of-candidates marker and is relayed as is.
func checkCandidate(raw json.RawMessage) error {
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return errors.New("candidate is null")
	}
	var ci webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &ci); err != nil {
		return fmt.Errorf("candidate: %w", err)
	}
	return nil
}
