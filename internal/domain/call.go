package domain

import "errors"

var ErrUnknownCallKind = errors.New("unknown call kind")

type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)

// ParseCallKind treats an empty kind as video, which is what clients assume.
func ParseCallKind(s string) (CallKind, error) {
	switch CallKind(s) {
	case "":
		return CallVideo, nil
	case CallAudio, CallVideo:
		return CallKind(s), nil
	}
	return "", ErrUnknownCallKind
}
