package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownKind    = errors.New("unknown message kind")
)

// Inbound frame kinds accepted after the init handshake.
const (
	InChat   Kind = "chat"
	InTyping Kind = "typing"
	InPing   Kind = "ping"
)

// Init is the first frame of a connection. Both fields are optional.
type Init struct {
	UserID   string `json:"user_id"`
	Language string `json:"language"`
}

type Inbound struct {
	Type      Kind            `json:"type"`
	Content   string          `json:"content"`
	IsTyping  bool            `json:"is_typing"`
	Timestamp json.RawMessage `json:"timestamp"`
}

func ParseInit(data []byte) (Init, error) {
	var in Init
	if err := decodeObject(data, &in); err != nil {
		return Init{}, err
	}
	return in, nil
}

// ParseInbound decodes a post-init frame. A missing type means chat.
// The returned frame is valid alongside ErrUnknownKind so callers can
// report the offending type.
func ParseInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := decodeObject(data, &in); err != nil {
		return Inbound{}, err
	}
	if in.Type == "" {
		in.Type = InChat
	}
	switch in.Type {
	case InChat, InTyping, InPing:
		return in, nil
	default:
		return in, fmt.Errorf("%w: %q", ErrUnknownKind, in.Type)
	}
}

func decodeObject(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: not a json object", ErrMalformedFrame)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return nil
}
