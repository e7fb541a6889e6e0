// Package protocol defines the JSON frames exchanged over a relay connection.
// Outbound envelopes form a closed set; each variant encodes its own "type".
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

type Kind string

const (
	KindUserJoined Kind = "user_joined"
	KindConnected  Kind = "connected"
	KindMessage    Kind = "message"
	KindTyping     Kind = "typing"
	KindUserLeft   Kind = "user_left"
	KindError      Kind = "error"
	KindPong       Kind = "pong"
)

// Envelope is implemented only by the variants in this file.
type Envelope interface {
	Kind() Kind
	envelope()
}

type UserJoined struct {
	UserID   domain.UserID   `json:"user_id"`
	Language domain.Language `json:"language"`
	Message  string          `json:"message"`
}

type Connected struct {
	Message  string          `json:"message"`
	UserID   domain.UserID   `json:"user_id"`
	RoomID   domain.RoomID   `json:"room_id"`
	Language domain.Language `json:"language"`
}

// Message carries chat content. OriginalContent is set only on translated
// copies; Timestamp is passed through untouched.
type Message struct {
	UserID          domain.UserID   `json:"user_id"`
	Content         string          `json:"content"`
	OriginalContent *string         `json:"original_content,omitempty"`
	Language        domain.Language `json:"language"`
	IsOriginal      bool            `json:"is_original"`
	Timestamp       json.RawMessage `json:"timestamp"`
}

type Typing struct {
	UserID   domain.UserID `json:"user_id"`
	IsTyping bool          `json:"is_typing"`
}

type UserLeft struct {
	UserID  domain.UserID `json:"user_id"`
	Message string        `json:"message"`
}

type Error struct {
	Message string `json:"message"`
}

type Pong struct{}

func NewUserJoined(m *domain.Member) UserJoined {
	return UserJoined{
		UserID:   m.ID,
		Language: m.Language,
		Message:  fmt.Sprintf("User %s joined the room", m.ID),
	}
}

func NewConnected(room domain.RoomID, m *domain.Member) Connected {
	return Connected{
		Message:  fmt.Sprintf("Connected to room %s as %s", room, m.ID),
		UserID:   m.ID,
		RoomID:   room,
		Language: m.Language,
	}
}

func NewUserLeft(id domain.UserID) UserLeft {
	return UserLeft{UserID: id, Message: fmt.Sprintf("User %s left the room", id)}
}

func NewError(msg string) Error { return Error{Message: msg} }

func (UserJoined) Kind() Kind { return KindUserJoined }
func (Connected) Kind() Kind  { return KindConnected }
func (Message) Kind() Kind    { return KindMessage }
func (Typing) Kind() Kind     { return KindTyping }
func (UserLeft) Kind() Kind   { return KindUserLeft }
func (Error) Kind() Kind      { return KindError }
func (Pong) Kind() Kind       { return KindPong }

func (UserJoined) envelope() {}
func (Connected) envelope()  {}
func (Message) envelope()    {}
func (Typing) envelope()     {}
func (UserLeft) envelope()   {}
func (Error) envelope()      {}
func (Pong) envelope()       {}

func (e UserJoined) MarshalJSON() ([]byte, error) {
	type body UserJoined
	return json.Marshal(struct {
		Type Kind `json:"type"`
		body
	}{KindUserJoined, body(e)})
}

func (e Connected) MarshalJSON() ([]byte, error) {
	type body Connected
	return json.Marshal(struct {
		Type Kind `json:"type"`
		body
	}{KindConnected, body(e)})
}

func (e Message) MarshalJSON() ([]byte, error) {
	type body Message
	return json.Marshal(struct {
		Type Kind `json:"type"`
		body
	}{KindMessage, body(e)})
}

func (e Typing) MarshalJSON() ([]byte, error) {
	type body Typing
	return json.Marshal(struct {
		Type Kind `json:"type"`
		body
	}{KindTyping, body(e)})
}

func (e UserLeft) MarshalJSON() ([]byte, error) {
	type body UserLeft
	return json.Marshal(struct {
		Type Kind `json:"type"`
		body
	}{KindUserLeft, body(e)})
}

func (e Error) MarshalJSON() ([]byte, error) {
	type body Error
	return json.Marshal(struct {
		Type Kind `json:"type"`
		body
	}{KindError, body(e)})
}

func (Pong) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Kind `json:"type"`
	}{KindPong})
}

// Encode renders env as a single text frame.
func Encode(env Envelope) (core.Frame, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Kind(), err)
	}
	return core.Frame(b), nil
}
