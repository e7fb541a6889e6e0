package domain

import (
	"errors"
	"strings"
)

// MaxRoomMembers is a hard limit, rooms are never configurable.
const (
	MaxRoomMembers = 2
	MaxRoomIDLen   = 64
)

var (
	ErrEmptyRoomID   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

type RoomID string

type Room struct {
	ID RoomID
}

func ParseRoomID(raw string) (RoomID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrEmptyRoomID
	}
	if len(id) > MaxRoomIDLen {
		return "", ErrRoomIDTooLong
	}
	return RoomID(id), nil
}
