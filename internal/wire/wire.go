// Package wire defines the JSON frames exchanged between participants
// and the relay. Every inbound frame is validated against the tagged
// union before use; anything that fails validation is dropped by the
// caller rather than read optimistically.
package wire

import (
	"encoding/json"
	"errors"

	"sketcharena/internal/game"
)

const (
	TypeRoomsRequest   = "rooms:request"
	TypeRoomsUpdate    = "rooms:update"
	TypePresenceUpdate = "presence:update"
)

var (
	ErrUnknownType = errors.New("unknown frame type")
	ErrBadFrame    = errors.New("malformed frame")
)

// Frame is the tagged union of all protocol messages.
type Frame struct {
	Type string `json:"type"`

	// rooms:update
	Rooms []game.Room `json:"rooms,omitempty"`

	// presence:update; an absent RoomID signals leaving.
	RoomID      string `json:"roomId,omitempty"`
	PlayerID    string `json:"playerId,omitempty"`
	PlayerName  string `json:"playerName,omitempty"`
	PlayerColor string `json:"playerColor,omitempty"`

	// Patches is filled by Decode for rooms:update frames only.
	Patches []RoomPatch `json:"-"`
}

// PlayerPatch is the merge view of one roster entry in a rooms:update
// frame. Host flag and score decode as pointers so a receiver folding
// the snapshot into its own registry can tell an omitted field from a
// sent zero value.
type PlayerPatch struct {
	ID     string `json:"id"`
	IsHost *bool  `json:"isHost"`
	Score  *int   `json:"score"`
}

// RoomPatch carries the per-room roster patches of a rooms:update frame.
type RoomPatch struct {
	ID      string        `json:"id"`
	Players []PlayerPatch `json:"players"`
}

// PlayerPatch looks up the merge view for one roster entry of a decoded
// rooms:update frame. It returns nil for frames built in memory.
func (f Frame) PlayerPatch(roomID, playerID string) *PlayerPatch {
	for i := range f.Patches {
		if f.Patches[i].ID != roomID {
			continue
		}
		for j := range f.Patches[i].Players {
			if f.Patches[i].Players[j].ID == playerID {
				return &f.Patches[i].Players[j]
			}
		}
	}
	return nil
}

// Decode parses and validates an inbound frame.
func Decode(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, ErrBadFrame
	}
	switch f.Type {
	case TypeRoomsRequest:
	case TypeRoomsUpdate:
		if f.Rooms == nil {
			return Frame{}, ErrBadFrame
		}
		var view struct {
			Rooms []RoomPatch `json:"rooms"`
		}
		if err := json.Unmarshal(data, &view); err == nil {
			f.Patches = view.Rooms
		}
	case TypePresenceUpdate:
		if f.PlayerID == "" {
			return Frame{}, ErrBadFrame
		}
	default:
		return Frame{}, ErrUnknownType
	}
	return f, nil
}

func RoomsRequest() []byte {
	b, _ := json.Marshal(Frame{Type: TypeRoomsRequest})
	return b
}

func RoomsUpdate(rooms []game.Room) []byte {
	if rooms == nil {
		rooms = []game.Room{}
	}
	// Marshal with an always-present rooms key: an empty canonical
	// collection is still a valid snapshot.
	b, _ := json.Marshal(struct {
		Type  string      `json:"type"`
		Rooms []game.Room `json:"rooms"`
	}{Type: TypeRoomsUpdate, Rooms: rooms})
	return b
}

func PresenceUpdate(roomID string, p game.Player) []byte {
	b, _ := json.Marshal(Frame{
		Type:        TypePresenceUpdate,
		RoomID:      roomID,
		PlayerID:    p.ID,
		PlayerName:  p.Name,
		PlayerColor: p.Color,
	})
	return b
}
