package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhaseDrawing Phase = "drawing"
	PhaseReveal  Phase = "reveal"
)

type Role string

const (
	RoleNone    Role = ""
	RolePainter Role = "painter"
	RoleGuesser Role = "guesser"
)

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
	Color  string `json:"color"`
	Role   Role   `json:"role,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is an opaque stroke record; the core stores and transports it
// but never interprets the points.
type Path struct {
	ID     string  `json:"id"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Points []Point `json:"points"`
}

type Message struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// Room is one game session. Optional fields marshal absent when zero so
// the wire shape matches what peers expect; TimeLeft == 0 means no
// countdown is running.
type Room struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Players       []Player  `json:"players"`
	Paths         []Path    `json:"paths"`
	Messages      []Message `json:"messages"`
	Phase         Phase     `json:"phase"`
	Word          string    `json:"word,omitempty"`
	Hint          string    `json:"hint,omitempty"`
	PainterID     string    `json:"painterId,omitempty"`
	TimeLeft      int       `json:"timeLeft,omitempty"`
	AnswerOptions []string  `json:"answerOptions,omitempty"`
	WinnerName    string    `json:"winnerName,omitempty"`
}

func NewRoom(id, name string) *Room {
	return &Room{
		ID:       id,
		Name:     name,
		Players:  []Player{},
		Paths:    []Path{},
		Messages: []Message{},
		Phase:    PhaseLobby,
	}
}

// Clone returns a deep copy safe to hand outside the owning lock. Empty
// roster/stroke/chat slices stay non-nil so they marshal as [] on the
// wire.
func (r *Room) Clone() *Room {
	c := *r
	c.Players = append(make([]Player, 0, len(r.Players)), r.Players...)
	c.Messages = append(make([]Message, 0, len(r.Messages)), r.Messages...)
	c.AnswerOptions = append([]string(nil), r.AnswerOptions...)
	c.Paths = make([]Path, 0, len(r.Paths))
	for _, p := range r.Paths {
		p.Points = append([]Point(nil), p.Points...)
		c.Paths = append(c.Paths, p)
	}
	return &c
}

// Player returns a pointer into Players; valid only while the caller
// holds the room.
func (r *Room) Player(id string) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// Palette matches the colors participants pick their identity from.
var palette = []string{"#ff8a3d", "#5de4c7", "#7c3aed", "#22d3ee", "#f472b6", "#facc15"}

// NewSelf builds the process-local identity: generated once per
// participant and reused across reconnects.
func NewSelf() Player {
	return Player{
		ID:     uuid.NewString(),
		Name:   fmt.Sprintf("玩家-%d", rand.Intn(90)+10),
		Score:  0,
		IsHost: true,
		Color:  palette[rand.Intn(len(palette))],
	}
}
