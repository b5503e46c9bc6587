package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Origin tags a store change with where it came from. The
// synchronization channel republishes local changes and stays quiet on
// remote ones, which is what keeps snapshots from echoing forever.
type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

type Listener func(origin Origin)

// Store owns one participant's local view of the room collection plus
// the self identity used to tag outgoing actions. All mutations are
// synchronous and atomic; stale room ids are no-ops rather than errors
// because divergence is expected between snapshots.
type Store struct {
	mu       sync.Mutex
	self     Player
	rooms    []*Room
	listener Listener
}

func NewStore(self Player) *Store {
	return &Store{self: self}
}

// SetListener registers the change observer. At most one listener;
// the synchronization channel is the intended consumer.
func (s *Store) SetListener(fn Listener) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

func (s *Store) notify(origin Origin) {
	s.mu.Lock()
	fn := s.listener
	s.mu.Unlock()
	if fn != nil {
		fn(origin)
	}
}

func (s *Store) Self() Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}

// Rooms returns a deep-copied snapshot of the collection.
func (s *Store) Rooms() []Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomsLocked()
}

func (s *Store) roomsLocked() []Room {
	out := make([]Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, *r.Clone())
	}
	return out
}

// Sorted returns rooms ordered by descending occupancy, the lobby
// listing order.
func (s *Store) Sorted() []Room {
	rooms := s.Rooms()
	for i := 1; i < len(rooms); i++ {
		for j := i; j > 0 && len(rooms[j].Players) > len(rooms[j-1].Players); j-- {
			rooms[j], rooms[j-1] = rooms[j-1], rooms[j]
		}
	}
	return rooms
}

func (s *Store) Room(id string) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.findLocked(id); r != nil {
		return *r.Clone(), true
	}
	return Room{}, false
}

func (s *Store) findLocked(id string) *Room {
	for _, r := range s.rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// ReplaceRooms swaps the whole collection for an inbound snapshot.
// Latest full snapshot wins; the notification carries OriginRemote so
// the channel does not publish it back.
func (s *Store) ReplaceRooms(rooms []Room) {
	s.mu.Lock()
	next := make([]*Room, 0, len(rooms))
	for i := range rooms {
		next = append(next, rooms[i].Clone())
	}
	s.rooms = next
	s.mu.Unlock()
	s.notify(OriginRemote)
}

func (s *Store) CreateRoom(name string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.rooms = append(s.rooms, NewRoom(id, name))
	s.mu.Unlock()
	s.notify(OriginLocal)
	return id
}

// JoinRoom adds the player (self when p is nil) to the room,
// idempotently.
func (s *Store) JoinRoom(roomID string, p *Player) {
	s.mu.Lock()
	player := s.self
	if p != nil {
		player = *p
	}
	r := s.findLocked(roomID)
	changed := r != nil && r.AddPlayer(player)
	s.mu.Unlock()
	if changed {
		s.notify(OriginLocal)
	}
}

// LeaveRoom removes the player (self when playerID is empty), running
// painter failover and pruning the room once empty.
func (s *Store) LeaveRoom(roomID, playerID string) {
	s.mu.Lock()
	if playerID == "" {
		playerID = s.self.ID
	}
	r := s.findLocked(roomID)
	changed := r != nil && r.RemovePlayer(playerID)
	if changed && len(r.Players) == 0 {
		s.pruneLocked(roomID)
	}
	s.mu.Unlock()
	if changed {
		s.notify(OriginLocal)
	}
}

func (s *Store) pruneLocked(roomID string) {
	for i, r := range s.rooms {
		if r.ID == roomID {
			s.rooms = append(s.rooms[:i], s.rooms[i+1:]...)
			return
		}
	}
}

func (s *Store) SetPlayerRole(roomID, playerID string, role Role) {
	s.mu.Lock()
	r := s.findLocked(roomID)
	changed := r != nil && r.SetRole(playerID, role)
	s.mu.Unlock()
	if changed {
		s.notify(OriginLocal)
	}
}

func (s *Store) ResetRoles(roomID string) {
	s.mu.Lock()
	r := s.findLocked(roomID)
	if r != nil {
		r.ClearRoles()
	}
	s.mu.Unlock()
	if r != nil {
		s.notify(OriginLocal)
	}
}

// AddMessage appends a chat message attributed to self. Never fails;
// unknown rooms are ignored.
func (s *Store) AddMessage(roomID, text string) {
	s.mu.Lock()
	r := s.findLocked(roomID)
	if r != nil {
		r.Messages = append(r.Messages, Message{
			ID:   uuid.NewString(),
			From: s.self.Name,
			Text: text,
			TS:   time.Now().UnixMilli(),
		})
	}
	s.mu.Unlock()
	if r != nil {
		s.notify(OriginLocal)
	}
}

// AddPath appends a stroke record. Authority is checked at this mutation
// boundary: while a painter is assigned, only the painter's own process
// may append.
func (s *Store) AddPath(roomID string, p Path) {
	s.mu.Lock()
	r := s.findLocked(roomID)
	changed := false
	if r != nil && (r.PainterID == "" || r.PainterID == s.self.ID) {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		r.Paths = append(r.Paths, p)
		changed = true
	}
	s.mu.Unlock()
	if changed {
		s.notify(OriginLocal)
	}
}

func (s *Store) ClearPaths(roomID string) {
	s.mu.Lock()
	r := s.findLocked(roomID)
	if r != nil {
		r.Paths = []Path{}
	}
	s.mu.Unlock()
	if r != nil {
		s.notify(OriginLocal)
	}
}

func (s *Store) StartRound(roomID string, seconds, optionCount int) {
	s.mu.Lock()
	r := s.findLocked(roomID)
	changed := r != nil && r.StartRound(seconds, optionCount)
	s.mu.Unlock()
	if changed {
		s.notify(OriginLocal)
	}
}

func (s *Store) EndRound(roomID, winnerName string) {
	s.mu.Lock()
	r := s.findLocked(roomID)
	if r != nil {
		r.EndRound(winnerName)
	}
	s.mu.Unlock()
	if r != nil {
		s.notify(OriginLocal)
	}
}

// SetTimeLeft overwrites the published countdown value. Participants
// other than the countdown authority only ever observe this value.
func (s *Store) SetTimeLeft(roomID string, timeLeft int) {
	s.mu.Lock()
	r := s.findLocked(roomID)
	if r != nil {
		r.TimeLeft = timeLeft
	}
	s.mu.Unlock()
	if r != nil {
		s.notify(OriginLocal)
	}
}

type GuessResult struct {
	IsCorrect bool   `json:"isCorrect"`
	Target    string `json:"target,omitempty"`
}

// Guess compares text against the room's secret word. A hit ends the
// round with self as the winner.
func (s *Store) Guess(roomID, text string) GuessResult {
	s.mu.Lock()
	r := s.findLocked(roomID)
	if r == nil || r.Word == "" {
		s.mu.Unlock()
		return GuessResult{}
	}
	res := GuessResult{IsCorrect: r.MatchesWord(text), Target: r.Word}
	if res.IsCorrect {
		r.EndRound(s.self.Name)
	}
	s.mu.Unlock()
	if res.IsCorrect {
		s.notify(OriginLocal)
	}
	return res
}
