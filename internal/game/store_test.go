package game

import (
	"reflect"
	"testing"
)

func newTestStore() *Store {
	return NewStore(Player{ID: "self", Name: "自己", Color: "#ff8a3d"})
}

func TestCreateRoom(t *testing.T) {
	s := newTestStore()
	id := s.CreateRoom("新房间")
	if id == "" {
		t.Fatal("room id should not be empty")
	}
	r, ok := s.Room(id)
	if !ok {
		t.Fatal("created room should be retrievable")
	}
	if r.Phase != PhaseLobby {
		t.Fatalf("new room starts in lobby, got %s", r.Phase)
	}
	if len(r.Players) != 0 {
		t.Fatal("new room starts empty")
	}
}

func TestJoinRoomIdempotent(t *testing.T) {
	s := newTestStore()
	id := s.CreateRoom("r")
	s.JoinRoom(id, nil)
	s.JoinRoom(id, nil)

	r, _ := s.Room(id)
	if len(r.Players) != 1 {
		t.Fatalf("expected exactly one roster entry, got %d", len(r.Players))
	}
	if !r.Players[0].IsHost {
		t.Fatal("first joiner should be host")
	}
}

func TestJoinUnknownRoomNoop(t *testing.T) {
	s := newTestStore()
	s.JoinRoom("missing", nil) // must not panic or error
	if len(s.Rooms()) != 0 {
		t.Fatal("joining an unknown room should not create it locally")
	}
}

func TestLeaveRoomPrunesEmpty(t *testing.T) {
	s := newTestStore()
	id := s.CreateRoom("r")
	s.JoinRoom(id, nil)
	s.LeaveRoom(id, "")
	if _, ok := s.Room(id); ok {
		t.Fatal("room with zero players should be pruned")
	}
}

func TestAddMessageAttribution(t *testing.T) {
	s := newTestStore()
	id := s.CreateRoom("r")
	s.AddMessage(id, "你好")

	r, _ := s.Room(id)
	if len(r.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(r.Messages))
	}
	m := r.Messages[0]
	if m.From != "自己" {
		t.Fatalf("message should be attributed to self, got %q", m.From)
	}
	if m.ID == "" || m.TS == 0 {
		t.Fatal("message should carry an id and timestamp")
	}
}

func TestAddPathAuthorityBoundary(t *testing.T) {
	s := newTestStore()
	id := s.CreateRoom("r")
	s.JoinRoom(id, nil)
	s.JoinRoom(id, &Player{ID: "other", Name: "别人"})
	s.SetPlayerRole(id, "other", RolePainter)

	s.AddPath(id, Path{Color: "#000", Width: 3, Points: []Point{{X: 1, Y: 2}}})
	r, _ := s.Room(id)
	if len(r.Paths) != 0 {
		t.Fatal("non-painter self must not append strokes")
	}

	s.SetPlayerRole(id, "self", RolePainter)
	s.AddPath(id, Path{Color: "#000", Width: 3, Points: []Point{{X: 1, Y: 2}}})
	r, _ = s.Room(id)
	if len(r.Paths) != 1 {
		t.Fatal("painter self should append strokes")
	}
	if r.Paths[0].ID == "" {
		t.Fatal("stroke should get an id assigned")
	}
}

func TestClearPaths(t *testing.T) {
	s := newTestStore()
	id := s.CreateRoom("r")
	s.JoinRoom(id, nil)
	s.AddPath(id, Path{Points: []Point{{X: 1, Y: 1}}})
	s.ClearPaths(id)
	r, _ := s.Room(id)
	if len(r.Paths) != 0 {
		t.Fatal("clearPaths should empty the stroke collection")
	}
}

func TestGuessScenarios(t *testing.T) {
	s := newTestStore()
	id := s.CreateRoom("r")
	s.JoinRoom(id, nil)
	s.StartRound(id, 60, 8)
	s.mu.Lock()
	s.findLocked(id).Word = "苹果"
	s.mu.Unlock()

	res := s.Guess(id, "橙子")
	if res.IsCorrect {
		t.Fatal("wrong word should miss")
	}
	if res.Target != "苹果" {
		t.Fatalf("result should carry the target, got %q", res.Target)
	}
	if r, _ := s.Room(id); r.Phase != PhaseDrawing {
		t.Fatal("miss must not change the phase")
	}

	res = s.Guess(id, " 苹果 ")
	if !res.IsCorrect {
		t.Fatal("whitespace-padded match should hit")
	}
	r, _ := s.Room(id)
	if r.Phase != PhaseReveal {
		t.Fatalf("hit should move to reveal, got %s", r.Phase)
	}
	if r.WinnerName != "自己" {
		t.Fatalf("winner should be the guesser's name, got %q", r.WinnerName)
	}
	if r.TimeLeft != 0 {
		t.Fatal("reveal must not carry a countdown")
	}
}

func TestGuessWithoutWord(t *testing.T) {
	s := newTestStore()
	id := s.CreateRoom("r")
	if res := s.Guess(id, "苹果"); res.IsCorrect {
		t.Fatal("guess with no word set is always incorrect")
	}
}

func TestReplaceRoomsWholesaleAndOrigin(t *testing.T) {
	s := newTestStore()
	localID := s.CreateRoom("local")

	var origins []Origin
	s.SetListener(func(o Origin) { origins = append(origins, o) })

	incoming := []Room{*NewRoom("remote", "远方")}
	s.ReplaceRooms(incoming)

	if _, ok := s.Room(localID); ok {
		t.Fatal("replacement is wholesale; local-only rooms are discarded")
	}
	if _, ok := s.Room("remote"); !ok {
		t.Fatal("incoming rooms should be present")
	}
	if !reflect.DeepEqual(origins, []Origin{OriginRemote}) {
		t.Fatalf("replacement must notify with remote origin, got %v", origins)
	}

	s.AddMessage("remote", "hi")
	if origins[len(origins)-1] != OriginLocal {
		t.Fatal("local mutation must notify with local origin")
	}
}

func TestConvergenceViaSnapshot(t *testing.T) {
	a := newTestStore()
	id := a.CreateRoom("r")
	a.JoinRoom(id, nil)
	a.StartRound(id, 60, 8)
	a.AddPath(id, Path{Color: "#123", Width: 2, Points: []Point{{X: 3, Y: 4}}})

	b := NewStore(Player{ID: "b", Name: "乙"})
	b.ReplaceRooms(a.Rooms())

	if !reflect.DeepEqual(a.Rooms(), b.Rooms()) {
		t.Fatal("applying A's snapshot should make B's state deep-equal")
	}
}

func TestSortedByOccupancy(t *testing.T) {
	s := newTestStore()
	empty := s.CreateRoom("empty")
	busy := s.CreateRoom("busy")
	s.JoinRoom(busy, &Player{ID: "p1"})
	s.JoinRoom(busy, &Player{ID: "p2"})

	sorted := s.Sorted()
	if sorted[0].ID != busy || sorted[1].ID != empty {
		t.Fatal("rooms should sort by descending occupancy")
	}
}

func TestSetTimeLeftObserved(t *testing.T) {
	s := newTestStore()
	id := s.CreateRoom("r")
	s.SetTimeLeft(id, 42)
	if r, _ := s.Room(id); r.TimeLeft != 42 {
		t.Fatalf("published countdown should be stored as-is, got %d", r.TimeLeft)
	}
}
