// Package relay implements the stateless-per-room broadcaster every
// participant syncs through: it keeps the canonical room collection,
// folds presence announcements and snapshot updates into it, and fans
// the result out to all connected participants. It is also the single
// countdown authority for active rounds.
package relay

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sketcharena/internal/game"
	"sketcharena/internal/wire"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	readLimit  = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Relay struct {
	log zerolog.Logger

	mu     sync.Mutex
	rooms  []*game.Room
	conns  map[*conn]struct{}
	timers map[string]chan struct{}
	closed bool
}

func New(log zerolog.Logger) *Relay {
	r := &Relay{
		log:    log.With().Str("component", "relay").Logger(),
		conns:  make(map[*conn]struct{}),
		timers: make(map[string]chan struct{}),
	}
	demo := game.NewRoom("demo", "示例房间")
	demo.Hint = "水果类别"
	r.rooms = []*game.Room{demo}
	return r
}

// Rooms returns the canonical collection, busiest rooms first.
func (r *Relay) Rooms() []game.Room {
	r.mu.Lock()
	snap := r.snapshotLocked()
	r.mu.Unlock()
	for i := 1; i < len(snap); i++ {
		for j := i; j > 0 && len(snap[j].Players) > len(snap[j-1].Players); j-- {
			snap[j], snap[j-1] = snap[j-1], snap[j]
		}
	}
	return snap
}

func (r *Relay) snapshotLocked() []game.Room {
	out := make([]game.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, *room.Clone())
	}
	return out
}

func (r *Relay) findLocked(id string) *game.Room {
	for _, room := range r.rooms {
		if room.ID == id {
			return room
		}
	}
	return nil
}

// Close stops every countdown and drops every connection.
func (r *Relay) Close() {
	r.mu.Lock()
	r.closed = true
	for id, stop := range r.timers {
		close(stop)
		delete(r.timers, id)
	}
	conns := make([]*conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()
	for _, c := range conns {
		c.cleanup()
	}
}

type conn struct {
	relay *Relay
	ws    *websocket.Conn
	send  chan []byte
	once  sync.Once

	// current presence association, guarded by relay.mu
	roomID   string
	playerID string
}

// HandleWebSocket upgrades the request and runs the connection pumps.
func (r *Relay) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn().Err(err).Msg("upgrade failed")
		return
	}

	c := &conn{relay: r, ws: ws, send: make(chan []byte, 64)}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		ws.Close()
		return
	}
	r.conns[c] = struct{}{}
	total := len(r.conns)
	r.mu.Unlock()
	r.log.Info().Int("connections", total).Msg("client connected")

	go c.writePump()
	go c.readPump()
}

func (c *conn) cleanup() {
	c.once.Do(func() {
		close(c.send)
		c.ws.Close()
	})
}

func (c *conn) readPump() {
	defer func() {
		c.relay.drop(c)
		c.cleanup()
	}()

	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		f, err := wire.Decode(data)
		if err != nil {
			// Malformed or unknown frames are dropped silently.
			c.relay.log.Debug().Err(err).Msg("dropping frame")
			continue
		}
		switch f.Type {
		case wire.TypeRoomsRequest:
			c.trySend(wire.RoomsUpdate(c.relay.Rooms()))
		case wire.TypePresenceUpdate:
			c.relay.handlePresence(c, f)
		case wire.TypeRoomsUpdate:
			c.relay.handleRoomsUpdate(f)
		}
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cleanup()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *conn) trySend(msg []byte) {
	defer func() {
		// Sending on a send channel closed by cleanup is survivable.
		_ = recover()
	}()
	select {
	case c.send <- msg:
	default:
	}
}

// drop removes a closed connection and, if it had announced presence,
// removes its player the same way an explicit leave would.
func (r *Relay) drop(c *conn) {
	r.mu.Lock()
	if _, ok := r.conns[c]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, c)
	changed := false
	if c.roomID != "" && c.playerID != "" {
		changed = r.removePlayerLocked(c.roomID, c.playerID)
	}
	r.reconcileTimersLocked()
	snap := r.snapshotLocked()
	total := len(r.conns)
	r.mu.Unlock()

	r.log.Info().Int("connections", total).Msg("client disconnected")
	if changed {
		r.broadcast(wire.RoomsUpdate(snap))
	}
}

func (r *Relay) removePlayerLocked(roomID, playerID string) bool {
	room := r.findLocked(roomID)
	if room == nil {
		return false
	}
	if !room.RemovePlayer(playerID) {
		return false
	}
	if len(room.Players) == 0 {
		for i, existing := range r.rooms {
			if existing.ID == roomID {
				r.rooms = append(r.rooms[:i], r.rooms[i+1:]...)
				break
			}
		}
		r.stopTimerLocked(roomID)
	}
	return true
}

func (r *Relay) handlePresence(c *conn, f wire.Frame) {
	r.mu.Lock()
	if c.roomID != "" && c.playerID != "" {
		r.removePlayerLocked(c.roomID, c.playerID)
	}
	if f.RoomID != "" {
		room := r.findLocked(f.RoomID)
		if room == nil {
			// Presence for an unknown id creates the room implicitly.
			room = game.NewRoom(f.RoomID, "未命名房间")
			r.rooms = append(r.rooms, room)
		}
		name := f.PlayerName
		if name == "" {
			name = "玩家"
		}
		color := f.PlayerColor
		if color == "" {
			color = "#ff8a3d"
		}
		room.AddPlayer(game.Player{ID: f.PlayerID, Name: name, Color: color})
		c.roomID, c.playerID = f.RoomID, f.PlayerID
	} else {
		c.roomID, c.playerID = "", ""
	}
	r.reconcileTimersLocked()
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info().Str("player", f.PlayerID).Str("room", f.RoomID).Msg("presence")
	r.broadcast(wire.RoomsUpdate(snap))
}

// handleRoomsUpdate adopts an inbound snapshot as canonical, but keeps
// the registry's own roster per room and merges only role, isHost and
// score by player id, so presence the sender's stale view missed is not
// lost. Host flag and score fall back to the registry value when the
// sender omitted them on the wire.
func (r *Relay) handleRoomsUpdate(f wire.Frame) {
	r.mu.Lock()
	next := make([]*game.Room, 0, len(f.Rooms))
	for i := range f.Rooms {
		incoming := f.Rooms[i].Clone()
		if existing := r.findLocked(incoming.ID); existing != nil {
			merged := append([]game.Player(nil), existing.Players...)
			for j := range merged {
				in := incoming.Player(merged[j].ID)
				if in == nil {
					continue
				}
				if in.Role != game.RoleNone {
					merged[j].Role = in.Role
				}
				if p := f.PlayerPatch(incoming.ID, merged[j].ID); p != nil {
					if p.IsHost != nil {
						merged[j].IsHost = *p.IsHost
					}
					if p.Score != nil {
						merged[j].Score = *p.Score
					}
				} else {
					merged[j].IsHost = in.IsHost
					merged[j].Score = in.Score
				}
			}
			incoming.Players = merged
		}
		next = append(next, incoming)
	}
	r.rooms = next
	r.reconcileTimersLocked()
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.broadcast(wire.RoomsUpdate(snap))
}

func (r *Relay) broadcast(msg []byte) {
	r.mu.Lock()
	conns := make([]*conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()
	for _, c := range conns {
		c.trySend(msg)
	}
	r.log.Debug().Int("fanout", len(conns)).Msg("broadcast")
}

// stopTimerLocked cancels the countdown driver for a pruned room.
func (r *Relay) stopTimerLocked(roomID string) {
	if stop, ok := r.timers[roomID]; ok {
		close(stop)
		delete(r.timers, roomID)
	}
}

// reconcileTimersLocked keeps exactly one countdown driver per room in
// the drawing phase and cancels drivers for rooms that left it.
func (r *Relay) reconcileTimersLocked() {
	if r.closed {
		return
	}
	for _, room := range r.rooms {
		if room.Phase != game.PhaseDrawing {
			continue
		}
		if room.TimeLeft <= 0 {
			// A drawing room with no countdown left has already run
			// out; end it on the timeout path instead of letting it
			// sit in drawing forever.
			room.EndRound("")
			continue
		}
		if r.timers[room.ID] == nil {
			stop := make(chan struct{})
			r.timers[room.ID] = stop
			go r.runCountdown(room.ID, stop)
		}
	}
	for id, stop := range r.timers {
		room := r.findLocked(id)
		if room == nil || room.Phase != game.PhaseDrawing {
			close(stop)
			delete(r.timers, id)
		}
	}
}

// runCountdown decrements the room's published TimeLeft once per second
// and broadcasts each value; at zero it ends the round on the timeout
// path. Every other participant treats the published value as
// authoritative.
func (r *Relay) runCountdown(roomID string, stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			room := r.findLocked(roomID)
			if room == nil || room.Phase != game.PhaseDrawing {
				delete(r.timers, roomID)
				r.mu.Unlock()
				return
			}
			room.TimeLeft--
			done := room.TimeLeft <= 0
			if done {
				room.EndRound("")
				delete(r.timers, roomID)
			}
			snap := r.snapshotLocked()
			r.mu.Unlock()
			r.broadcast(wire.RoomsUpdate(snap))
			if done {
				return
			}
		}
	}
}
