// Package ws maintains a participant's persistent connection to the
// relay: it republishes local store changes, applies inbound snapshots
// wholesale, and reconnects on a fixed interval after a drop.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sketcharena/internal/game"
	"sketcharena/internal/wire"
)

type Channel struct {
	store    *game.Store
	url      string
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	roomID  string // room self is associated with, re-announced on connect
	closed  bool
	stopped chan struct{}
	done    chan struct{}
}

func New(store *game.Store, url string, reconnect time.Duration, log zerolog.Logger) *Channel {
	if reconnect <= 0 {
		reconnect = 1500 * time.Millisecond
	}
	return &Channel{
		store:    store,
		url:      url,
		interval: reconnect,
		log:      log.With().Str("component", "channel").Logger(),
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start registers the store listener and runs the connect loop until
// Close. Local mutations publish the full room collection; remote-origin
// changes publish nothing, which is the echo suppression that stops a
// received snapshot from bouncing back.
func (c *Channel) Start() {
	c.store.SetListener(func(origin game.Origin) {
		if origin != game.OriginLocal {
			return
		}
		c.publish()
	})
	go c.loop()
}

func (c *Channel) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.stopped:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", c.interval).Msg("dial failed")
			if !c.sleep() {
				return
			}
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		roomID := c.roomID
		c.mu.Unlock()

		// Connect handshake: pull a snapshot, then re-announce
		// membership if we were in a room before the drop.
		c.write(wire.RoomsRequest())
		if roomID != "" {
			c.write(wire.PresenceUpdate(roomID, c.store.Self()))
		}
		c.log.Info().Str("url", c.url).Msg("connected")

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		closed := c.closed
		c.mu.Unlock()
		conn.Close()
		if closed {
			return
		}
		c.log.Info().Dur("retry_in", c.interval).Msg("connection lost")
		if !c.sleep() {
			return
		}
	}
}

func (c *Channel) sleep() bool {
	select {
	case <-c.stopped:
		return false
	case <-time.After(c.interval):
		return true
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		f, err := wire.Decode(data)
		if err != nil {
			c.log.Debug().Err(err).Msg("dropping frame")
			continue
		}
		if f.Type != wire.TypeRoomsUpdate {
			continue
		}
		// Latest full snapshot wins: replace the local collection
		// wholesale. The remote origin keeps it from republishing.
		c.store.ReplaceRooms(f.Rooms)
	}
}

// publish sends the full current room collection. While disconnected the
// frame is dropped, not queued: the local edit stays applied but is
// absent from the shared view until a later mutation rebroadcasts it.
func (c *Channel) publish() {
	c.write(wire.RoomsUpdate(c.store.Rooms()))
}

func (c *Channel) write(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.log.Debug().Err(err).Msg("write failed")
	}
}

// JoinRoom announces membership and applies the join locally. Presence
// goes first: the relay's snapshot merge keeps its own roster, so the
// roster change has to travel as presence, not as part of the snapshot.
func (c *Channel) JoinRoom(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
	c.write(wire.PresenceUpdate(roomID, c.store.Self()))
	c.store.JoinRoom(roomID, nil)
}

// LeaveRoom applies the leave locally and announces it; an absent room
// id on the wire signals leaving.
func (c *Channel) LeaveRoom() {
	c.mu.Lock()
	roomID := c.roomID
	c.roomID = ""
	c.mu.Unlock()
	if roomID == "" {
		return
	}
	c.write(wire.PresenceUpdate("", c.store.Self()))
	c.store.LeaveRoom(roomID, "")
}

// Close sends a best-effort goodbye and tears the channel down.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	c.write(wire.PresenceUpdate("", c.store.Self()))
	close(c.stopped)
	if conn != nil {
		conn.Close()
	}
	<-c.done
}
