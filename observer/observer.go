// Package observer streams world state to websocket clients, one JSON frame
// per tick.
package observer

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akmonengine/voxelphys"
	"github.com/akmonengine/voxelphys/actor"
)

const (
	Version = "1"

	DEFAULT_CLIENT_BUFFER = 16
	writeWait             = 5 * time.Second
	readWait              = 60 * time.Second
)

type Frame struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Tick            uint64        `json:"tick"`
	Entities        []EntityState `json:"entities"`
	Events          []EventState  `json:"events,omitempty"`
}

type EntityState struct {
	ID       uint64     `json:"id"`
	Class    string     `json:"class"`
	Pos      [3]float64 `json:"pos"`
	Vel      [3]float64 `json:"vel"`
	OnGround bool       `json:"on_ground"`
}

type EventState struct {
	Type    string `json:"type"`
	EntityA uint64 `json:"a"`
	EntityB uint64 `json:"b,omitempty"`
}

// Hub fans tick frames out to the connected clients. A client that cannot
// keep up misses frames.
type Hub struct {
	Logger *slog.Logger
	// AllowRemote accepts clients from non loopback addresses
	AllowRemote bool

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uint64]chan []byte
	nextID  atomic.Uint64
	closed  bool

	// events of the running step, owned by the stepping goroutine
	pending []EventState
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uint64]chan []byte),
	}
}

func (h *Hub) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return h.Logger
}

// Attach collects the contact and landing events of w into the next frame.
func (h *Hub) Attach(w *voxelphys.World) {
	collect := func(event voxelphys.Event) {
		var a, b *actor.Entity
		switch e := event.(type) {
		case voxelphys.ContactEnterEvent:
			a, b = e.EntityA, e.EntityB
		case voxelphys.ContactExitEvent:
			a, b = e.EntityA, e.EntityB
		case voxelphys.LandedEvent:
			a = e.Entity
		default:
			return
		}

		state := EventState{Type: event.Type().String(), EntityA: a.ID}
		if b != nil {
			state.EntityB = b.ID
		}
		h.pending = append(h.pending, state)
	}

	w.Events.Subscribe(voxelphys.CONTACT_ENTER, collect)
	w.Events.Subscribe(voxelphys.CONTACT_EXIT, collect)
	w.Events.Subscribe(voxelphys.LANDED, collect)
}

// Capture builds the frame for the current state of w and consumes the
// collected events.
func (h *Hub) Capture(w *voxelphys.World) Frame {
	frame := Frame{
		Type:            "TICK",
		ProtocolVersion: Version,
		Tick:            w.Tick(),
		Entities:        make([]EntityState, 0, w.EntityCount()),
		Events:          h.pending,
	}
	h.pending = nil

	for _, e := range w.Entities() {
		frame.Entities = append(frame.Entities, EntityState{
			ID:       e.ID,
			Class:    string(e.Class),
			Pos:      e.Position,
			Vel:      e.Velocity,
			OnGround: e.OnGround,
		})
	}
	return frame
}

// PublishTick captures w and sends the frame to every client.
func (h *Hub) PublishTick(w *voxelphys.World) error {
	return h.Publish(h.Capture(w))
}

func (h *Hub) Publish(frame Frame) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, out := range h.clients {
		select {
		case out <- b:
		default:
			h.logger().Debug("observer frame dropped", "client", id, "tick", frame.Tick)
		}
	}
	return nil
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) join() (uint64, chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, nil, false
	}

	id := h.nextID.Add(1)
	out := make(chan []byte, DEFAULT_CLIENT_BUFFER)
	h.clients[id] = out
	return id, out, true
}

func (h *Hub) leave(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if out, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(out)
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, out := range h.clients {
		delete(h.clients, id)
		close(out)
	}
}

// Handler upgrades the request and streams frames until either side closes.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !h.AllowRemote && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out, ok := h.join()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		h.logger().Info("observer joined", "client", id, "remote", r.RemoteAddr)
		defer h.logger().Info("observer left", "client", id)

		// reader: clients only send close frames, any error ends the session
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_ = conn.SetReadDeadline(time.Now().Add(readWait))
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		defer h.leave(id)
		for {
			select {
			case <-done:
				return
			case b, ok := <-out:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
