package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/neo-haven/internal/engine"
)

const (
	maxStreamConns = 16
	streamBuffer   = 8
	writeWait      = 5 * time.Second
	pingEvery      = 15 * time.Second
)

// streamMessage is one frame pushed to websocket subscribers. Type is
// "snapshot" for the frame sent on connect and "turn" after each turn.
type streamMessage struct {
	Type   string               `json:"type"`
	State  stateView            `json:"state"`
	Result *engine.TurnResult   `json:"result,omitempty"`
	Deltas *engine.MetricDeltas `json:"deltas,omitempty"`
}

// hub fans completed turns out to stream subscribers. A subscriber that
// falls behind loses frames rather than stalling the turn loop.
type hub struct {
	mu     sync.Mutex
	subs   map[uint64]chan []byte
	nextID uint64
	conns  atomic.Int32
}

func newHub() *hub {
	return &hub{subs: make(map[uint64]chan []byte)}
}

func (h *hub) subscribe() (uint64, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan []byte, streamBuffer)
	h.subs[h.nextID] = ch
	return h.nextID, ch
}

func (h *hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			slog.Warn("stream subscriber lagging, frame dropped", "sub_id", id)
		}
	}
}

// Publish pushes a completed turn to every stream subscriber. It is meant
// to be installed as the orchestrator's OnTurn hook.
func (s *Server) Publish(out engine.Outcome) {
	msg, err := json.Marshal(streamMessage{
		Type:   "turn",
		State:  newStateView(out.State, false),
		Result: &out.Result,
		Deltas: &out.Deltas,
	})
	if err != nil {
		slog.Error("marshal stream frame", "error", err)
		return
	}
	s.hub.broadcast(msg)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.hub.conns.Add(1) > maxStreamConns {
		s.hub.conns.Add(-1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.hub.conns.Add(-1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	subID, ch := s.hub.subscribe()
	defer s.hub.unsubscribe(subID)
	slog.Info("stream client connected", "sub_id", subID)

	hello, err := json.Marshal(streamMessage{
		Type:  "snapshot",
		State: newStateView(s.Orch.Snapshot(), s.Orch.Busy()),
	})
	if err != nil {
		return
	}
	if err := write(conn, websocket.TextMessage, hello); err != nil {
		return
	}

	// The client sends nothing; reading only surfaces its close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingEvery)
	defer ping.Stop()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := write(conn, websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			slog.Info("stream client disconnected", "sub_id", subID)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func write(conn *websocket.Conn, kind int, b []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(kind, b)
}
