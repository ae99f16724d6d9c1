package inspect

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/controlstore/pkg/store"
)

// handleWatch streams the store's state over a WebSocket: once on connect,
// then after every change. Changes that arrive faster than the client
// reads are coalesced, so the client always ends on the latest state.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("watch upgrade failed", "store", e.Name, "error", err)
		return
	}
	defer conn.Close()

	latest := make(chan *store.State, 1)
	push := func(st *store.State) {
		select {
		case latest <- st:
		default:
			// Replace the pending state with the newer one.
			select {
			case <-latest:
			default:
			}
			select {
			case latest <- st:
			default:
			}
		}
	}
	unsubscribe := e.Store.Subscribe(push)
	defer unsubscribe()
	push(e.Store.Snapshot())

	// The read loop only detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
					websocket.CloseNormalClosure) {
					s.logger.Error("watch read error", "store", e.Name, "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()

	s.logger.Debug("watch opened", "store", e.Name)
	defer s.logger.Debug("watch closed", "store", e.Name)

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case st := <-latest:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteJSON(StateView{Name: e.Name, State: st}); err != nil {
				s.logger.Warn("watch write failed", "store", e.Name, "error", err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
