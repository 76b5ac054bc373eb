package handlers

import (
	"log"
	"net/http"

	"github.com/dom/snake-arena/internal/domain"
	"github.com/dom/snake-arena/internal/service"
	"github.com/dom/snake-arena/internal/websocket"
	"github.com/go-chi/chi/v5"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // spectating is public
	},
}

type SpectateHandler struct {
	broadcaster    *websocket.Broadcaster
	sessionService *service.SessionService
}

func NewSpectateHandler(broadcaster *websocket.Broadcaster, sessionService *service.SessionService) *SpectateHandler {
	return &SpectateHandler{broadcaster: broadcaster, sessionService: sessionService}
}

// Handle upgrades the connection and binds it as the session's single live
// subscriber. Sessions that are not pending are rejected before the upgrade
// so a client never opens a stream that will immediately die.
func (h *SpectateHandler) Handle(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	resolution := h.sessionService.Resolve(r.Context(), sessionID)
	switch resolution.State {
	case domain.SessionPending:
	case domain.SessionCompleted:
		http.Error(w, "Session already completed; fetch the replay instead", http.StatusGone)
		return
	default:
		http.Error(w, "Unknown session", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := websocket.NewClient(conn, h.broadcaster, sessionID)
	if err := h.broadcaster.Register(sessionID, client); err != nil {
		log.Printf("ERROR [handlers.Spectate] session %s already has a subscriber", sessionID)
		conn.WriteMessage(ws.CloseMessage,
			ws.FormatCloseMessage(ws.ClosePolicyViolation, "session already has a live subscriber"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
