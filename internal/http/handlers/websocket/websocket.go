package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/freeplay/yourleague-service/internal/push"
	"github.com/freeplay/yourleague-service/internal/types"
	"github.com/freeplay/yourleague-service/internal/utils/response"
	wsClient "github.com/freeplay/yourleague-service/internal/websocket"
)

// WebSocketHandler subscribes the connection to the push topic of one match
// @Summary Subscribe to match push messages
// @Description Upgrade to a WebSocket that receives every message pushed to match_<matchId>.
// @Tags notifications
// @Param matchId query string true "Match ID"
// @Success 101 "Switching protocols"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 403 "Origin not allowed"
// @Router /ws [get]
func WebSocketHandler(hub *wsClient.Hub, checkOrigin func(*http.Request) bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		matchID := strings.TrimSpace(r.URL.Query().Get("matchId"))
		if matchID == "" {
			slog.Warn("WebSocket connection attempted without matchId")
			response.WriteError(w, types.Validationf("matchId is required"))
			return
		}
		topic := push.Topic(matchID)

		// Upgrade connection to WebSocket
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		// Create new client and register with hub
		client := wsClient.NewClient(conn, topic, hub)
		if !hub.RegisterClient(client) {
			slog.Warn("WebSocket hub stopped, dropping connection", slog.String("topic", topic))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		// Start client goroutines
		client.Start()

		slog.Info("WebSocket connection established", slog.String("topic", topic))
	}
}
