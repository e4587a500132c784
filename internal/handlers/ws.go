package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Faysoula/SyncSolve-sub000/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the router's CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades the connection and attaches the authenticated
// user to the session hub. The connection lives until the client goes away;
// the hub's disconnect path then cleans up room membership and any call state.
func (hr *HandlerRepo) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		hr.unauthorized(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		hr.logger.Error("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := hub.NewClient(hr.sessionHub, conn, userID, hr.logger)
	hr.sessionHub.Register(client)

	hr.logger.Info("websocket connected", "user_id", userID, "handle_id", client.ID)

	go client.WritePump()
	go client.ReadPump()
}
