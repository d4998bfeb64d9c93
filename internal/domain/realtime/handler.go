package realtime

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // Allow all origins (configure in prod)
}

// Handler upgrades HTTP requests into realtime connections.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleWebSocket godoc
// @Summary Open a realtime progress connection
// @Description Upgrades to WebSocket. Send {"type":"subscribe","requestId":"..."} to bind an upload to this connection.
// @Tags Realtime
// @Router /ws [get]
func (h *Handler) HandleWebSocket(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "message": "WebSocket upgrade required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws_upgrade_failed remote=%s error=%v", c.ClientIP(), err)
		return
	}

	h.hub.ServeWS(conn)
}
