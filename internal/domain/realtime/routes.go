package realtime

import "github.com/gin-gonic/gin"

// RegisterRoutes exposes the realtime endpoint on /ws and on the root path,
// so clients dialing ws://host:port/ are accepted as well.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws", h.HandleWebSocket)
	r.GET("/", h.HandleWebSocket)
}
