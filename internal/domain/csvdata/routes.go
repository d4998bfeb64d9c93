package csvdata

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the upload and lookup routes at the server root.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/upload", h.Upload)
	r.GET("/csvData/:requestId", h.GetByRequestID)
}
