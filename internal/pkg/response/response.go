package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every body carries its own numeric status next to the HTTP one.
// They can differ: a missing record is HTTP 200 with status 404.

func OK(c *gin.Context, message string, data interface{}) {
	body := gin.H{
		"status":  http.StatusOK,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"status":  statusCode,
		"message": message,
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, message string, err error) {
	c.JSON(statusCode, gin.H{
		"status":  statusCode,
		"message": message,
		"error":   err.Error(),
	})
}

// NotFound answers HTTP 200 with status 404 in the body.
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusNotFound,
		"message": message,
	})
}
