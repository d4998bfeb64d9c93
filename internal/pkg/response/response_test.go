package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, fn func(c *gin.Context)) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestOK_OmitsNilData(t *testing.T) {
	code, body := render(t, func(c *gin.Context) { OK(c, "fine", nil) })

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(200), body["status"])
	assert.NotContains(t, body, "data")
}

func TestNotFound_KeepsHTTP200(t *testing.T) {
	code, body := render(t, func(c *gin.Context) { NotFound(c, "Data not found") })

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(404), body["status"])
	assert.Equal(t, "Data not found", body["message"])
}

func TestErrorWithDetails(t *testing.T) {
	code, body := render(t, func(c *gin.Context) {
		ErrorWithDetails(c, http.StatusInternalServerError, "Error processing file", errors.New("bad quote"))
	})

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, float64(500), body["status"])
	assert.Equal(t, "bad quote", body["error"])
}
