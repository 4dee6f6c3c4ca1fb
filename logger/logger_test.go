package logger

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"familyfinance/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New(config.LogConfig{Level: "debug"}).GetLevel())
	// 无法解析的级别回退到 info
	assert.Equal(t, logrus.InfoLevel, New(config.LogConfig{Level: "loud"}).GetLevel())
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := NewWithOutput(config.LogConfig{Level: "info", Format: "json"}, &buf)

	router := gin.New()
	router.Use(GinMiddleware(log))
	router.GET("/missing", func(c *gin.Context) { c.Status(404) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/missing", nil))
	assert.Equal(t, 404, w.Code)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "/missing", line["path"])
	assert.Equal(t, float64(404), line["status"])
}
