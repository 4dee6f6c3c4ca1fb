package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"familyfinance/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initJWTTestConfig() {
	InitJWT(&config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-jwt-secret-key"},
	})
}

func TestGenerateToken(t *testing.T) {
	initJWTTestConfig()

	token, err := GenerateToken("family-1", 24*time.Hour)
	require.NoError(t, err)
	assert.Greater(t, len(token), 20)

	// 可解析
	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "family-1", claims.FamilyID)
	assert.Equal(t, "family-1", claims.Subject)

	_, err = GenerateToken("", time.Hour)
	assert.Error(t, err)
}

func TestParseToken(t *testing.T) {
	initJWTTestConfig()

	// 空字符串
	_, err := ParseToken("")
	assert.Error(t, err)

	// 无效格式
	_, err = ParseToken("not.a.valid.jwt")
	assert.Error(t, err)
	_, err = ParseToken("eyJhbGciOiJmb29iIn0.xxxx.yyyy")
	assert.Error(t, err)

	// 已过期
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		FamilyID: "family-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-jwt-secret-key"))
	require.NoError(t, err)
	_, err = ParseToken(signed)
	assert.Error(t, err)

	// 其他密钥签发
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		FamilyID:         "family-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
	})
	signed, err = forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = ParseToken(signed)
	assert.Error(t, err)
}

func TestJWTAuth(t *testing.T) {
	initJWTTestConfig()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(JWTAuth())
	router.GET("/family/:id", FamilyScope("id"), func(c *gin.Context) {
		c.String(200, "family:%s", GetCurrentFamilyID(c))
	})

	do := func(path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// 无 token
	w := do("/family/family-1", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "message")

	// 格式错误（非 Bearer）
	assert.Equal(t, http.StatusUnauthorized, do("/family/family-1", "Basic xyz").Code)
	// 仅 Bearer 无 token
	assert.Equal(t, http.StatusUnauthorized, do("/family/family-1", "Bearer ").Code)

	token, err := GenerateToken("family-1", time.Hour)
	require.NoError(t, err)

	// 有效 token
	w = do("/family/family-1", "Bearer "+token)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "family:family-1", w.Body.String())

	// 其他家庭
	assert.Equal(t, http.StatusForbidden, do("/family/family-2", "Bearer "+token).Code)
}

func TestGetCurrentFamilyID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "", GetCurrentFamilyID(c))

	c.Set("familyID", "family-9")
	assert.Equal(t, "family-9", GetCurrentFamilyID(c))
}
