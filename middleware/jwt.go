package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"familyfinance/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer         = "familyfinance"
	familyIDKey    = "familyID"
	bearerPrefix   = "Bearer "
	defaultExpires = 30 * 24 * time.Hour
)

var jwtSecret []byte

// Claims 令牌声明，令牌只授权访问一个家庭
type Claims struct {
	FamilyID string `json:"familyId"`
	jwt.RegisteredClaims
}

// InitJWT 使用配置中的密钥初始化
func InitJWT(cfg *config.Config) {
	jwtSecret = []byte(cfg.JWT.Secret)
}

// GenerateToken 为家庭签发令牌，expire<=0 时使用默认 30 天
func GenerateToken(familyID string, expire time.Duration) (string, error) {
	if len(jwtSecret) == 0 {
		return "", errors.New("jwt secret not initialized")
	}
	if familyID == "" {
		return "", errors.New("family id is required")
	}
	if expire <= 0 {
		expire = defaultExpires
	}
	now := time.Now()
	claims := Claims{
		FamilyID: familyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   familyID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ParseToken 校验签名、签发者与有效期
func ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.FamilyID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// JWTAuth 校验 Bearer 令牌并记录令牌所属家庭
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or malformed bearer token"})
			return
		}
		claims, err := ParseToken(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		c.Set(familyIDKey, claims.FamilyID)
		c.Next()
	}
}

// FamilyScope 路径参数 param 指定的家庭必须与令牌一致
func FamilyScope(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.Param(param); id != "" && id != GetCurrentFamilyID(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Token does not grant access to this family"})
			return
		}
		c.Next()
	}
}

// GetCurrentFamilyID 返回令牌中的家庭ID，未认证时为空
func GetCurrentFamilyID(c *gin.Context) string {
	return c.GetString(familyIDKey)
}
