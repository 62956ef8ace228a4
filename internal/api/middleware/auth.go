package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/action-trace/pkg/response"
)

// CtxUserID gin context 里当前登录用户 id 的 key
const CtxUserID = "userID"

type claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// IssueToken 登录成功后签发 HMAC token
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

// ParseToken 校验并取出用户 id
func ParseToken(secret, tokenStr string) (string, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || c.UserID == "" {
		return "", errors.New("invalid token")
	}
	return c.UserID, nil
}

// AuthRequired Bearer token 解析中间件；只负责解出操作者身份
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		userID, err := ParseToken(secret, tokenStr)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		c.Set(CtxUserID, userID)
		c.Next()
	}
}

// UserID 从 context 取当前操作者
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}
