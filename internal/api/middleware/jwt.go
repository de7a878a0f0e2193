package middleware

import (
	"net/http"
	"strings"
	"time"

	"tasknest/internal/pkg/revoke"
	"tasknest/internal/pkg/token"

	"github.com/gin-gonic/gin"
)

// 上下文键，由 AuthMiddleware 写入、下游 handler 读取。
const (
	CtxUserID         = "userID"
	CtxEmail          = "email"
	CtxToken          = "token"
	CtxTokenExpiresAt = "tokenExpiresAt"
)

// AuthMiddleware 校验 Bearer 令牌并将属主身份写入上下文。
//
// 缺失/格式错误/校验失败/已注销的令牌一律 401，不泄露具体原因。
// 该中间件不访问持久层。
func AuthMiddleware(tokens *token.Service, revoked *revoke.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			c.Abort()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		tokenStr := parts[1]
		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		if rev, err := revoked.IsRevoked(c.Request.Context(), tokenStr); err == nil && rev {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxToken, tokenStr)
		if claims.ExpiresAt != nil {
			c.Set(CtxTokenExpiresAt, claims.ExpiresAt.Time)
		} else {
			c.Set(CtxTokenExpiresAt, time.Time{})
		}
		c.Next()
	}
}
