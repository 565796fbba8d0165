package middleware

import (
	"errors"
	"net/http"
	"strings"

	"subgreddiit/internal/pkg"
	"subgreddiit/internal/repository/redis"

	"github.com/gin-gonic/gin"
)

var rUser = &redis.UserRepository{}

// Auth 解析 Bearer token 并校验单点登录态，通过后注入 user_id
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing token"})
			return
		}
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization header"})
			return
		}

		claims, err := pkg.ParseAccess(tokenStr)
		if err != nil {
			if errors.Is(err, pkg.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "token expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid token"})
			return
		}

		// 单点登录：redis 里的 token 才是当前有效的那一个
		stored, err := rUser.GetUserToken(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "login required"})
			return
		}
		if stored != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "logged in elsewhere"})
			return
		}

		// 活跃续期，失败不影响本次请求
		_ = rUser.ExtendUserToken(claims.UserID)

		c.Set("user_id", claims.UserID)
		c.Next()
	}
}
