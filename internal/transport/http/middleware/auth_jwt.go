package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crm-pipeline/internal/core/auth"
	resp "crm-pipeline/internal/transport/http/response"
)

// AuthJWT 解析 Bearer token，把当前用户写进上下文。
// requireRoles 不为空时还要求角色命中其一。
func AuthJWT(j *auth.JWTer, requireRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if len(requireRoles) > 0 {
			ok := false
			for _, r := range requireRoles {
				if claims.Role == r {
					ok = true
					break
				}
			}
			if !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, resp.Error(resp.CodeForbidden, "forbidden"))
				return
			}
		}
		c.Set("claims", claims)
		c.Set("userId", claims.UID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Next()
	}
}
