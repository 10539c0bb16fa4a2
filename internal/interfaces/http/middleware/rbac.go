package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-runner-api/internal/interfaces/http/dto"
)

// RoleAdmin 站点管理员角色
const RoleAdmin = "admin"

// RequireRole 角色检查中间件
// 检查当前用户是否为指定角色之一，否则返回 403；认证未启用时放行
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if c.GetBool(authDisabledKey) {
			c.Next()
			return
		}

		role := c.GetString("role")
		if role == "" {
			abortForbidden(c, "missing role in context")
			return
		}
		if !roleSet[role] {
			abortForbidden(c, "role not allowed")
			return
		}

		c.Next()
	}
}

// RequireAdmin 管理员权限检查
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}

// abortForbidden 终止请求并返回 403
func abortForbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
		Code:    http.StatusForbidden,
		Message: msg,
		TraceID: c.GetString("trace_id"),
	})
}
