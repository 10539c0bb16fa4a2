package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ai-runner-api/internal/interfaces/http/dto"
	"ai-runner-api/pkg/logger"
	"ai-runner-api/pkg/utils"
)

// TokenVerifier 访问令牌校验接口
type TokenVerifier interface {
	ParseToken(token string) (*utils.Claims, error)
}

const authDisabledKey = "auth_disabled"

// Auth 认证中间件，verifier 为 nil 时视为未启用（开发环境）
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return authenticate(verifier, true)
}

// OptionalAuth 令牌存在且有效时注入用户信息，否则匿名放行
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return authenticate(verifier, false)
}

func authenticate(verifier TokenVerifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Set(authDisabledKey, true)
			c.Next()
			return
		}

		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			if required {
				abortUnauthorized(c, err.Error())
				return
			}
			c.Next()
			return
		}

		claims, err := verifier.ParseToken(token)
		if err != nil {
			if !required {
				c.Next()
				return
			}
			msg := "invalid token"
			if errors.Is(err, utils.ErrExpiredToken) {
				msg = "token expired"
			}
			abortUnauthorized(c, msg)
			return
		}

		c.Set("user_id", claims.UserID())
		c.Set("email", claims.Email)
		c.Set("role", claims.SiteRole())

		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, claims.UserID())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// GetUserIDFromGin 获取当前用户 ID
func GetUserIDFromGin(c *gin.Context) string {
	return c.GetString("user_id")
}

// abortUnauthorized 终止请求并返回 401
func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: msg,
		TraceID: c.GetString("trace_id"),
	})
}
