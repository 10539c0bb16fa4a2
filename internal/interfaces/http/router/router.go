// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-runner-api/internal/config"
	"ai-runner-api/internal/interfaces/http/handler"
	"ai-runner-api/internal/interfaces/http/middleware"
)

// Handlers 全部 HTTP 处理器
type Handlers struct {
	Health      *handler.HealthHandler
	Prompt      *handler.PromptHandler
	Optimizer   *handler.OptimizerHandler
	Translation *handler.TranslationHandler
	Chat        *handler.ChatHandler
	Contact     *handler.ContactHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *Handlers
	verifier middleware.TokenVerifier
	limiter  middleware.RateLimiter
}

// New 创建路由器，verifier 为 nil 时认证关闭，limiter 为 nil 时不限流
func New(cfg *config.Config, handlers *Handlers, verifier middleware.TokenVerifier, limiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		verifier: verifier,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	r.engine.Use(middleware.AccessLog(middleware.AccessLogConfig{
		SkipPaths: middleware.DefaultAccessLogSkipPaths,
	}))
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	h := r.handlers

	r.engine.GET("/health", h.Health.Health)
	r.engine.GET("/ready", h.Health.Ready)
	r.engine.GET("/live", h.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	RegisterV1Routes(r.engine.Group("/v1"), h, Guards{
		Auth:         middleware.Auth(r.verifier),
		OptionalAuth: middleware.OptionalAuth(r.verifier),
		Admin:        middleware.RequireAdmin(),
		RateLimit: middleware.RateLimit(middleware.RateLimitConfig{
			Enabled:  r.cfg.Security.RateLimit.Enabled,
			Requests: r.cfg.Security.RateLimit.Requests,
			Window:   r.cfg.Security.RateLimit.Window,
		}, r.limiter),
	})
}
