package router

import (
	"github.com/gin-gonic/gin"
)

// Guards 路由级中间件
type Guards struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	Admin        gin.HandlerFunc
	RateLimit    gin.HandlerFunc
}

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers, g Guards) {
	// 提示词测试场
	prompts := v1.Group("/prompts")
	{
		prompts.POST("/analyze", h.Prompt.Analyze)
		prompts.POST("/enhance", h.Prompt.Enhance)
		prompts.GET("/settings", h.Prompt.Settings)
		prompts.POST("/generate", g.Auth, g.RateLimit, h.Prompt.Generate)
		prompts.POST("/compare", g.Auth, g.RateLimit, h.Prompt.Compare)
	}

	// 提示词优化
	opt := v1.Group("/optimizer", g.OptionalAuth, g.RateLimit)
	{
		opt.POST("/optimize", h.Optimizer.Optimize)
		opt.POST("/reverse", h.Optimizer.Reverse)
	}

	// 翻译
	v1.POST("/translate", h.Translation.Translate)
	v1.DELETE("/translate/cache", g.Auth, g.Admin, h.Translation.ResetCache)

	// 聊天助手
	v1.POST("/chat", g.OptionalAuth, g.RateLimit, h.Chat.Chat)

	// 联系表单
	contact := v1.Group("/contact")
	{
		contact.POST("", g.OptionalAuth, g.RateLimit, h.Contact.Submit)
		contact.GET("", g.Auth, g.Admin, h.Contact.List)
		contact.GET("/:id", g.Auth, g.Admin, h.Contact.Get)
		contact.POST("/republish", g.Auth, g.Admin, h.Contact.Republish)
	}
}
