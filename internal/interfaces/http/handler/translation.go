package handler

import (
	"github.com/gin-gonic/gin"

	"ai-runner-api/internal/application/translation"
	"ai-runner-api/internal/interfaces/http/dto"
	"ai-runner-api/pkg/logger"
)

// TranslationHandler 翻译处理器
type TranslationHandler struct {
	translator *translation.Translator
}

// NewTranslationHandler 创建翻译处理器
func NewTranslationHandler(translator *translation.Translator) *TranslationHandler {
	return &TranslationHandler{translator: translator}
}

// Translate 翻译文本或 JSON 结构，失败时返回原文
// @Summary 翻译
// @Tags Translation
// @Accept json
// @Produce json
// @Param body body dto.TranslateRequest true "文本或数据"
// @Success 200 {object} dto.Response[dto.TranslateResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/translate [post]
func (h *TranslationHandler) Translate(c *gin.Context) {
	var req dto.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Text == nil && req.Data == nil {
		dto.BadRequest(c, "text or data is required")
		return
	}

	ctx := c.Request.Context()
	source, target := h.translator.Languages()
	if req.SourceLang != "" {
		source = req.SourceLang
	}
	if req.TargetLang != "" {
		target = req.TargetLang
	}

	resp := &dto.TranslateResponse{SourceLang: source, TargetLang: target}
	if req.Text != nil {
		out := h.translator.Translate(ctx, *req.Text, source, target)
		resp.Text = &out
	}
	if req.Data != nil {
		resp.Data = h.translator.TranslateTree(ctx, req.Data, source, target)
	}
	dto.Success(c, resp)
}

// ResetCache 清空翻译缓存，remote=true 时同时清空 Redis
// @Summary 清空翻译缓存
// @Tags Translation
// @Produce json
// @Param remote query bool false "同时清空共享缓存"
// @Success 200 {object} dto.Response[translation.ResetResult]
// @Router /v1/translate/cache [delete]
func (h *TranslationHandler) ResetCache(c *gin.Context) {
	ctx := c.Request.Context()
	includeRemote := c.Query("remote") == "true"

	res, err := h.translator.Reset(ctx, includeRemote)
	if err != nil {
		logger.Error(ctx, "failed to clear translation cache", err)
		dto.InternalError(c, "failed to clear translation cache")
		return
	}

	logger.Info(ctx, "translation cache cleared",
		"memory", res.MemoryCleared, "remote", res.RemoteCleared)
	dto.Success(c, res)
}
