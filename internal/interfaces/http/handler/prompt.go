package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ai-runner-api/internal/application/playground"
	"ai-runner-api/internal/domain/prompt"
	"ai-runner-api/internal/interfaces/http/dto"
	"ai-runner-api/internal/interfaces/http/middleware"
)

// PromptHandler 提示词测试场处理器
type PromptHandler struct {
	svc *playground.Service
}

// NewPromptHandler 创建提示词处理器
func NewPromptHandler(svc *playground.Service) *PromptHandler {
	return &PromptHandler{svc: svc}
}

// Analyze 评估提示词质量
// @Summary 评估提示词
// @Tags Prompts
// @Accept json
// @Produce json
// @Param body body dto.PromptRequest true "提示词"
// @Success 200 {object} dto.Response[dto.AnalysisResponse]
// @Router /v1/prompts/analyze [post]
func (h *PromptHandler) Analyze(c *gin.Context) {
	var req dto.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	dto.Success(c, &dto.AnalysisResponse{
		Prompt:   req.Prompt,
		Analysis: h.svc.Analyze(c.Request.Context(), req.Prompt),
	})
}

// Enhance 增强提示词
// @Summary 增强提示词
// @Tags Prompts
// @Accept json
// @Produce json
// @Param body body dto.PromptRequest true "提示词"
// @Success 200 {object} dto.Response[prompt.Enhancement]
// @Router /v1/prompts/enhance [post]
func (h *PromptHandler) Enhance(c *gin.Context) {
	var req dto.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	dto.Success(c, h.svc.Enhance(c.Request.Context(), req.Prompt))
}

// Settings 返回默认生成设置与宽高比预设
// @Summary 生成设置
// @Tags Prompts
// @Produce json
// @Success 200 {object} dto.Response[dto.SettingsResponse]
// @Router /v1/prompts/settings [get]
func (h *PromptHandler) Settings(c *gin.Context) {
	dto.Success(c, &dto.SettingsResponse{
		Defaults:     prompt.DefaultSettings(),
		AspectRatios: prompt.AspectRatios,
	})
}

// Generate 生成单张图像，直接返回图像字节
// @Summary 生成图像
// @Tags Prompts
// @Accept json
// @Produce image/png
// @Param body body dto.GenerateRequest true "提示词与设置"
// @Success 200 {file} binary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/prompts/generate [post]
func (h *PromptHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	img, err := h.svc.Generate(c.Request.Context(), req.Prompt, req.ResolveSettings())
	if err != nil {
		dto.AppError(c, err)
		return
	}

	c.Header(middleware.ImageAttemptsHeader, strconv.Itoa(img.Attempts))
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// Compare 对比原始提示词与增强提示词的生成结果
// @Summary 对比生成
// @Tags Prompts
// @Accept json
// @Produce json
// @Param body body dto.GenerateRequest true "提示词与设置"
// @Success 200 {object} dto.Response[dto.CompareResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/prompts/compare [post]
func (h *PromptHandler) Compare(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Compare(c.Request.Context(), req.Prompt, req.ResolveSettings())
	if err != nil {
		dto.AppError(c, err)
		return
	}

	dto.Success(c, dto.ToCompareResponse(result))
}
