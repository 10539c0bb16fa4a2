package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ai-runner-api/internal/infrastructure/optimizer"
	"ai-runner-api/internal/interfaces/http/dto"
	apperrors "ai-runner-api/pkg/errors"
	"ai-runner-api/pkg/logger"
)

// Optimizer 提示词优化服务端口
type Optimizer interface {
	Optimize(ctx context.Context, text, model string) (string, error)
	ReverseAI(ctx context.Context, req optimizer.ReverseRequest) (*optimizer.ReverseResult, error)
}

// OptimizerHandler 提示词优化处理器
type OptimizerHandler struct {
	client Optimizer
}

// NewOptimizerHandler 创建提示词优化处理器
func NewOptimizerHandler(client Optimizer) *OptimizerHandler {
	return &OptimizerHandler{client: client}
}

// Optimize 为目标模型优化提示词
// @Summary 优化提示词
// @Tags Optimizer
// @Accept json
// @Produce json
// @Param body body dto.OptimizeRequest true "提示词与目标模型"
// @Success 200 {object} dto.Response[dto.OptimizeResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/optimizer/optimize [post]
func (h *OptimizerHandler) Optimize(c *gin.Context) {
	var req dto.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	out, err := h.client.Optimize(ctx, req.Prompt, req.Model)
	if err != nil {
		logger.Warn(ctx, "prompt optimization failed", "error", err.Error(), "model", req.Model)
		dto.AppError(c, mapOptimizerError(err, apperrors.ErrOptimizationFailed))
		return
	}

	dto.Success(c, &dto.OptimizeResponse{
		Model:           strings.ToLower(strings.TrimSpace(req.Model)),
		OptimizedPrompt: out,
	})
}

// Reverse 推断内容的生成方式
// @Summary 逆向分析
// @Tags Optimizer
// @Accept json
// @Produce json
// @Param body body dto.ReverseRequest true "分析目标"
// @Success 200 {object} dto.Response[optimizer.ReverseResult]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/optimizer/reverse [post]
func (h *OptimizerHandler) Reverse(c *gin.Context) {
	var req dto.ReverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	result, err := h.client.ReverseAI(ctx, req.ToReverseRequest())
	if err != nil {
		logger.Warn(ctx, "reverse analysis failed", "error", err.Error(), "mode", req.Mode)
		dto.AppError(c, mapOptimizerError(err, apperrors.ErrOptimizationFailed))
		return
	}

	dto.Success(c, result)
}

// mapOptimizerError 本地校验错误返回 400，上游 4xx 透传其 detail
func mapOptimizerError(err error, fallback *apperrors.AppError) *apperrors.AppError {
	var apiErr *optimizer.APIError
	switch {
	case errors.Is(err, optimizer.ErrEmptyPrompt):
		return apperrors.ErrPromptEmpty
	case errors.Is(err, optimizer.ErrUnsupportedModel):
		return apperrors.Wrap(err, apperrors.CodeUnsupportedModel, err.Error())
	case errors.Is(err, optimizer.ErrInvalidMode), errors.Is(err, optimizer.ErrEmptyTarget):
		return apperrors.Wrap(err, apperrors.CodeInvalidParam, err.Error())
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError {
			return apperrors.Wrap(err, apperrors.CodeInvalidParam, apiErr.Detail)
		}
		return apperrors.Wrap(err, apperrors.CodeOptimizerError, apiErr.Detail)
	default:
		return fallback.WithError(err)
	}
}
