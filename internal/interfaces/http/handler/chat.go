package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"ai-runner-api/internal/infrastructure/chat"
	"ai-runner-api/internal/interfaces/http/dto"
	apperrors "ai-runner-api/pkg/errors"
	"ai-runner-api/pkg/logger"
)

// ChatClient 聊天助手端口
type ChatClient interface {
	Reply(ctx context.Context, msg, source string) (string, error)
}

// ChatHandler 聊天助手处理器
type ChatHandler struct {
	client ChatClient
}

// NewChatHandler 创建聊天助手处理器
func NewChatHandler(client ChatClient) *ChatHandler {
	return &ChatHandler{client: client}
}

// Chat 转发消息给聊天模型
// @Summary 聊天助手
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.ChatRequest true "消息"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		dto.BadRequest(c, "Message is required")
		return
	}

	ctx := c.Request.Context()
	reply, err := h.client.Reply(ctx, msg, strings.TrimSpace(req.Source))
	if err != nil {
		logger.Error(ctx, "chat request failed", err)
		dto.AppError(c, mapChatError(err))
		return
	}

	dto.Success(c, &dto.ChatResponse{Reply: reply})
}

func mapChatError(err error) *apperrors.AppError {
	var backendErr *chat.BackendError
	switch {
	case errors.Is(err, chat.ErrNotConfigured):
		return apperrors.New(apperrors.CodeProviderNotConfig, "LLM API key is not configured on the server")
	case errors.As(err, &backendErr):
		return apperrors.Wrap(err, apperrors.CodeLLMProviderError, "LLM backend error").WithDetail(backendErr.Details)
	default:
		return apperrors.ErrChatFailed.WithError(err)
	}
}
