package dto

import (
	"encoding/base64"

	"ai-runner-api/internal/application/playground"
	"ai-runner-api/internal/domain/prompt"
)

// PromptRequest 提示词请求
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateRequest 生成请求，settings 缺省时使用默认设置
type GenerateRequest struct {
	Prompt      string                     `json:"prompt"`
	Settings    *prompt.GenerationSettings `json:"settings,omitempty"`
	AspectRatio string                     `json:"aspect_ratio,omitempty"`
}

// ResolveSettings 合并默认设置与宽高比预设
func (r *GenerateRequest) ResolveSettings() prompt.GenerationSettings {
	s := prompt.DefaultSettings()
	if r.Settings != nil {
		s = *r.Settings
	}
	if r.AspectRatio != "" {
		s.ApplyAspectRatio(r.AspectRatio)
	}
	return s.Normalize()
}

// AnalysisResponse 质量评估响应
type AnalysisResponse struct {
	Prompt string `json:"prompt"`
	prompt.Analysis
}

// SettingsResponse 默认设置与宽高比预设
type SettingsResponse struct {
	Defaults     prompt.GenerationSettings `json:"defaults"`
	AspectRatios []prompt.AspectRatio      `json:"aspect_ratios"`
}

// ImageResponse 单张图像，Image 为 data URL
type ImageResponse struct {
	Prompt      string       `json:"prompt"`
	Image       string       `json:"image,omitempty"`
	ContentType string       `json:"content_type,omitempty"`
	Attempts    int          `json:"attempts,omitempty"`
	Error       *ErrorDetail `json:"error,omitempty"`
	ErrorText   string       `json:"error_message,omitempty"`
}

// CompareResponse 对比响应
type CompareResponse struct {
	Analysis    prompt.Analysis           `json:"analysis"`
	Enhancement prompt.Enhancement        `json:"enhancement"`
	Settings    prompt.GenerationSettings `json:"settings"`
	Original    ImageResponse             `json:"original"`
	Enhanced    ImageResponse             `json:"enhanced"`
}

// ToCompareResponse 转换对比结果
func ToCompareResponse(c *playground.Comparison) *CompareResponse {
	return &CompareResponse{
		Analysis:    c.Analysis,
		Enhancement: c.Enhancement,
		Settings:    c.Settings,
		Original:    toImageResponse(c.Original),
		Enhanced:    toImageResponse(c.Enhanced),
	}
}

func toImageResponse(b playground.Branch) ImageResponse {
	resp := ImageResponse{Prompt: b.Prompt}
	if b.Err != nil {
		resp.ErrorText = b.Err.Message
		resp.Error = &ErrorDetail{ErrorCode: string(b.Err.Code), Details: b.Err.Detail}
		return resp
	}
	if b.Image != nil {
		resp.ContentType = b.Image.ContentType
		resp.Attempts = b.Image.Attempts
		resp.Image = "data:" + b.Image.ContentType + ";base64," + base64.StdEncoding.EncodeToString(b.Image.Data)
	}
	return resp
}
