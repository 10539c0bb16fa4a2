package dto

import "ai-runner-api/internal/infrastructure/optimizer"

// OptimizeRequest 提示词优化请求
type OptimizeRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model" binding:"required"`
}

// OptimizeResponse 提示词优化响应
type OptimizeResponse struct {
	Model           string `json:"model"`
	OptimizedPrompt string `json:"optimized_prompt"`
}

// ReverseRequest 逆向分析请求，creativity/depth 缺省为 40/70
type ReverseRequest struct {
	Mode       string `json:"mode"`
	Target     string `json:"target"`
	Notes      string `json:"notes"`
	Creativity *int   `json:"creativity,omitempty"`
	Depth      *int   `json:"depth,omitempty"`
	DetectAI   string `json:"detect_ai"`
}

// ToReverseRequest 转换为客户端请求
func (r *ReverseRequest) ToReverseRequest() optimizer.ReverseRequest {
	out := optimizer.ReverseRequest{
		Mode:       r.Mode,
		Target:     r.Target,
		Notes:      r.Notes,
		Creativity: 40,
		Depth:      70,
		DetectAI:   r.DetectAI,
	}
	if r.Creativity != nil {
		out.Creativity = *r.Creativity
	}
	if r.Depth != nil {
		out.Depth = *r.Depth
	}
	return out
}
