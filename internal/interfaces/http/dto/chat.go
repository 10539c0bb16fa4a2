package dto

// ChatRequest 聊天请求
type ChatRequest struct {
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

// ChatResponse 聊天响应
type ChatResponse struct {
	Reply string `json:"reply"`
}
