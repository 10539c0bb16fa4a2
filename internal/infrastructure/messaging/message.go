// Package messaging 提供基于 Redis Stream 的事件发布
package messaging

import (
	"encoding/json"
	"time"
)

// Message 消息结构
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(id, msgType string, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		Type:      msgType,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now(),
	}, nil
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// Stream 流定义
type Stream string

// StreamContact 默认联系表单流
const StreamContact Stream = "stream:contact"

// 消息类型
const (
	TypeContactSubmitted = "contact.submitted"
)

// ContactSubmittedMessage 联系表单提交事件，供外部邮件服务消费
type ContactSubmittedMessage struct {
	ContactID string   `json:"contact_id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Subject   string   `json:"subject,omitempty"`
	Message   string   `json:"message"`
	Course    string   `json:"course,omitempty"`
	Interests []string `json:"interests,omitempty"`
	UserID    string   `json:"user_id,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}
