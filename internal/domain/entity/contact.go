// Package entity 定义领域实体
package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ContactStatus 联系请求状态
type ContactStatus string

const (
	// ContactStatusReceived 已保存，事件尚未发出
	ContactStatusReceived ContactStatus = "received"
	// ContactStatusQueued 已发布到消息流，等待邮件服务处理
	ContactStatusQueued ContactStatus = "queued"
)

var (
	ErrContactNameRequired    = errors.New("name is required")
	ErrContactEmailRequired   = errors.New("email is required")
	ErrContactMessageRequired = errors.New("message is required")
)

// ContactRequest 联系表单 / 课程预约请求
type ContactRequest struct {
	ID              string         `json:"id" gorm:"primaryKey;type:uuid"`
	UserID          string         `json:"user_id,omitempty" gorm:"index"`
	Name            string         `json:"name" gorm:"not null"`
	Email           string         `json:"email" gorm:"not null;index"`
	Subject         string         `json:"subject,omitempty"`
	Message         string         `json:"message" gorm:"type:text;not null"`
	Course          string         `json:"course,omitempty"`
	Interests       pq.StringArray `json:"interests" gorm:"type:text[]"`
	Status          ContactStatus  `json:"status" gorm:"not null;default:received"`
	StreamMessageID string         `json:"stream_message_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName 表名
func (ContactRequest) TableName() string {
	return "contact_requests"
}

// NewContactRequest 创建联系请求，字段会被去除首尾空白
func NewContactRequest(name, email, subject, message, course string, interests []string) *ContactRequest {
	now := time.Now()
	cleaned := make([]string, 0, len(interests))
	for _, i := range interests {
		if i = strings.TrimSpace(i); i != "" {
			cleaned = append(cleaned, i)
		}
	}
	return &ContactRequest{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Subject:   strings.TrimSpace(subject),
		Message:   strings.TrimSpace(message),
		Course:    strings.TrimSpace(course),
		Interests: pq.StringArray(cleaned),
		Status:    ContactStatusReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate 校验必填字段
func (c *ContactRequest) Validate() error {
	switch {
	case c.Name == "":
		return ErrContactNameRequired
	case c.Email == "":
		return ErrContactEmailRequired
	case c.Message == "":
		return ErrContactMessageRequired
	}
	return nil
}

// MarkQueued 标记事件已发布
func (c *ContactRequest) MarkQueued(streamMessageID string) {
	c.Status = ContactStatusQueued
	c.StreamMessageID = streamMessageID
	c.UpdatedAt = time.Now()
}
