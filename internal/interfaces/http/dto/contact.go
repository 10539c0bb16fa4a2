package dto

import (
	"time"

	"ai-runner-api/internal/domain/entity"
)

// ContactRequest 联系表单请求
type ContactRequest struct {
	Name      string   `json:"name" binding:"required,max=200"`
	Email     string   `json:"email" binding:"required,email"`
	Subject   string   `json:"subject,omitempty" binding:"max=300"`
	Message   string   `json:"message" binding:"required,max=5000"`
	Course    string   `json:"course,omitempty" binding:"max=200"`
	Interests []string `json:"interests,omitempty" binding:"max=20"`
}

// ContactResponse 联系请求响应
type ContactResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Subject   string   `json:"subject,omitempty"`
	Message   string   `json:"message"`
	Course    string   `json:"course,omitempty"`
	Interests []string `json:"interests"`
	Status    string   `json:"status"`
	CreatedAt string   `json:"created_at"`
}

// ToContactResponse 转换联系请求
func ToContactResponse(c *entity.ContactRequest) *ContactResponse {
	interests := []string(c.Interests)
	if interests == nil {
		interests = []string{}
	}
	return &ContactResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Message:   c.Message,
		Course:    c.Course,
		Interests: interests,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// ContactListResponse 联系请求列表响应
type ContactListResponse struct {
	Items []*ContactResponse `json:"items"`
}

// ContactRepublishResponse 补发结果
type ContactRepublishResponse struct {
	Published int `json:"published"`
}
