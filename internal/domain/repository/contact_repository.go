package repository

import (
	"context"

	"ai-runner-api/internal/domain/entity"
)

// ContactFilter 联系请求过滤条件
type ContactFilter struct {
	Status entity.ContactStatus
	Email  string
}

// ContactRepository 联系请求仓储接口
type ContactRepository interface {
	// Create 保存联系请求
	Create(ctx context.Context, contact *entity.ContactRequest) error
	// GetByID 根据 ID 获取，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.ContactRequest, error)
	// UpdateStatus 更新状态与消息流 ID
	UpdateStatus(ctx context.Context, contact *entity.ContactRequest) error
	// List 按创建时间倒序分页列出
	List(ctx context.Context, filter ContactFilter, pagination Pagination) (*PagedResult[*entity.ContactRequest], error)
}
