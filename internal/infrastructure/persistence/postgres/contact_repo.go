package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ai-runner-api/internal/domain/entity"
	"ai-runner-api/internal/domain/repository"
)

// ContactRepository 联系请求仓储实现
type ContactRepository struct {
	client *Client
}

// NewContactRepository 创建联系请求仓储
func NewContactRepository(client *Client) *ContactRepository {
	return &ContactRepository{client: client}
}

// Create 保存联系请求
func (r *ContactRepository) Create(ctx context.Context, contact *entity.ContactRequest) error {
	ctx, span := tracer.Start(ctx, "postgres.ContactRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(contact).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create contact request: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取联系请求
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*entity.ContactRequest, error) {
	ctx, span := tracer.Start(ctx, "postgres.ContactRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var contact entity.ContactRequest
	if err := db.First(&contact, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get contact request: %w", err)
	}
	return &contact, nil
}

// UpdateStatus 更新状态与消息流 ID
func (r *ContactRepository) UpdateStatus(ctx context.Context, contact *entity.ContactRequest) error {
	ctx, span := tracer.Start(ctx, "postgres.ContactRepository.UpdateStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.ContactRequest{}).
		Where("id = ?", contact.ID).
		Updates(map[string]interface{}{
			"status":            contact.Status,
			"stream_message_id": contact.StreamMessageID,
			"updated_at":        contact.UpdatedAt,
		}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update contact status: %w", err)
	}
	return nil
}

// List 分页列出联系请求
func (r *ContactRepository) List(ctx context.Context, filter repository.ContactFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.ContactRequest], error) {
	ctx, span := tracer.Start(ctx, "postgres.ContactRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.ContactRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}

	// 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count contact requests: %w", err)
	}

	// 获取列表
	var contacts []*entity.ContactRequest
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&contacts).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list contact requests: %w", err)
	}

	return repository.NewPagedResult(contacts, total, pagination), nil
}
