// Package contact 处理联系表单与课程预约
package contact

import (
	"context"
	"net/mail"

	"ai-runner-api/internal/domain/entity"
	"ai-runner-api/internal/domain/repository"
	"ai-runner-api/internal/infrastructure/messaging"
	apperrors "ai-runner-api/pkg/errors"
	"ai-runner-api/pkg/logger"
	"ai-runner-api/pkg/metrics"
)

// Publisher 事件发布端口
type Publisher interface {
	PublishContactSubmitted(ctx context.Context, event *messaging.ContactSubmittedMessage) (string, error)
}

// SubmitInput 提交参数
type SubmitInput struct {
	Name      string
	Email     string
	Subject   string
	Message   string
	Course    string
	Interests []string
	UserID    string
	RequestID string
}

// Service 联系请求服务
type Service struct {
	repo      repository.ContactRepository
	tx        repository.Transactor
	publisher Publisher
}

// NewService 创建联系请求服务
func NewService(repo repository.ContactRepository, tx repository.Transactor, publisher Publisher) *Service {
	return &Service{repo: repo, tx: tx, publisher: publisher}
}

// Submit 保存请求后发布 contact.submitted 事件
// 保存先行提交；发布失败时请求保持 received，由 RepublishPending 补发
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*entity.ContactRequest, error) {
	c := entity.NewContactRequest(in.Name, in.Email, in.Subject, in.Message, in.Course, in.Interests)
	c.UserID = in.UserID

	if err := validate(c); err != nil {
		metrics.ContactSubmissionsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save contact request")
		}
		return nil
	})
	if err != nil {
		metrics.ContactSubmissionsTotal.WithLabelValues("failed").Inc()
		logger.Error(ctx, "contact submission failed", err, "contact_id", c.ID)
		return nil, err
	}

	if err := s.publish(ctx, c, in.RequestID); err != nil {
		metrics.ContactSubmissionsTotal.WithLabelValues("deferred").Inc()
		logger.Warn(ctx, "contact request saved, publish deferred",
			"contact_id", c.ID, "error", err.Error())
		return c, nil
	}

	metrics.ContactSubmissionsTotal.WithLabelValues("queued").Inc()
	logger.Info(ctx, "contact request queued", "contact_id", c.ID, "stream_id", c.StreamMessageID)
	return c, nil
}

// RepublishPending 补发仍处于 received 状态的请求，返回成功发布的条数
// 遇到第一个发布失败即停止
func (s *Service) RepublishPending(ctx context.Context, limit int) (int, error) {
	result, err := s.repo.List(ctx, repository.ContactFilter{Status: entity.ContactStatusReceived},
		repository.NewPagination(1, limit))
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list pending contact requests")
	}

	published := 0
	for _, c := range result.Items {
		if err := s.publish(ctx, c, ""); err != nil {
			logger.Error(ctx, "contact republish failed", err, "contact_id", c.ID)
			return published, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to queue contact request")
		}
		published++
	}
	if published > 0 {
		metrics.ContactSubmissionsTotal.WithLabelValues("republished").Add(float64(published))
		logger.Info(ctx, "pending contact requests republished", "count", published)
	}
	return published, nil
}

// publish 发布事件并标记 queued
// 事件发出后状态回写失败只记录日志：消息 ID 即请求 ID，下游按 ID 去重
func (s *Service) publish(ctx context.Context, c *entity.ContactRequest, requestID string) error {
	id, err := s.publisher.PublishContactSubmitted(ctx, &messaging.ContactSubmittedMessage{
		ContactID: c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Message:   c.Message,
		Course:    c.Course,
		Interests: []string(c.Interests),
		UserID:    c.UserID,
		RequestID: requestID,
	})
	if err != nil {
		return err
	}

	c.MarkQueued(id)
	if err := s.repo.UpdateStatus(ctx, c); err != nil {
		logger.Warn(ctx, "failed to mark contact request queued",
			"contact_id", c.ID, "stream_id", id, "error", err.Error())
	}
	return nil
}

// Get 获取单个请求
func (s *Service) Get(ctx context.Context, id string) (*entity.ContactRequest, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get contact request")
	}
	if c == nil {
		return nil, apperrors.ErrNotFound.WithDetail("contact request not found")
	}
	return c, nil
}

// List 分页列出请求
func (s *Service) List(ctx context.Context, filter repository.ContactFilter, page, pageSize int) (*repository.PagedResult[*entity.ContactRequest], error) {
	result, err := s.repo.List(ctx, filter, repository.NewPagination(page, pageSize))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list contact requests")
	}
	return result, nil
}

func validate(c *entity.ContactRequest) error {
	if err := c.Validate(); err != nil {
		return apperrors.New(apperrors.CodeContactInvalid, err.Error())
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return apperrors.New(apperrors.CodeContactInvalid, "email is invalid")
	}
	return nil
}
