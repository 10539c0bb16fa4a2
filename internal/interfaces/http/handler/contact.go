package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"ai-runner-api/internal/application/contact"
	"ai-runner-api/internal/domain/entity"
	"ai-runner-api/internal/domain/repository"
	"ai-runner-api/internal/interfaces/http/dto"
	"ai-runner-api/internal/interfaces/http/middleware"
)

// ContactService 联系请求服务端口
type ContactService interface {
	Submit(ctx context.Context, in contact.SubmitInput) (*entity.ContactRequest, error)
	Get(ctx context.Context, id string) (*entity.ContactRequest, error)
	List(ctx context.Context, filter repository.ContactFilter, page, pageSize int) (*repository.PagedResult[*entity.ContactRequest], error)
	RepublishPending(ctx context.Context, limit int) (int, error)
}

// ContactHandler 联系表单处理器
type ContactHandler struct {
	svc ContactService
}

// NewContactHandler 创建联系表单处理器
func NewContactHandler(svc ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// Submit 提交联系表单或课程预约
// @Summary 提交联系表单
// @Tags Contact
// @Accept json
// @Produce json
// @Param body body dto.ContactRequest true "表单"
// @Success 202 {object} dto.Response[dto.ContactResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req dto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), contact.SubmitInput{
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		Course:    req.Course,
		Interests: req.Interests,
		UserID:    middleware.GetUserIDFromGin(c),
		RequestID: c.GetString("request_id"),
	})
	if err != nil {
		dto.AppError(c, err)
		return
	}

	dto.Accepted(c, dto.ToContactResponse(result))
}

// Get 获取联系请求
// @Summary 获取联系请求
// @Tags Contact
// @Produce json
// @Param id path string true "请求 ID"
// @Success 200 {object} dto.Response[dto.ContactResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/contact/{id} [get]
func (h *ContactHandler) Get(c *gin.Context) {
	result, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.ToContactResponse(result))
}

// List 分页列出联系请求
// @Summary 联系请求列表
// @Tags Contact
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Param status query string false "状态"
// @Param email query string false "邮箱"
// @Success 200 {object} dto.Response[dto.ContactListResponse]
// @Router /v1/contact [get]
func (h *ContactHandler) List(c *gin.Context) {
	pageReq := dto.BindPage(c)
	filter := repository.ContactFilter{
		Status: entity.ContactStatus(c.Query("status")),
		Email:  c.Query("email"),
	}

	result, err := h.svc.List(c.Request.Context(), filter, pageReq.Page, pageReq.PageSize)
	if err != nil {
		dto.AppError(c, err)
		return
	}

	items := make([]*dto.ContactResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, dto.ToContactResponse(item))
	}
	dto.SuccessWithPage(c, &dto.ContactListResponse{Items: items},
		dto.NewPageMeta(result.Page, result.PageSize, result.Total))
}

// Republish 补发未进入消息流的联系请求
// @Summary 补发联系请求事件
// @Tags Contact
// @Produce json
// @Param limit query int false "单次最多补发条数" default(50)
// @Success 200 {object} dto.Response[dto.ContactRepublishResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/contact/republish [post]
func (h *ContactHandler) Republish(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 100 {
		dto.BadRequest(c, "limit must be between 1 and 100")
		return
	}

	n, err := h.svc.RepublishPending(c.Request.Context(), limit)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, &dto.ContactRepublishResponse{Published: n})
}
