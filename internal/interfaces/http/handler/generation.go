package handler

import (
	"github.com/gin-gonic/gin"

	"copysmith-ai-api/internal/application/generation"
	"copysmith-ai-api/internal/config"
	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/interfaces/http/dto"
	apperrors "copysmith-ai-api/pkg/errors"
	"copysmith-ai-api/pkg/logger"
)

// GenerationHandler 内容生成处理器
type GenerationHandler struct {
	svc *generation.Service
	cfg *config.Config
}

// NewGenerationHandler 创建内容生成处理器
func NewGenerationHandler(svc *generation.Service, cfg *config.Config) *GenerationHandler {
	return &GenerationHandler{
		svc: svc,
		cfg: cfg,
	}
}

// Generate 执行一次生成
// @Summary 生成内容
// @Description 按指定模式执行一次内容生成，成功后扣减积分
// @Tags Generations
// @Accept json
// @Produce json
// @Param request body dto.GenerationRequest true "生成请求"
// @Success 200 {object} dto.Response[dto.GenerationResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 402 {object} dto.ErrorResponse
// @Router /v1/generations [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	entityReq, ok := h.bindRequest(c)
	if !ok {
		return
	}

	record, err := h.svc.Generate(c.Request.Context(), entityReq)
	if err != nil {
		// 扣费落账失败时内容已生成，连同告警一起返回
		if apperrors.IsCode(err, apperrors.CodeLedgerWriteFailed) {
			dto.SuccessWithWarning(c, dto.FromGenerationRecord(record),
				"content generated but credit deduction failed; billing will be reconciled")
			return
		}
		logger.Warn(c.Request.Context(), "generation request failed",
			"mode", entityReq.Mode,
			"error", err,
		)
		dto.AppError(c, err)
		return
	}

	dto.Success(c, dto.FromGenerationRecord(record))
}

// Get 查询单条生成记录
// @Summary 查询生成记录
// @Tags Generations
// @Produce json
// @Param id path string true "记录 ID"
// @Success 200 {object} dto.Response[dto.GenerationResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/generations/{id} [get]
func (h *GenerationHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		dto.Unauthorized(c, "user not authenticated")
		return
	}

	record, err := h.svc.GetRecord(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.FromGenerationRecord(record))
}

// List 分页查询生成历史
// @Summary 查询生成历史
// @Tags Generations
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} dto.Response[dto.GenerationListResponse]
// @Router /v1/generations [get]
func (h *GenerationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		dto.Unauthorized(c, "user not authenticated")
		return
	}

	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.ListRecords(c.Request.Context(), userID, query.ToPagination())
	if err != nil {
		dto.AppError(c, err)
		return
	}

	records := make([]*dto.GenerationResponse, 0, len(result.Items))
	for _, r := range result.Items {
		records = append(records, dto.FromGenerationRecord(r))
	}
	dto.SuccessWithPage(c, dto.GenerationListResponse{Records: records},
		dto.NewPageMeta(query.Page, query.PageSize, result.Total))
}

// bindRequest 绑定并校验生成请求，解析模式与 Provider
func (h *GenerationHandler) bindRequest(c *gin.Context) (*entity.GenerationRequest, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		dto.Unauthorized(c, "user not authenticated")
		return nil, false
	}

	var req dto.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return nil, false
	}

	mode, known := entity.ParseMode(req.Mode)
	if !known {
		dto.AppError(c, apperrors.ErrInvalidMode.WithDetail("mode "+req.Mode+" is not supported"))
		return nil, false
	}

	entityReq := req.ToEntity(userID, mode)
	if mode != entity.ModeImage {
		provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
		if err != nil {
			dto.BadRequest(c, err.Error())
			return nil, false
		}
		entityReq.Provider = provider
		entityReq.Model = model
	}
	return entityReq, true
}
