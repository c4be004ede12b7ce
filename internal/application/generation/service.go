package generation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"copysmith-ai-api/internal/application/credit"
	"copysmith-ai-api/internal/config"
	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/domain/repository"
	apperrors "copysmith-ai-api/pkg/errors"
	"copysmith-ai-api/pkg/logger"
	"copysmith-ai-api/pkg/metrics"
)

const defaultTitleCount = 5

// ResultCache 生成结果的旁路缓存
type ResultCache interface {
	Set(ctx context.Context, recordID string, value any) error
	Get(ctx context.Context, recordID string, dest any) (bool, error)
}

// Service 生成服务：请求校验、积分门控、流水线执行与记录落库
type Service struct {
	orchestrator *Orchestrator
	gate         *credit.Gate
	records      repository.GenerationRepository
	cache        ResultCache
	cfg          *config.PipelineConfig
}

// NewService 创建生成服务。cache 可为 nil，此时跳过结果缓存。
func NewService(
	orchestrator *Orchestrator,
	gate *credit.Gate,
	records repository.GenerationRepository,
	cache ResultCache,
	cfg *config.PipelineConfig,
) *Service {
	return &Service{
		orchestrator: orchestrator,
		gate:         gate,
		records:      records,
		cache:        cache,
		cfg:          cfg,
	}
}

// Generate 执行一次非流式生成并返回落库后的记录。
// 返回 LedgerWriteFailed 时记录仍然有效，调用方应连同告警一起返回内容。
func (s *Service) Generate(ctx context.Context, req *entity.GenerationRequest) (*entity.GenerationRecord, error) {
	return s.run(ctx, req, nil)
}

// GenerateStream 执行一次流式生成。
// 事件经 emit 串行推送，done 事件保证最后发出且恰好一次。
func (s *Service) GenerateStream(ctx context.Context, req *entity.GenerationRequest, emit EmitFunc) {
	record, err := s.run(ctx, req, emit)

	done := Event{Type: EventDone}
	if record != nil {
		done.RecordID = record.ID
		done.Status = record.Status
	}
	if err != nil {
		appErr := apperrors.AsAppError(err)
		done.Code = string(appErr.Code)
		if apperrors.IsCode(err, apperrors.CodeLedgerWriteFailed) {
			// 内容已生成，扣费失败作为告警随 done 返回
			done.Message = "content generated but credit deduction failed"
		} else {
			emit(errorEvent(0, appErr.Message))
			done.Status = entity.GenerationStatusFailed
		}
	}
	emit(done)
}

// GetRecord 查询单条生成记录，只允许记录属主访问
func (s *Service) GetRecord(ctx context.Context, id, userID string) (*entity.GenerationRecord, error) {
	if s.cache != nil {
		var cached entity.GenerationRecord
		hit, err := s.cache.Get(ctx, id, &cached)
		if err != nil {
			logger.Warn(ctx, "result cache read failed, falling back to database", "error", err)
		} else if hit {
			if cached.UserID != userID {
				return nil, apperrors.ErrForbidden
			}
			return &cached, nil
		}
	}

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load generation record")
	}
	if record == nil {
		return nil, apperrors.ErrRecordNotFound
	}
	if record.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return record, nil
}

// ListRecords 分页列出用户的生成历史
func (s *Service) ListRecords(ctx context.Context, userID string, page repository.Pagination) (*repository.PagedResult[*entity.GenerationRecord], error) {
	result, err := s.records.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list generation records")
	}
	return result, nil
}

func (s *Service) run(ctx context.Context, req *entity.GenerationRequest, emit EmitFunc) (*entity.GenerationRecord, error) {
	s.applyDefaults(req)
	if err := req.Validate(); err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail(err.Error())
	}

	ctx = context.WithValue(ctx, logger.ModeKey, string(req.Mode))
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OverallTimeout)
	defer cancel()

	record := entity.NewGenerationRecord(uuid.NewString(), req)
	start := time.Now()

	var result *Result
	err := s.gate.WithCredits(ctx, req.UserID, req.CreditCost, req.Mode, record.ID, func(ctx context.Context) error {
		r, runErr := s.orchestrator.Run(ctx, req, emit)
		if runErr != nil {
			return runErr
		}
		result = r
		return nil
	})

	record.DurationMs = time.Since(start).Milliseconds()
	if result != nil {
		record.Status = result.Status
		record.Artifacts = result.Artifacts
		record.PromptTokens = result.Usage.PromptTokens
		record.CompletionTokens = result.Usage.CompletionTokens
		record.ErrorMessage = joinUnitErrors(result.UnitErrors)
	}

	if err != nil && !apperrors.IsCode(err, apperrors.CodeLedgerWriteFailed) {
		if apperrors.IsCode(err, apperrors.CodeInsufficientCredits) ||
			apperrors.IsCode(err, apperrors.CodeInvalidParam) {
			// 流水线未启动，无可落库的执行痕迹
			return nil, err
		}
		record.Status = entity.GenerationStatusFailed
		record.ErrorMessage = err.Error()
	}

	s.persist(ctx, record)
	s.observe(record)

	if err != nil {
		return record, err
	}
	return record, nil
}

// applyDefaults 补全请求缺省值
func (s *Service) applyDefaults(req *entity.GenerationRequest) {
	if req.CreditCost <= 0 {
		req.CreditCost = s.cfg.CostFor(string(req.Mode))
	}
	if req.Count <= 0 {
		switch req.Mode {
		case entity.ModeTitles:
			req.Count = defaultTitleCount
		case entity.ModeImage:
			req.Count = s.cfg.ImageCount
		}
	}
	if req.Mode == entity.ModeImage && req.AspectRatio == "" {
		req.AspectRatio = "1:1"
	}
}

// persist 落库并回填缓存，失败只记日志不影响已生成的内容
func (s *Service) persist(ctx context.Context, record *entity.GenerationRecord) {
	if err := s.records.Create(ctx, record); err != nil {
		logger.Error(ctx, "failed to persist generation record", err,
			"record_id", record.ID,
		)
		return
	}
	if s.cache != nil && record.Status != entity.GenerationStatusFailed {
		if err := s.cache.Set(ctx, record.ID, record); err != nil {
			logger.Warn(ctx, "failed to cache generation record",
				"record_id", record.ID,
				"error", err,
			)
		}
	}
}

func (s *Service) observe(record *entity.GenerationRecord) {
	mode := string(record.Mode)
	metrics.GenerationTotal.WithLabelValues(mode, string(record.Status)).Inc()
	metrics.GenerationDuration.WithLabelValues(mode).Observe(float64(record.DurationMs) / 1000)
	metrics.GenerationArtifacts.WithLabelValues(mode).Observe(float64(len(record.Artifacts)))
}

// joinUnitErrors 把扇出单元错误压成单条可读信息
func joinUnitErrors(unitErrors map[int]string) string {
	if len(unitErrors) == 0 {
		return ""
	}
	indexes := make([]int, 0, len(unitErrors))
	for i := range unitErrors {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	parts := make([]string, 0, len(indexes))
	for _, i := range indexes {
		parts = append(parts, fmt.Sprintf("unit %d: %s", i, unitErrors[i]))
	}
	return strings.Join(parts, "; ")
}
