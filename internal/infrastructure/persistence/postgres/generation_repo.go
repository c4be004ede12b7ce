package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/domain/repository"
)

// GenerationRepository 生成记录仓储实现
type GenerationRepository struct {
	client *Client
}

var _ repository.GenerationRepository = (*GenerationRepository)(nil)

// NewGenerationRepository 创建生成记录仓储
func NewGenerationRepository(client *Client) *GenerationRepository {
	return &GenerationRepository{client: client}
}

// Create 写入生成记录
func (r *GenerationRepository) Create(ctx context.Context, record *entity.GenerationRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create generation record: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取生成记录
func (r *GenerationRepository) GetByID(ctx context.Context, id string) (*entity.GenerationRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var record entity.GenerationRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get generation record: %w", err)
	}
	return &record, nil
}

// ListByUser 分页列出用户的生成历史
func (r *GenerationRepository) ListByUser(ctx context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.GenerationRecord], error) {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var total int64
	if err := db.Model(&entity.GenerationRecord{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count generation records: %w", err)
	}

	var items []*entity.GenerationRecord
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.Limit()).
		Find(&items).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list generation records: %w", err)
	}

	return &repository.PagedResult[*entity.GenerationRecord]{Items: items, Total: total}, nil
}
