package repository

import (
	"context"

	"copysmith-ai-api/internal/domain/entity"
)

// GenerationRepository 生成记录仓储接口
type GenerationRepository interface {
	Create(ctx context.Context, record *entity.GenerationRecord) error
	GetByID(ctx context.Context, id string) (*entity.GenerationRecord, error)
	ListByUser(ctx context.Context, userID string, p Pagination) (*PagedResult[*entity.GenerationRecord], error)
}
