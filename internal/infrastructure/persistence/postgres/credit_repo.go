package postgres

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/domain/repository"
)

// CreditRepository 积分账本仓储实现
type CreditRepository struct {
	client *Client
}

var _ repository.CreditLedger = (*CreditRepository)(nil)

// NewCreditRepository 创建积分账本仓储
func NewCreditRepository(client *Client) *CreditRepository {
	return &CreditRepository{client: client}
}

// GetBalance 读取用户余额；账户不存在视为 0
func (r *CreditRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.CreditRepository.GetBalance")
	span.SetAttributes(attribute.String("user_id", userID))
	defer span.End()

	db := getDB(ctx, r.client.db)
	var account entity.CreditAccount
	if err := db.First(&account, "user_id = ?", userID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get credit balance: %w", err)
	}
	return account.Balance, nil
}

// SetBalance 覆盖写用户余额
func (r *CreditRepository) SetBalance(ctx context.Context, userID string, balance int64) error {
	ctx, span := tracer.Start(ctx, "postgres.CreditRepository.SetBalance")
	span.SetAttributes(attribute.String("user_id", userID))
	defer span.End()

	db := getDB(ctx, r.client.db)
	account := entity.CreditAccount{
		UserID:    userID,
		Balance:   balance,
		UpdatedAt: time.Now().UTC(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&account).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set credit balance: %w", err)
	}
	return nil
}

// AddTransaction 追加一条积分流水
func (r *CreditRepository) AddTransaction(ctx context.Context, tx *entity.CreditTransaction) error {
	ctx, span := tracer.Start(ctx, "postgres.CreditRepository.AddTransaction")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(tx).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to add credit transaction: %w", err)
	}
	return nil
}

// ListTransactions 按时间倒序列出用户流水
func (r *CreditRepository) ListTransactions(ctx context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	ctx, span := tracer.Start(ctx, "postgres.CreditRepository.ListTransactions")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var total int64
	if err := db.Model(&entity.CreditTransaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count credit transactions: %w", err)
	}

	var items []*entity.CreditTransaction
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.Limit()).
		Find(&items).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}

	return &repository.PagedResult[*entity.CreditTransaction]{Items: items, Total: total}, nil
}
