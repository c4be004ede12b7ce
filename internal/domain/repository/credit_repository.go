package repository

import (
	"context"

	"copysmith-ai-api/internal/domain/entity"
)

// CreditLedger 积分账本访问接口。
// 余额读写只能经由积分闸门（credit.Gate）调用，
// 流水线的其余组件不得直接触碰余额。
type CreditLedger interface {
	// GetBalance 读取用户余额；账户不存在时返回 0
	GetBalance(ctx context.Context, userID string) (int64, error)
	// SetBalance 覆盖写用户余额
	SetBalance(ctx context.Context, userID string, balance int64) error
	// AddTransaction 追加一条积分流水
	AddTransaction(ctx context.Context, tx *entity.CreditTransaction) error
	// ListTransactions 按时间倒序列出用户流水
	ListTransactions(ctx context.Context, userID string, p Pagination) (*PagedResult[*entity.CreditTransaction], error)
}
