// Package credit 实现积分门控：生成前校验余额，全部成功后扣减
package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/domain/repository"
	apperrors "copysmith-ai-api/pkg/errors"
	"copysmith-ai-api/pkg/logger"
	"copysmith-ai-api/pkg/metrics"
)

// Gate 积分门控
type Gate struct {
	ledger     repository.CreditLedger
	transactor repository.Transactor
}

// NewGate 创建积分门控
func NewGate(ledger repository.CreditLedger, transactor repository.Transactor) *Gate {
	return &Gate{
		ledger:     ledger,
		transactor: transactor,
	}
}

// WithCredits 包裹一次生成调用：
//  1. 读取余额，不足则直接拒绝，fn 不会被调用
//  2. 执行 fn，失败时余额保持不变
//  3. fn 成功后在事务内扣减余额并写入流水
//
// 扣减或流水写入失败时返回 ErrLedgerWriteFailed，调用方
// 仍应将 fn 的结果返回给用户。
func (g *Gate) WithCredits(ctx context.Context, userID string, cost int64, mode entity.GenerationMode, recordID string, fn func(ctx context.Context) error) error {
	balance, err := g.ledger.GetBalance(ctx, userID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to read credit balance")
	}

	if balance < cost {
		logger.Info(ctx, "generation rejected: insufficient credits",
			"user_id", userID,
			"balance", balance,
			"cost", cost,
		)
		return apperrors.ErrInsufficientCredits.WithDetail(
			fmt.Sprintf("balance %d is less than required cost %d", balance, cost))
	}

	if err := fn(ctx); err != nil {
		return err
	}

	if err := g.deduct(ctx, userID, balance, cost, mode, recordID); err != nil {
		metrics.CreditDeductTotal.WithLabelValues("failed").Inc()
		logger.Error(ctx, "credit deduction failed after successful generation", err,
			"user_id", userID,
			"cost", cost,
		)
		return apperrors.ErrLedgerWriteFailed.WithError(err)
	}

	metrics.CreditDeductTotal.WithLabelValues("success").Inc()
	metrics.CreditsSpent.WithLabelValues(string(mode)).Add(float64(cost))
	return nil
}

// deduct 在单个事务内更新余额并追加流水
func (g *Gate) deduct(ctx context.Context, userID string, balance, cost int64, mode entity.GenerationMode, recordID string) error {
	return g.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		newBalance := balance - cost
		if err := g.ledger.SetBalance(txCtx, userID, newBalance); err != nil {
			return err
		}
		return g.ledger.AddTransaction(txCtx, &entity.CreditTransaction{
			ID:           uuid.NewString(),
			UserID:       userID,
			Amount:       -cost,
			BalanceAfter: newBalance,
			Reason:       entity.CreditReasonGeneration,
			RecordID:     recordID,
			CreatedAt:    time.Now(),
		})
	})
}

// Balance 查询当前余额
func (g *Gate) Balance(ctx context.Context, userID string) (int64, error) {
	balance, err := g.ledger.GetBalance(ctx, userID)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to read credit balance")
	}
	return balance, nil
}

// Transactions 分页查询积分流水
func (g *Gate) Transactions(ctx context.Context, userID string, page repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	result, err := g.ledger.ListTransactions(ctx, userID, page)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list credit transactions")
	}
	return result, nil
}

// Grant 管理员发放积分
func (g *Gate) Grant(ctx context.Context, userID string, amount int64) error {
	if amount <= 0 {
		return apperrors.ErrInvalidParam.WithDetail("grant amount must be positive")
	}
	return g.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		balance, err := g.ledger.GetBalance(txCtx, userID)
		if err != nil {
			return err
		}
		newBalance := balance + amount
		if err := g.ledger.SetBalance(txCtx, userID, newBalance); err != nil {
			return err
		}
		return g.ledger.AddTransaction(txCtx, &entity.CreditTransaction{
			ID:           uuid.NewString(),
			UserID:       userID,
			Amount:       amount,
			BalanceAfter: newBalance,
			Reason:       entity.CreditReasonGrant,
			CreatedAt:    time.Now(),
		})
	})
}
