package dto

import (
	"copysmith-ai-api/internal/domain/entity"
)

// BalanceResponse 积分余额响应
type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// TransactionResponse 积分流水响应
type TransactionResponse struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
	Reason       string `json:"reason"`
	RecordID     string `json:"record_id,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// FromTransaction 从领域流水构造响应
func FromTransaction(tx *entity.CreditTransaction) *TransactionResponse {
	return &TransactionResponse{
		ID:           tx.ID,
		Amount:       tx.Amount,
		BalanceAfter: tx.BalanceAfter,
		Reason:       string(tx.Reason),
		RecordID:     tx.RecordID,
		CreatedAt:    tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// TransactionListResponse 积分流水列表
type TransactionListResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
}
