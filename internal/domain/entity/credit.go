package entity

import "time"

// CreditAccount 用户积分账户
type CreditAccount struct {
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreditTransactionReason 积分流水原因
type CreditTransactionReason string

const (
	CreditReasonGeneration CreditTransactionReason = "generation"
	CreditReasonGrant      CreditTransactionReason = "grant"
)

// CreditTransaction 积分流水。仅在扣费成功提交时写入，
// 金额为负数表示扣减。
type CreditTransaction struct {
	ID           string                  `json:"id" gorm:"primaryKey"`
	UserID       string                  `json:"user_id" gorm:"index"`
	Amount       int64                   `json:"amount"`
	BalanceAfter int64                   `json:"balance_after"`
	Reason       CreditTransactionReason `json:"reason"`
	RecordID     string                  `json:"record_id,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}
