// Package repository 定义领域仓储接口
package repository

import "context"

// TxKey 事务在 context 中的键
type TxKey struct{}

// Transactor 事务管理接口
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pagination 分页参数
type Pagination struct {
	Page     int
	PageSize int
}

// Offset 计算偏移量
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Limit 返回每页大小，带默认与上限
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return 20
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// PagedResult 分页结果
type PagedResult[T any] struct {
	Items []T
	Total int64
}
