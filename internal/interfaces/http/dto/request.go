package dto

import (
	"copysmith-ai-api/internal/domain/repository"
)

// PageQuery 分页查询参数
type PageQuery struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20"`
}

// ToPagination 转换为仓储分页参数
func (q PageQuery) ToPagination() repository.Pagination {
	return repository.Pagination{
		Page:     q.Page,
		PageSize: q.PageSize,
	}
}
