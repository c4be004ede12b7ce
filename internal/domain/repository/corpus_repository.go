package repository

import (
	"context"

	"copysmith-ai-api/internal/domain/entity"
)

// CorpusStore 参考示例语料存储。
// 进程启动时读取一次，之后语料保持不可变。
type CorpusStore interface {
	LoadExamples(ctx context.Context) ([]entity.CorpusExample, error)
}
