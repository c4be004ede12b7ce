// Package retrieval 提供基于词汇重叠的示例召回
package retrieval

import "copysmith-ai-api/internal/domain/entity"

// Result 单条召回结果
type Result struct {
	Example    entity.CorpusExample `json:"example"`
	Similarity float64              `json:"similarity"`
}
