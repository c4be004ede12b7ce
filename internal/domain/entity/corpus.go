// Package entity 定义领域实体
package entity

// CorpusExample 参考示例语料条目。
// 进程启动时一次性加载，生命周期内只读，可被并发读取。
type CorpusExample struct {
	Text            string  `json:"text"`
	PopularityScore float64 `json:"popularity_score,omitempty"`
}
