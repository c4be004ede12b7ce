package retrieval

import (
	"sort"

	"copysmith-ai-api/internal/domain/entity"
)

// Retriever 对只读语料做 top-K 召回。
// 语料在构造时注入并预先分词，之后可被并发读取。
type Retriever struct {
	corpus []entity.CorpusExample
	tokens []map[string]struct{}
}

// NewRetriever 创建召回器，一次性预计算每条语料的词项集合
func NewRetriever(corpus []entity.CorpusExample) *Retriever {
	tokens := make([]map[string]struct{}, len(corpus))
	for i, ex := range corpus {
		tokens[i] = tokenSet(ex.Text)
	}
	return &Retriever{
		corpus: corpus,
		tokens: tokens,
	}
}

// Size 返回语料条数
func (r *Retriever) Size() int {
	return len(r.corpus)
}

// Retrieve 返回与主题最相似的前 k 条语料。
// 按相似度降序排列，相同分值保持语料原始顺序；
// 空语料返回空结果，永不报错。
func (r *Retriever) Retrieve(topic string, k int) []Result {
	if k <= 0 || len(r.corpus) == 0 {
		return nil
	}

	query := tokenSet(topic)
	results := make([]Result, len(r.corpus))
	for i := range r.corpus {
		results[i] = Result{
			Example:    r.corpus[i],
			Similarity: jaccard(query, r.tokens[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}
