package retrieval

import (
	"regexp"
	"strings"
)

var tokenSplitRe = regexp.MustCompile(`\W+`)

// tokenSet 将文本切分为小写词项集合。
// 以非单词字符为边界切分，丢弃空词项；集合语义，重复词不增加权重。
func tokenSet(s string) map[string]struct{} {
	parts := tokenSplitRe.Split(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

// jaccard 计算两个词项集合的 Jaccard 系数，取值 [0,1]。
// 两个空集合视为相似度 0。
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for t := range small {
		if _, ok := large[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Similarity 计算两段文本的 Jaccard 相似度。
// 对称且确定，不依赖任何外部调用。
func Similarity(a, b string) float64 {
	return jaccard(tokenSet(a), tokenSet(b))
}
