package generation

import (
	"regexp"
	"strings"

	"copysmith-ai-api/internal/workflow/prompt"
)

// transform 作用于模型原始输出的纯文本变换
type transform func(string) string

var (
	reasoningRe = regexp.MustCompile(`(?s)` +
		regexp.QuoteMeta(prompt.ReasoningOpenTag) + `.*?` + regexp.QuoteMeta(prompt.ReasoningCloseTag))
	// 未闭合的推理标签视为推理一直持续到文本结尾
	danglingReasoningRe = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(prompt.ReasoningOpenTag) + `.*$`)
	leadingNumberingRe  = regexp.MustCompile(`^\s*\d+\s*[.)、:：]\s*`)
)

// preSplitTransforms 分隔符切分之前按序应用的归一化规则
var preSplitTransforms = []transform{
	stripReasoning,
	strings.TrimSpace,
}

// sanitize 对原始输出做一次完整的归一化
func sanitize(raw string) string {
	out := raw
	for _, t := range preSplitTransforms {
		out = t(out)
	}
	return out
}

// stripReasoning 整段剔除模型内部推理片段
func stripReasoning(s string) string {
	s = reasoningRe.ReplaceAllString(s, "")
	return danglingReasoningRe.ReplaceAllString(s, "")
}

// stripLeadingNumbering 去除段首的序号前缀（"1. " / "2) " 等）
func stripLeadingNumbering(s string) string {
	return leadingNumberingRe.ReplaceAllString(s, "")
}
