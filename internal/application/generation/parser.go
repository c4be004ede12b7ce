package generation

import (
	"regexp"
	"strings"

	"copysmith-ai-api/internal/domain/entity"
)

var sentenceBoundaryRe = regexp.MustCompile(`([.!?。！？])\s+`)

// Parser 将模型原始输出解析为结构化产物。
// 解析永不报错：格式不符合约定时退化为句子切分的兜底结果。
type Parser struct{}

// NewParser 创建解析器
func NewParser() *Parser {
	return &Parser{}
}

// Parse 按约定分隔符切分原始输出。
// 先剔除推理片段，再按 delimiter 切分并修剪各段；
// 切分后一个有效段都不剩时走句子兜底，合成单个产物。
// 第二个返回值表示是否走了兜底路径。
func (p *Parser) Parse(raw, delimiter string, kind entity.ArtifactKind) ([]entity.Artifact, bool) {
	cleaned := sanitize(raw)

	var segments []string
	for _, seg := range strings.Split(cleaned, delimiter) {
		seg = strings.TrimSpace(stripLeadingNumbering(seg))
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	degraded := false
	if len(segments) == 0 {
		degraded = true
		// 兜底前剔除残留的分隔符，分隔符本身不是内容
		leftover := strings.ReplaceAll(cleaned, delimiter, "")
		if synthesized := sentenceFallback(leftover); synthesized != "" {
			segments = []string{synthesized}
		}
	}

	artifacts := make([]entity.Artifact, 0, len(segments))
	for i, seg := range segments {
		artifacts = append(artifacts, entity.Artifact{
			Kind:    kind,
			Content: seg,
			Index:   i,
		})
	}
	return artifacts, degraded
}

// sentenceFallback 按句子边界重排全文，合成单个产物内容
func sentenceFallback(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	broken := sentenceBoundaryRe.ReplaceAllString(s, "$1\n")
	var sentences []string
	for _, line := range strings.Split(broken, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			sentences = append(sentences, line)
		}
	}
	return strings.Join(sentences, "\n")
}
