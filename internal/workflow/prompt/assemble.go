package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"copysmith-ai-api/internal/application/retrieval"
	"copysmith-ai-api/pkg/errors"
)

// requiredVars 各模板的必填变量。缺失时装配立即失败，
// 不会带着残缺提示词发起任何网络调用。
var requiredVars = map[TemplateID][]string{
	TemplateCurationV1:  {"topic"},
	TemplateShortFormV1: {"topic"},
	TemplateLongFormV1:  {"topic"},
	TemplateOutlineV1:   {"topic"},
	TemplateTitlesV1:    {"topic", "count"},
	TemplateImageV1:     {"topic"},
}

var placeholderRe = regexp.MustCompile(`\{[a-z_]+\}`)
var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// Assembler 提示词装配器
type Assembler struct {
	registry *Registry
}

// NewAssembler 创建装配器
func NewAssembler(registry *Registry) *Assembler {
	return &Assembler{registry: registry}
}

// Assemble 渲染模板：替换变量、注入召回示例与分隔哨兵。
// 必填变量缺失返回 MissingTemplateVariable；
// 未解析的可选占位符被整体移除而非原样输出。
func (a *Assembler) Assemble(id TemplateID, vars map[string]string, examples []retrieval.Result) (string, error) {
	tpl, err := a.registry.Template(id)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "failed to load prompt template")
	}

	for _, name := range requiredVars[id] {
		if strings.TrimSpace(vars[name]) == "" {
			return "", errors.ErrMissingTemplateVariable.WithDetail(
				fmt.Sprintf("template %s requires variable %q", id, name))
		}
	}

	out := tpl
	out = strings.ReplaceAll(out, "{delimiter}", ArtifactDelimiter)
	out = strings.ReplaceAll(out, "{examples}", renderExamples(examples))
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", strings.TrimSpace(value))
	}

	// 剩余占位符均为未提供的可选变量，直接移除
	out = placeholderRe.ReplaceAllString(out, "")
	out = blankLinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out), nil
}

// renderExamples 拼装召回示例块；无示例时返回占位说明
func renderExamples(examples []retrieval.Result) string {
	if len(examples) == 0 {
		return "(no reference examples available)"
	}
	var sb strings.Builder
	for i, ex := range examples {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		sb.WriteString(strings.TrimSpace(ex.Example.Text))
	}
	return sb.String()
}
