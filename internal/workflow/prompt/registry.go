// Package prompt 提供提示词模板注册与装配
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// TemplateID 模板标识
type TemplateID string

const (
	TemplateCurationV1  TemplateID = "curation_v1"
	TemplateShortFormV1 TemplateID = "short_form_v1"
	TemplateLongFormV1  TemplateID = "long_form_v1"
	TemplateOutlineV1   TemplateID = "outline_v1"
	TemplateTitlesV1    TemplateID = "titles_v1"
	TemplateImageV1     TemplateID = "image_v1"
)

// ArtifactDelimiter 多产物输出的分隔哨兵。
// 装配进提示词并由响应解析器依赖，双方必须使用同一字面量。
const ArtifactDelimiter = "-----ARTIFACT-----"

// ReasoningOpenTag / ReasoningCloseTag 模型内部推理片段的定界标签，
// 解析前整段剔除。
const (
	ReasoningOpenTag  = "<think>"
	ReasoningCloseTag = "</think>"
)

// Registry 模板注册表，首次使用时从内嵌文件加载并缓存
type Registry struct {
	mu    sync.RWMutex
	cache map[TemplateID]string
}

// NewRegistry 创建模板注册表
func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[TemplateID]string),
	}
}

// Template 获取模板原文
func (r *Registry) Template(id TemplateID) (string, error) {
	if r == nil {
		return "", fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	path, err := resolveTemplateFile(id)
	if err != nil {
		return "", err
	}
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", id, err)
	}
	tpl := strings.TrimSpace(string(b))
	r.cache[id] = tpl
	return tpl, nil
}

func resolveTemplateFile(id TemplateID) (string, error) {
	switch id {
	case TemplateCurationV1, TemplateShortFormV1, TemplateLongFormV1,
		TemplateOutlineV1, TemplateTitlesV1, TemplateImageV1:
		return fmt.Sprintf("templates/%s.txt", id), nil
	default:
		return "", fmt.Errorf("unknown template id: %s", id)
	}
}
