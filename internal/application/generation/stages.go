package generation

import (
	"strconv"

	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/workflow/prompt"
)

// stageDef 流水线阶段的静态定义。
// 各模式的阶段构成线性链，不存在分支与回环。
type stageDef struct {
	name     string
	template prompt.TemplateID
	kind     entity.ArtifactKind
	// curation 为 true 时阶段输出作为下一阶段的参考示例，
	// 而非终端产物
	curation bool
}

// stagePlans 各文本模式的阶段链。image 模式走扇出路径，不在此表内。
var stagePlans = map[entity.GenerationMode][]stageDef{
	entity.ModeShortForm: {
		{name: "curation", template: prompt.TemplateCurationV1, curation: true},
		{name: "generation", template: prompt.TemplateShortFormV1, kind: entity.KindShortNote},
	},
	entity.ModeLongForm: {
		{name: "generation", template: prompt.TemplateLongFormV1, kind: entity.KindLongFormNote},
	},
	entity.ModeOutline: {
		{name: "generation", template: prompt.TemplateOutlineV1, kind: entity.KindOutline},
	},
	entity.ModeTitles: {
		{name: "generation", template: prompt.TemplateTitlesV1, kind: entity.KindTitle},
	},
}

func planFor(mode entity.GenerationMode) ([]stageDef, bool) {
	plan, ok := stagePlans[mode]
	return plan, ok
}

// templateVars 从请求构造模板变量，仅携带调用方实际提供的可选项
func templateVars(req *entity.GenerationRequest) map[string]string {
	vars := map[string]string{
		"topic": req.Topic,
	}
	if req.Audience != "" {
		vars["audience"] = req.Audience
	}
	if req.Intent != "" {
		vars["intent"] = req.Intent
	}
	if req.KeyPoints != "" {
		vars["key_points"] = req.KeyPoints
	}
	if req.WordCount > 0 {
		vars["word_count"] = strconv.Itoa(req.WordCount)
	}
	if req.Count > 0 {
		vars["count"] = strconv.Itoa(req.Count)
	}
	if req.AspectRatio != "" {
		vars["aspect_ratio"] = req.AspectRatio
	}
	return vars
}
