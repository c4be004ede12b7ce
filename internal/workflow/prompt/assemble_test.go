package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copysmith-ai-api/internal/application/retrieval"
	"copysmith-ai-api/internal/domain/entity"
	apperrors "copysmith-ai-api/pkg/errors"
)

func newTestAssembler() *Assembler {
	return NewAssembler(NewRegistry())
}

func TestAssembleSubstitutesVariables(t *testing.T) {
	a := newTestAssembler()

	out, err := a.Assemble(TemplateShortFormV1, map[string]string{
		"topic":    "pricing psychology",
		"audience": "saas founders",
	}, nil)

	require.NoError(t, err)
	assert.Contains(t, out, "pricing psychology")
	assert.Contains(t, out, "saas founders")
	assert.NotContains(t, out, "{topic}")
	assert.NotContains(t, out, "{audience}")
}

func TestAssembleEmbedsDelimiter(t *testing.T) {
	a := newTestAssembler()

	out, err := a.Assemble(TemplateShortFormV1, map[string]string{"topic": "x"}, nil)

	require.NoError(t, err)
	assert.Contains(t, out, ArtifactDelimiter,
		"assembled prompt must carry the separator the parser depends on")
}

func TestAssembleMissingRequiredVariable(t *testing.T) {
	a := newTestAssembler()

	_, err := a.Assemble(TemplateShortFormV1, map[string]string{}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeMissingTemplateVariable))

	// 空白值等同缺失
	_, err = a.Assemble(TemplateShortFormV1, map[string]string{"topic": "   "}, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeMissingTemplateVariable))

	// titles 模板额外要求 count
	_, err = a.Assemble(TemplateTitlesV1, map[string]string{"topic": "x"}, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeMissingTemplateVariable))
}

func TestAssembleOmitsUnresolvedOptionalPlaceholders(t *testing.T) {
	a := newTestAssembler()

	out, err := a.Assemble(TemplateShortFormV1, map[string]string{"topic": "x"}, nil)

	require.NoError(t, err)
	assert.NotContains(t, out, "{audience}")
	assert.NotContains(t, out, "{intent}")
	assert.NotContains(t, out, "{word_count}")
}

func TestAssembleRendersExamples(t *testing.T) {
	a := newTestAssembler()
	examples := []retrieval.Result{
		{Example: entity.CorpusExample{Text: "example alpha"}},
		{Example: entity.CorpusExample{Text: "example beta"}},
	}

	out, err := a.Assemble(TemplateShortFormV1, map[string]string{"topic": "x"}, examples)

	require.NoError(t, err)
	assert.Contains(t, out, "example alpha")
	assert.Contains(t, out, "example beta")

	// 无示例时渲染占位说明而非留空
	out, err = a.Assemble(TemplateShortFormV1, map[string]string{"topic": "x"}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "(no reference examples available)")
}

func TestRegistryUnknownTemplate(t *testing.T) {
	r := NewRegistry()

	_, err := r.Template(TemplateID("no_such_template"))
	assert.Error(t, err)
}

func TestRegistryLoadsAllTemplates(t *testing.T) {
	r := NewRegistry()
	ids := []TemplateID{
		TemplateCurationV1, TemplateShortFormV1, TemplateLongFormV1,
		TemplateOutlineV1, TemplateTitlesV1, TemplateImageV1,
	}
	for _, id := range ids {
		tpl, err := r.Template(id)
		require.NoError(t, err, "template %s", id)
		assert.NotEmpty(t, tpl)
	}
}
