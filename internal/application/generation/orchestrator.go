// Package generation 实现多阶段内容生成流水线：
// 示例召回 → 提示词装配 → 提供商调用 → 响应解析。
package generation

import (
	"context"
	"fmt"
	"time"

	"copysmith-ai-api/internal/application/retrieval"
	"copysmith-ai-api/internal/config"
	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/workflow/port"
	"copysmith-ai-api/internal/workflow/prompt"
	apperrors "copysmith-ai-api/pkg/errors"
	"copysmith-ai-api/pkg/logger"
	"copysmith-ai-api/pkg/metrics"
)

const (
	// maxStageAttempts 文本阶段的最大尝试次数，仅瞬态错误参与重试
	maxStageAttempts = 2
	retryBackoff     = 500 * time.Millisecond
)

// Result 一次流水线执行的产出
type Result struct {
	Artifacts []entity.Artifact
	Status    entity.GenerationStatus
	Usage     port.Usage
	// UnitErrors 扇出场景下各失败单元的错误描述，按单元序号记录
	UnitErrors map[int]string
}

// Orchestrator 阶段编排器。
// 对文本模式执行静态定义的线性阶段链，对 image 模式做独立扇出；
// 阶段 N+1 一定在阶段 N 的完整输出可用之后才开始。
type Orchestrator struct {
	retriever *retrieval.Retriever
	assembler *prompt.Assembler
	parser    *Parser
	provider  port.Provider
	images    port.ImageProvider
	cfg       *config.PipelineConfig
}

// NewOrchestrator 创建编排器
func NewOrchestrator(
	retriever *retrieval.Retriever,
	assembler *prompt.Assembler,
	parser *Parser,
	provider port.Provider,
	images port.ImageProvider,
	cfg *config.PipelineConfig,
) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		assembler: assembler,
		parser:    parser,
		provider:  provider,
		images:    images,
		cfg:       cfg,
	}
}

// Run 执行一次流水线。emit 非空时沿途推送流式事件（emit 串行回调，
// 终止事件由上层 Service 负责发出）。
// 任一阶段的致命错误中止整条流水线，绝不把半成品伪装成结果返回。
func (o *Orchestrator) Run(ctx context.Context, req *entity.GenerationRequest, emit EmitFunc) (*Result, error) {
	if req.Mode == entity.ModeImage {
		return o.fanOutImages(ctx, req, emit)
	}
	return o.runChain(ctx, req, emit)
}

// runChain 执行文本模式的线性阶段链
func (o *Orchestrator) runChain(ctx context.Context, req *entity.GenerationRequest, emit EmitFunc) (*Result, error) {
	plan, ok := planFor(req.Mode)
	if !ok {
		return nil, apperrors.ErrInvalidMode.WithDetail(fmt.Sprintf("mode %q has no stage plan", req.Mode))
	}

	vars := templateVars(req)
	// 召回为空不致命，流水线在无参考示例的情况下继续
	examples := o.retriever.Retrieve(req.Topic, o.cfg.RetrievalTopK)
	if len(examples) == 0 {
		logger.Debug(ctx, "retrieval returned no examples, proceeding without references",
			"topic", req.Topic)
	}

	res := &Result{}
	for i, st := range plan {
		if emit != nil {
			emit(progressEvent(fmt.Sprintf("running stage %s (%d/%d)", st.name, i+1, len(plan))))
		}

		promptText, err := o.assembler.Assemble(st.template, vars, examples)
		if err != nil {
			return nil, err
		}

		params := port.Params{
			Provider: req.Provider,
			Model:    req.Model,
			Timeout:  o.cfg.StageTimeout,
		}

		terminal := i == len(plan)-1
		var content string
		var usage port.Usage
		if emit != nil && terminal && !st.curation {
			content, usage, err = o.streamStage(ctx, promptText, params, emit)
		} else {
			content, usage, err = o.completeStage(ctx, st.name, promptText, params)
		}
		if err != nil {
			return nil, err
		}
		res.Usage.PromptTokens += usage.PromptTokens
		res.Usage.CompletionTokens += usage.CompletionTokens

		artifacts, degraded := o.parser.Parse(content, prompt.ArtifactDelimiter, st.kind)
		if degraded {
			metrics.ParserFallbackTotal.WithLabelValues(string(req.Mode)).Inc()
			logger.Warn(ctx, "delimiter missing in provider output, sentence fallback used",
				"stage", st.name,
				"mode", req.Mode,
			)
		}

		if st.curation {
			examples = curatedExamples(artifacts)
			continue
		}
		res.Artifacts = artifacts
	}

	if len(res.Artifacts) == 0 {
		return nil, apperrors.ErrProviderInvalidResponse.WithDetail("provider returned no usable content")
	}
	res.Status = entity.GenerationStatusSucceeded
	return res, nil
}

// completeStage 单次文本阶段调用，瞬态错误带固定退避重试一次
func (o *Orchestrator) completeStage(ctx context.Context, stageName, promptText string, params port.Params) (string, port.Usage, error) {
	var lastErr error
	for attempt := 1; attempt <= maxStageAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", port.Usage{}, apperrors.ErrProviderTimeout.WithError(ctx.Err())
			case <-time.After(retryBackoff):
			}
			logger.Warn(ctx, "retrying stage after transient provider error",
				"stage", stageName,
				"attempt", attempt,
				"error", lastErr,
			)
		}

		out, err := o.provider.Complete(ctx, promptText, params)
		if err == nil {
			return out.Content, out.Usage, nil
		}
		lastErr = err
		if !apperrors.IsTransient(err) {
			return "", port.Usage{}, err
		}
	}
	return "", port.Usage{}, lastErr
}

// streamStage 终端文本阶段的流式调用：逐块转发增量并累积全文。
// 流中途失败与正常结束通过旁路错误通道严格区分。
func (o *Orchestrator) streamStage(ctx context.Context, promptText string, params port.Params, emit EmitFunc) (string, port.Usage, error) {
	chunks, errs, err := o.provider.Stream(ctx, promptText, params)
	if err != nil {
		return "", port.Usage{}, err
	}

	var sb []byte
	index := 0
	for chunk := range chunks {
		sb = append(sb, chunk.Content...)
		emit(deltaEvent(index, chunk.Content))
		index++
	}
	if streamErr := <-errs; streamErr != nil {
		return "", port.Usage{}, streamErr
	}
	// 流式路径的 token 用量由网关在指标中记录，此处不再可得
	return string(sb), port.Usage{}, nil
}

// curatedExamples 把策展阶段的产物转成下一阶段的参考示例
func curatedExamples(artifacts []entity.Artifact) []retrieval.Result {
	results := make([]retrieval.Result, 0, len(artifacts))
	for _, a := range artifacts {
		results = append(results, retrieval.Result{
			Example: entity.CorpusExample{Text: a.Content},
		})
	}
	return results
}
