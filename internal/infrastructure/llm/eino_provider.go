// Package llm 提供基于 Eino 的文本生成后端适配
package llm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"copysmith-ai-api/internal/config"
	"copysmith-ai-api/internal/workflow/port"
	"copysmith-ai-api/pkg/errors"
	"copysmith-ai-api/pkg/logger"
	"copysmith-ai-api/pkg/metrics"
)

// streamBuffer 流式转发通道的容量上限
const streamBuffer = 32

// EinoProvider 将 Eino ChatModel 适配为 port.Provider。
// 按 provider 名惰性创建并缓存底层客户端。
type EinoProvider struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

var _ port.Provider = (*EinoProvider)(nil)

// NewEinoProvider 创建文本生成适配器
func NewEinoProvider(cfg *config.Config) *EinoProvider {
	return &EinoProvider{
		config: &cfg.LLM,
		models: make(map[string]model.BaseChatModel),
	}
}

// get 获取指定 provider 的 ChatModel，name 为空时回落到默认 provider
func (p *EinoProvider) get(ctx context.Context, name string) (model.BaseChatModel, string, string, error) {
	if name == "" {
		name = p.config.DefaultProvider
	}
	if name == "" {
		return nil, "", "", fmt.Errorf("llm default provider not configured")
	}

	providerCfg, ok := p.config.Providers[name]
	if !ok {
		return nil, "", "", fmt.Errorf("provider %s not found in LLM config", name)
	}

	p.mu.RLock()
	m, ok := p.models[name]
	p.mu.RUnlock()
	if ok {
		return m, name, providerCfg.Model, nil
	}

	// 惰性加载
	p.mu.Lock()
	defer p.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = p.models[name]; ok {
		return m, name, providerCfg.Model, nil
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      providerCfg.APIKey,
		BaseURL:     providerCfg.BaseURL,
		Model:       providerCfg.Model,
		MaxTokens:   &providerCfg.MaxTokens,
		Temperature: ptrFloat32(float32(providerCfg.Temperature)),
		Timeout:     providerCfg.Timeout,
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	p.models[name] = chatModel
	return chatModel, name, providerCfg.Model, nil
}

// Complete 单次补全
func (p *EinoProvider) Complete(ctx context.Context, prompt string, params port.Params) (*port.Completion, error) {
	chatModel, providerName, modelName, err := p.get(ctx, params.Provider)
	if err != nil {
		return nil, errors.ErrProviderUnavailable.WithError(err)
	}
	if params.Model != "" {
		modelName = params.Model
	}

	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	start := time.Now()
	outMsg, err := chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, buildOptions(params)...)
	metrics.LLMCallDuration.WithLabelValues(providerName, modelName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(providerName, modelName, "error").Inc()
		return nil, normalizeProviderError(err)
	}
	if outMsg == nil || outMsg.Content == "" {
		metrics.LLMCallTotal.WithLabelValues(providerName, modelName, "error").Inc()
		return nil, errors.ErrProviderInvalidResponse.WithDetail("empty completion")
	}
	metrics.LLMCallTotal.WithLabelValues(providerName, modelName, "success").Inc()

	out := &port.Completion{Content: outMsg.Content}
	if outMsg.ResponseMeta != nil && outMsg.ResponseMeta.Usage != nil {
		out.Usage.PromptTokens = outMsg.ResponseMeta.Usage.PromptTokens
		out.Usage.CompletionTokens = outMsg.ResponseMeta.Usage.CompletionTokens
		recordTokenUsage(providerName, modelName, out.Usage)
	}
	return out, nil
}

// Stream 流式补全。
// 片段按后端顺序投递在有界通道上；正常结束关闭 chunks，
// 异常结束在 errs 上投递恰好一个归一化错误。
func (p *EinoProvider) Stream(ctx context.Context, prompt string, params port.Params) (<-chan port.TextChunk, <-chan error, error) {
	chatModel, providerName, modelName, err := p.get(ctx, params.Provider)
	if err != nil {
		return nil, nil, errors.ErrProviderUnavailable.WithError(err)
	}
	if params.Model != "" {
		modelName = params.Model
	}

	streamCtx := ctx
	var cancel context.CancelFunc = func() {}
	if params.Timeout > 0 {
		streamCtx, cancel = context.WithTimeout(ctx, params.Timeout)
	}

	sr, err := chatModel.Stream(streamCtx, []*schema.Message{schema.UserMessage(prompt)}, buildOptions(params)...)
	if err != nil {
		cancel()
		metrics.LLMCallTotal.WithLabelValues(providerName, modelName, "error").Inc()
		return nil, nil, normalizeProviderError(err)
	}

	chunks := make(chan port.TextChunk, streamBuffer)
	errs := make(chan error, 1)

	go func() {
		defer cancel()
		defer sr.Close()
		defer close(chunks)
		defer close(errs)

		start := time.Now()
		index := 0
		var usage port.Usage
		for {
			msg, recvErr := sr.Recv()
			if recvErr == io.EOF {
				break
			}
			if recvErr != nil {
				metrics.LLMCallTotal.WithLabelValues(providerName, modelName, "error").Inc()
				errs <- normalizeProviderError(recvErr)
				return
			}
			// 末尾可能出现 Content 为空但携带 Usage 的消息，用于 token 统计
			if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
				usage.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
				usage.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
			}
			if msg.Content == "" {
				continue
			}
			select {
			case chunks <- port.TextChunk{Content: msg.Content, Index: index}:
				index++
			case <-streamCtx.Done():
				errs <- normalizeProviderError(streamCtx.Err())
				return
			}
		}
		metrics.LLMCallDuration.WithLabelValues(providerName, modelName).Observe(time.Since(start).Seconds())
		metrics.LLMCallTotal.WithLabelValues(providerName, modelName, "success").Inc()
		recordTokenUsage(providerName, modelName, usage)
		logger.Debug(streamCtx, "llm stream finished", "chunks", index)
	}()

	return chunks, errs, nil
}

func recordTokenUsage(provider, model string, usage port.Usage) {
	if usage.PromptTokens > 0 {
		metrics.LLMTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		metrics.LLMTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(usage.CompletionTokens))
	}
}

func buildOptions(params port.Params) []model.Option {
	opts := make([]model.Option, 0, 3)
	if params.Temperature != nil {
		opts = append(opts, model.WithTemperature(*params.Temperature))
	}
	if params.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*params.MaxTokens))
	}
	if params.Model != "" {
		opts = append(opts, model.WithModel(params.Model))
	}
	return opts
}

func ptrFloat32(f float32) *float32 {
	return &f
}
