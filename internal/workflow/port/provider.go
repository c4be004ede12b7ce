// Package port 定义工作流层对生成后端的最小依赖
package port

import (
	"context"
	"time"
)

// Params 单次调用参数
type Params struct {
	// Provider 选择后端提供商，为空时使用配置的默认提供商
	Provider string
	// Model 覆盖后端默认模型，为空时使用配置值
	Model string
	// Temperature 采样温度，nil 表示使用后端默认值
	Temperature *float32
	// MaxTokens 最大输出长度，nil 表示不限制
	MaxTokens *int
	// Timeout 本次调用的硬性墙钟超时，0 表示沿用上游 context
	Timeout time.Duration
}

// TextChunk 流式输出的单个增量片段
type TextChunk struct {
	Content string
	Index   int
}

// Usage 一次调用的 token 用量
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Completion 单次补全结果
type Completion struct {
	Content string
	Usage   Usage
}

// Provider 文本生成后端的统一抽象。
// 编排器只依赖本接口，绝不引用具体厂商类型。
//
// Stream 约定：chunks 按后端顺序投递在有界通道上，正常结束时关闭；
// 异常结束通过 errs 旁路通道投递恰好一个错误后二者关闭，
// 消费方始终能够区分“完成”与“失败”。
type Provider interface {
	Complete(ctx context.Context, prompt string, p Params) (*Completion, error)
	Stream(ctx context.Context, prompt string, p Params) (<-chan TextChunk, <-chan error, error)
}

// ImageParams 图像生成参数
type ImageParams struct {
	AspectRatio string
	Timeout     time.Duration
}

// ImageProvider 图像生成后端的统一抽象。
// 返回值为可直接交付给调用方的图像引用（URL 或 data URI）。
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string, p ImageParams) (string, error)
}
