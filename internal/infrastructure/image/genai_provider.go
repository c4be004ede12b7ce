// Package image 提供基于 Google GenAI 的图像生成后端适配
package image

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"copysmith-ai-api/internal/config"
	"copysmith-ai-api/internal/workflow/port"
	"copysmith-ai-api/pkg/errors"
	"copysmith-ai-api/pkg/metrics"
)

// GenAIProvider 将 genai 图像模型适配为 port.ImageProvider
type GenAIProvider struct {
	client *genai.Client
	model  string
}

var _ port.ImageProvider = (*GenAIProvider)(nil)

// NewGenAIProvider 创建图像生成适配器
func NewGenAIProvider(ctx context.Context, cfg *config.ImageConfig) (*GenAIProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIProvider{
		client: client,
		model:  cfg.Model,
	}, nil
}

// GenerateImage 生成单张图像，返回 data URI
func (p *GenAIProvider) GenerateImage(ctx context.Context, prompt string, params port.ImageParams) (string, error) {
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	cfg := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	}
	if params.AspectRatio != "" {
		cfg.AspectRatio = params.AspectRatio
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateImages(ctx, p.model, prompt, cfg)
	metrics.LLMCallDuration.WithLabelValues("genai", p.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues("genai", p.model, "error").Inc()
		return "", normalizeImageError(err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil ||
		len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		metrics.LLMCallTotal.WithLabelValues("genai", p.model, "error").Inc()
		return "", errors.ErrProviderInvalidResponse.WithDetail("no image in response")
	}
	metrics.LLMCallTotal.WithLabelValues("genai", p.model, "success").Inc()

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.ImageBytes)), nil
}

// normalizeImageError 归一化图像后端错误
func normalizeImageError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.ErrProviderTimeout.WithError(err)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "quota"),
		strings.Contains(msg, "rate"):
		return errors.ErrProviderRateLimited.WithError(err)
	case strings.Contains(msg, "unavailable"), strings.Contains(msg, "503"):
		return errors.ErrProviderUnavailable.WithError(err)
	default:
		return errors.ErrProviderInvalidResponse.WithError(err)
	}
}
