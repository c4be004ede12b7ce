package llm

import (
	"context"
	stderrors "errors"
	"strings"

	"copysmith-ai-api/pkg/errors"
)

// normalizeProviderError 将各家后端异构的错误形态收敛为固定分类。
// 上层据此决定是否在阶段内重试。
func normalizeProviderError(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsAppError(err) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.ErrProviderTimeout.WithError(err)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "429"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "quota"):
		return errors.ErrProviderRateLimited.WithError(err)
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline"):
		return errors.ErrProviderTimeout.WithError(err)
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "502"),
		strings.Contains(msg, "unavailable"):
		return errors.ErrProviderUnavailable.WithError(err)
	default:
		return errors.ErrProviderInvalidResponse.WithError(err)
	}
}
