package generation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/workflow/port"
	"copysmith-ai-api/internal/workflow/prompt"
	apperrors "copysmith-ai-api/pkg/errors"
	"copysmith-ai-api/pkg/logger"
)

// maxConcurrentImages 扇出并发上限
const maxConcurrentImages = 3

// fanOutImages 对 image 模式做 N 路独立扇出。
// 各单元独立成败互不影响，完成顺序不保证，序号字段供调用方重排；
// 只要有任意单元成功整体即不失败，全部失败才向上抛错。
func (o *Orchestrator) fanOutImages(ctx context.Context, req *entity.GenerationRequest, emit EmitFunc) (*Result, error) {
	count := req.Count
	if count <= 0 {
		count = o.cfg.ImageCount
	}

	promptText, err := o.assembler.Assemble(prompt.TemplateImageV1, templateVars(req), nil)
	if err != nil {
		return nil, err
	}

	if emit != nil {
		emit(progressEvent(fmt.Sprintf("generating %d images", count)))
	}

	urls := make([]string, count)
	unitErrs := make([]error, count)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentImages)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			url, unitErr := o.generateImageWithRetry(ctx, promptText, req)

			mu.Lock()
			defer mu.Unlock()
			if unitErr != nil {
				unitErrs[i] = unitErr
				logger.Warn(ctx, "image unit failed after retries",
					"index", i,
					"error", unitErr,
				)
				if emit != nil {
					emit(errorEvent(i, apperrors.AsAppError(unitErr).Message))
				}
				return nil
			}
			urls[i] = url
			if emit != nil {
				emit(artifactEvent(entity.Artifact{
					Kind:    entity.KindImageURL,
					Content: url,
					Index:   i,
				}))
			}
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{UnitErrors: make(map[int]string)}
	var firstErr error
	for i := 0; i < count; i++ {
		if unitErrs[i] != nil {
			if firstErr == nil {
				firstErr = unitErrs[i]
			}
			res.UnitErrors[i] = unitErrs[i].Error()
			continue
		}
		res.Artifacts = append(res.Artifacts, entity.Artifact{
			Kind:    entity.KindImageURL,
			Content: urls[i],
			Index:   i,
		})
	}

	if len(res.Artifacts) == 0 {
		return nil, firstErr
	}
	if len(res.UnitErrors) > 0 {
		res.Status = entity.GenerationStatusPartial
	} else {
		res.Status = entity.GenerationStatusSucceeded
	}
	return res, nil
}

// generateImageWithRetry 生成单张图像，瞬态错误最多重试 ImageRetries 次
func (o *Orchestrator) generateImageWithRetry(ctx context.Context, promptText string, req *entity.GenerationRequest) (string, error) {
	params := port.ImageParams{
		AspectRatio: req.AspectRatio,
		Timeout:     o.cfg.StageTimeout,
	}

	attempts := 1 + o.cfg.ImageRetries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", apperrors.ErrProviderTimeout.WithError(ctx.Err())
			case <-time.After(retryBackoff):
			}
		}

		url, err := o.images.GenerateImage(ctx, promptText, params)
		if err == nil {
			return url, nil
		}
		lastErr = err
		if !apperrors.IsTransient(err) {
			return "", err
		}
	}
	return "", lastErr
}
