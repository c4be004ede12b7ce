package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"copysmith-ai-api/internal/application/generation"
	"copysmith-ai-api/pkg/metrics"
)

// streamBuffer 事件通道容量，生产方在消费方断开前不被阻塞太久
const streamBuffer = 64

// StreamHandler 流式生成处理器
type StreamHandler struct {
	generations *GenerationHandler
	svc         *generation.Service
}

// NewStreamHandler 创建流式生成处理器
func NewStreamHandler(generations *GenerationHandler, svc *generation.Service) *StreamHandler {
	return &StreamHandler{
		generations: generations,
		svc:         svc,
	}
}

// Generate 流式执行一次生成
// @Summary 流式生成内容
// @Description 通过 SSE 推送生成进度与产物，done 事件总在最后
// @Tags Generations
// @Accept json
// @Produce text/event-stream
// @Param request body dto.GenerationRequest true "生成请求"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/generations/stream [post]
func (h *StreamHandler) Generate(c *gin.Context) {
	req, ok := h.generations.bindRequest(c)
	if !ok {
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	events := make(chan generation.Event, streamBuffer)
	go func() {
		defer close(events)
		h.svc.GenerateStream(c.Request.Context(), req, func(e generation.Event) {
			select {
			case events <- e:
			case <-c.Request.Context().Done():
			}
		})
	}()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, open := <-events:
			if !open {
				return false
			}
			metrics.StreamEventsTotal.WithLabelValues(string(e.Type)).Inc()
			c.SSEvent(string(e.Type), e)
			// done 之后不再写任何事件
			return e.Type != generation.EventDone

		case <-c.Request.Context().Done():
			// 客户端断开，放弃在途生成
			return false
		}
	})
}
