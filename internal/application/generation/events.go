package generation

import (
	"copysmith-ai-api/internal/domain/entity"
)

// EventType 流式事件类型
type EventType string

const (
	// EventProgress 信息性进度事件，可出现任意次
	EventProgress EventType = "progress"
	// EventSuccess 单个完成单元：文本增量或一个完整产物，携带序号
	EventSuccess EventType = "success"
	// EventError 单个失败单元，扇出场景下不终止整个流
	EventError EventType = "error"
	// EventDone 终止事件，每条流恰好一个且总在最后
	EventDone EventType = "done"
)

// Event 推送给调用方的单个流式事件
type Event struct {
	Type     EventType               `json:"type"`
	Message  string                  `json:"message,omitempty"`
	Index    int                     `json:"index"`
	Delta    string                  `json:"delta,omitempty"`
	Artifact *entity.Artifact        `json:"artifact,omitempty"`
	Status   entity.GenerationStatus `json:"status,omitempty"`
	Code     string                  `json:"code,omitempty"`
	RecordID string                  `json:"record_id,omitempty"`
}

// EmitFunc 事件回调。编排器保证串行调用，done 事件之后不再有任何事件。
type EmitFunc func(Event)

func progressEvent(message string) Event {
	return Event{Type: EventProgress, Message: message}
}

func deltaEvent(index int, delta string) Event {
	return Event{Type: EventSuccess, Index: index, Delta: delta}
}

func artifactEvent(artifact entity.Artifact) Event {
	a := artifact
	return Event{Type: EventSuccess, Index: artifact.Index, Artifact: &a}
}

func errorEvent(index int, message string) Event {
	return Event{Type: EventError, Index: index, Message: message}
}
