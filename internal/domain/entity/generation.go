package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GenerationMode 生成模式
type GenerationMode string

const (
	ModeShortForm GenerationMode = "short_form"
	ModeLongForm  GenerationMode = "long_form"
	ModeOutline   GenerationMode = "outline"
	ModeTitles    GenerationMode = "titles"
	ModeImage     GenerationMode = "image"
)

// ParseMode 解析生成模式字符串
func ParseMode(s string) (GenerationMode, bool) {
	switch GenerationMode(s) {
	case ModeShortForm, ModeLongForm, ModeOutline, ModeTitles, ModeImage:
		return GenerationMode(s), true
	}
	return "", false
}

// ArtifactKind 产物类型
type ArtifactKind string

const (
	KindShortNote    ArtifactKind = "short_note"
	KindLongFormNote ArtifactKind = "long_form_note"
	KindOutline      ArtifactKind = "outline"
	KindTitle        ArtifactKind = "title"
	KindImageURL     ArtifactKind = "image_url"
)

// Artifact 单个生成产物
type Artifact struct {
	Kind    ArtifactKind `json:"kind"`
	Content string       `json:"content"`
	Index   int          `json:"index"`
}

// ArtifactList 产物集合，以 JSON 形式落库
type ArtifactList []Artifact

// Value 实现 driver.Valuer
func (a ArtifactList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (a *ArtifactList) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported artifact list type %T", value)
	}
}

// GenerationRequest 一次生成请求，经 API 边界校验后独占于单次流水线调用
type GenerationRequest struct {
	Topic       string
	Mode        GenerationMode
	UserID      string
	Audience    string
	Intent      string
	KeyPoints   string
	WordCount   int
	Count       int    // titles/image 模式的产物数量
	AspectRatio string // 仅 image 模式
	Provider    string
	Model       string
	CreditCost  int64
}

// Validate 校验请求必填字段
func (r *GenerationRequest) Validate() error {
	if r.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if r.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if _, ok := ParseMode(string(r.Mode)); !ok {
		return fmt.Errorf("unknown mode: %s", r.Mode)
	}
	if r.CreditCost <= 0 {
		return fmt.Errorf("credit cost must be positive")
	}
	return nil
}

// GenerationStatus 生成记录状态
type GenerationStatus string

const (
	GenerationStatusSucceeded GenerationStatus = "succeeded"
	GenerationStatusPartial   GenerationStatus = "partial"
	GenerationStatusFailed    GenerationStatus = "failed"
)

// GenerationRecord 一次流水线调用的持久化记录
type GenerationRecord struct {
	ID               string           `json:"id" gorm:"primaryKey"`
	UserID           string           `json:"user_id" gorm:"index"`
	Mode             GenerationMode   `json:"mode"`
	Topic            string           `json:"topic"`
	Status           GenerationStatus `json:"status"`
	Artifacts        ArtifactList     `json:"artifacts" gorm:"type:jsonb"`
	CreditCost       int64            `json:"credit_cost"`
	PromptTokens     int              `json:"prompt_tokens"`
	CompletionTokens int              `json:"completion_tokens"`
	DurationMs       int64            `json:"duration_ms"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewGenerationRecord 创建生成记录
func NewGenerationRecord(id string, req *GenerationRequest) *GenerationRecord {
	return &GenerationRecord{
		ID:         id,
		UserID:     req.UserID,
		Mode:       req.Mode,
		Topic:      req.Topic,
		CreditCost: req.CreditCost,
		CreatedAt:  time.Now().UTC(),
	}
}
