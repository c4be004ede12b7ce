package dto

import (
	"copysmith-ai-api/internal/domain/entity"
)

// GenerationRequest 生成请求
type GenerationRequest struct {
	Topic       string `json:"topic" binding:"required"`
	Mode        string `json:"mode" binding:"required"`
	Audience    string `json:"audience,omitempty"`
	Intent      string `json:"intent,omitempty"`
	KeyPoints   string `json:"key_points,omitempty"`
	WordCount   int    `json:"word_count,omitempty"`
	Count       int    `json:"count,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// ToEntity 转换为领域请求
func (r *GenerationRequest) ToEntity(userID string, mode entity.GenerationMode) *entity.GenerationRequest {
	return &entity.GenerationRequest{
		Topic:       r.Topic,
		Mode:        mode,
		UserID:      userID,
		Audience:    r.Audience,
		Intent:      r.Intent,
		KeyPoints:   r.KeyPoints,
		WordCount:   r.WordCount,
		Count:       r.Count,
		AspectRatio: r.AspectRatio,
		Provider:    r.Provider,
		Model:       r.Model,
	}
}

// ArtifactResponse 单个生成产物
type ArtifactResponse struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Index   int    `json:"index"`
}

// GenerationResponse 生成记录响应
type GenerationResponse struct {
	ID               string             `json:"id"`
	Mode             string             `json:"mode"`
	Topic            string             `json:"topic"`
	Status           string             `json:"status"`
	Artifacts        []ArtifactResponse `json:"artifacts"`
	CreditCost       int64              `json:"credit_cost"`
	PromptTokens     int                `json:"prompt_tokens,omitempty"`
	CompletionTokens int                `json:"completion_tokens,omitempty"`
	DurationMs       int64              `json:"duration_ms"`
	ErrorMessage     string             `json:"error_message,omitempty"`
	CreatedAt        string             `json:"created_at"`
}

// FromGenerationRecord 从领域记录构造响应
func FromGenerationRecord(record *entity.GenerationRecord) *GenerationResponse {
	artifacts := make([]ArtifactResponse, 0, len(record.Artifacts))
	for _, a := range record.Artifacts {
		artifacts = append(artifacts, ArtifactResponse{
			Kind:    string(a.Kind),
			Content: a.Content,
			Index:   a.Index,
		})
	}
	return &GenerationResponse{
		ID:               record.ID,
		Mode:             string(record.Mode),
		Topic:            record.Topic,
		Status:           string(record.Status),
		Artifacts:        artifacts,
		CreditCost:       record.CreditCost,
		PromptTokens:     record.PromptTokens,
		CompletionTokens: record.CompletionTokens,
		DurationMs:       record.DurationMs,
		ErrorMessage:     record.ErrorMessage,
		CreatedAt:        record.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// GenerationListResponse 生成历史列表
type GenerationListResponse struct {
	Records []*GenerationResponse `json:"records"`
}
