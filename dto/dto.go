package dto

import (
	"time"

	"call-insights/constant"
	"call-insights/entities"
)

// Queue messages. Each carries a single entity id; everything else is
// loaded from the database when the job runs.
type CallProcessMessage struct {
	CallRecordID uint `json:"call_record_id"`
}

type ReportGenerateMessage struct {
	TenantID uint `json:"tenant_id"`
}

// CallCreate is the metadata part of an ingestion request.
type CallCreate struct {
	CallID    string
	Caller    *string
	Callee    *string
	StartTime *time.Time
	EndTime   *time.Time
	Duration  *int
}

// CallCreateResult reports the outcome of an ingestion. QueueErr is non-nil
// when the processing job could not be enqueued; ingestion still succeeds
// and the record stays pending until a sweep re-enqueues it. The caller
// decides whether to surface that.
type CallCreateResult struct {
	Record   *entities.CallRecord
	QueueErr error
}

type CallRead struct {
	ID            uint       `json:"id"`
	CallID        string     `json:"call_id"`
	Caller        *string    `json:"caller"`
	Callee        *string    `json:"callee"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Duration      *int       `json:"duration"`
	IsProcessed   bool       `json:"is_processed"`
	RecordingPath string     `json:"recording_file"`
}

type InsightRead struct {
	Transcription string                 `json:"transcription"`
	Sentiment     *constant.Sentiment    `json:"sentiment"`
	Keywords      entities.KeywordGroups `json:"keywords"`
	Summary       string                 `json:"summary"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ListFilter narrows a call listing. Bounds are inclusive and conjunctive.
type ListFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	DurationGT *int
	DurationLT *int
	Limit      int
	Offset     int
}

// Report is the on-demand aggregation over a tenant's processed calls.
type Report struct {
	TotalCalls            int            `json:"total_calls"`
	AvgDuration           float64        `json:"avg_duration"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	TopKeywords           []string       `json:"top_keywords"`
}

// ReportSnapshot is the persisted variant, written as a JSON document to a
// tenant-scoped artifact path.
type ReportSnapshot struct {
	TenantID              uint           `json:"tenant_id"`
	TotalCalls            int            `json:"total_calls"`
	AvgDuration           float64        `json:"avg_duration"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	GeneratedAt           string         `json:"generated_at"`
}
