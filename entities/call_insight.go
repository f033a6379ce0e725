package entities

import (
	"time"

	"call-insights/constant"
)

// CallInsight is the analysis result for exactly one call record. The
// unique index on CallRecordID enforces the 1:1 relationship at the
// storage layer.
type CallInsight struct {
	ID            uint                `json:"id" gorm:"primaryKey"`
	CallRecordID  uint                `json:"call_record_id" gorm:"not null;uniqueIndex"`
	Transcription string              `json:"transcription" gorm:"type:text"`
	Sentiment     *constant.Sentiment `json:"sentiment" gorm:"type:varchar(20)"`
	Keywords      KeywordGroups       `json:"keywords" gorm:"type:jsonb"`
	Summary       string              `json:"summary" gorm:"type:text"`
	CreatedAt     time.Time           `json:"created_at"`
}

func (CallInsight) TableName() string {
	return "call_insights"
}
