package entities

import "time"

// CallRecord is one ingested call. CallID is supplied by the client and is
// unique across the whole system, not just per tenant. IsProcessed flips
// false to true exactly once, in the same transaction that writes the
// insight row.
type CallRecord struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	TenantID      uint       `json:"tenant_id" gorm:"not null;index:idx_call_records_tenant_id"`
	CallID        string     `json:"call_id" gorm:"type:varchar(255);uniqueIndex;not null"`
	Caller        *string    `json:"caller" gorm:"type:varchar(255)"`
	Callee        *string    `json:"callee" gorm:"type:varchar(255)"`
	StartTime     *time.Time `json:"start_time" gorm:"type:timestamptz"`
	EndTime       *time.Time `json:"end_time" gorm:"type:timestamptz"`
	Duration      *int       `json:"duration" gorm:"type:integer"`
	RecordingPath string     `json:"recording_file" gorm:"type:varchar(500)"`
	IsProcessed   bool       `json:"is_processed" gorm:"not null;default:false"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (CallRecord) TableName() string {
	return "call_records"
}
