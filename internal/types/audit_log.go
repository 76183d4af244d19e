package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AuditSourcePipeline = "pipeline"
	AuditSourceReview   = "review"
	AuditSourceManual   = "manual"
)

// AuditLog is append-only. Rows are written whenever the pipeline or an
// operator mutates a record and are never updated afterwards.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TableName_ string         `gorm:"column:table_name;not null;index" json:"table_name"`
	RecordID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"record_id"`
	Action     string         `gorm:"column:action;not null" json:"action"`
	Source     string         `gorm:"column:source;not null" json:"source"`
	Confidence *float64       `gorm:"column:confidence" json:"confidence,omitempty"`
	Detail     datatypes.JSON `gorm:"type:jsonb;column:detail" json:"detail,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_log" }
