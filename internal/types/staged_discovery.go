package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DiscoveryTypeChef       = "chef"
	DiscoveryTypeRestaurant = "restaurant"
	DiscoveryTypeShow       = "show"
)

const (
	DiscoveryStatusPending     = "pending"
	DiscoveryStatusApproved    = "approved"
	DiscoveryStatusRejected    = "rejected"
	DiscoveryStatusNeedsReview = "needs_review"
)

// StagedDiscovery holds a record proposed by the enrichment pipeline. Nothing
// here is public until an operator approves it.
type StagedDiscovery struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DiscoveryType string         `gorm:"column:discovery_type;not null;index" json:"discovery_type"`
	Payload       datatypes.JSON `gorm:"type:jsonb;column:payload;not null" json:"payload"`
	Status        string         `gorm:"column:status;not null;default:pending;index" json:"status"`
	ReviewError   string         `gorm:"column:review_error" json:"review_error,omitempty"`
	Source        string         `gorm:"column:source;not null" json:"source"`
	Confidence    *float64       `gorm:"column:confidence" json:"confidence,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (StagedDiscovery) TableName() string { return "staged_discovery" }
