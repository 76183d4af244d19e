package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EntityTypeChef       = "chef"
	EntityTypeRestaurant = "restaurant"
)

const (
	CandidateStatusPending     = "pending"
	CandidateStatusMerged      = "merged"
	CandidateStatusRejected    = "rejected"
	CandidateStatusNeedsReview = "needs_review"
)

type DuplicateCandidate struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EntityType string         `gorm:"column:entity_type;not null;index" json:"entity_type"`
	MemberIDs  datatypes.JSON `gorm:"type:jsonb;column:member_ids;not null" json:"member_ids"`
	Similarity float64        `gorm:"column:similarity;not null" json:"similarity"`
	Confidence float64        `gorm:"column:confidence;not null" json:"confidence"`
	Reasoning  string         `gorm:"column:reasoning" json:"reasoning"`
	Status     string         `gorm:"column:status;not null;default:pending;index" json:"status"`
	Resolution datatypes.JSON `gorm:"type:jsonb;column:resolution" json:"resolution,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (DuplicateCandidate) TableName() string { return "duplicate_candidate" }
