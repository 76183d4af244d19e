package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ShowResultWinner     = "winner"
	ShowResultFinalist   = "finalist"
	ShowResultContestant = "contestant"
	ShowResultJudge      = "judge"
)

// ShowResultRank orders placement results by prestige; higher wins the
// primary-appearance slot during a merge.
func ShowResultRank(result string) int {
	switch result {
	case ShowResultWinner:
		return 3
	case ShowResultFinalist:
		return 2
	case ShowResultContestant:
		return 1
	case ShowResultJudge:
		return 0
	default:
		return -1
	}
}

func IsValidShowResult(result string) bool {
	return ShowResultRank(result) >= 0
}

type ChefShow struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChefID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_chef_show_season,priority:1" json:"chef_id"`
	ShowID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_chef_show_season,priority:2" json:"show_id"`
	Show      *Show     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ShowID;references:ID" json:"show,omitempty"`
	Season    string    `gorm:"column:season;uniqueIndex:idx_chef_show_season,priority:3" json:"season"`
	Result    string    `gorm:"column:result;not null;default:contestant" json:"result"`
	IsPrimary bool      `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ChefShow) TableName() string { return "chef_show" }
