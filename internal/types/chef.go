package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Chef struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Bio         string         `gorm:"column:bio" json:"bio"`
	Blurb       string         `gorm:"column:blurb" json:"blurb"`
	Narrative   string         `gorm:"column:narrative" json:"narrative"`
	PhotoURL    string         `gorm:"column:photo_url" json:"photo_url"`
	Hometown    string         `gorm:"column:hometown" json:"hometown"`
	Protected   bool           `gorm:"column:protected;not null;default:false" json:"protected"`
	IsPublic    bool           `gorm:"column:is_public;not null;default:true" json:"is_public"`
	Restaurants []*Restaurant  `gorm:"foreignKey:ChefID;references:ID" json:"restaurants,omitempty"`
	Shows       []*ChefShow    `gorm:"foreignKey:ChefID;references:ID" json:"shows,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Chef) TableName() string { return "chef" }
