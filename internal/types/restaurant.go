package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RestaurantStatusOpen   = "open"
	RestaurantStatusClosed = "closed"
)

type Restaurant struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChefID        *uuid.UUID     `gorm:"type:uuid;index" json:"chef_id,omitempty"`
	Chef          *Chef          `gorm:"constraint:OnDelete:SET NULL;foreignKey:ChefID;references:ID" json:"chef,omitempty"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	Slug          string         `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	City          string         `gorm:"column:city" json:"city"`
	State         string         `gorm:"column:state" json:"state"`
	Address       string         `gorm:"column:address" json:"address"`
	Website       string         `gorm:"column:website" json:"website"`
	PriceTier     int            `gorm:"column:price_tier" json:"price_tier"`
	Rating        float64        `gorm:"column:rating" json:"rating"`
	ReviewCount   int            `gorm:"column:review_count" json:"review_count"`
	PhotoCount    int            `gorm:"column:photo_count" json:"photo_count"`
	GooglePlaceID string         `gorm:"column:google_place_id" json:"google_place_id"`
	Status        string         `gorm:"column:status;not null;default:open" json:"status"`
	IsPublic      bool           `gorm:"column:is_public;not null;default:true" json:"is_public"`
	Protected     bool           `gorm:"column:protected;not null;default:false" json:"protected"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Restaurant) TableName() string { return "restaurant" }
