package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel is a playable entry of the catalog.
// It belongs to exactly one category and carries the URL rendered in the player.
type Channel struct {
	ID         string    `gorm:"primaryKey"`
	Name       string    `gorm:"not null;index"`
	LogoURL    string    `gorm:"column:logo_url"`
	EmbedURL   string    `gorm:"column:embed_link;not null"`
	CategoryID string    `gorm:"not null;index"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (c *Channel) TableName() string {
	return "channels"
}

func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CategoryName returns the joined category name, or "" when the
// reference could not be resolved.
func (c *Channel) CategoryName() string {
	if c.Category == nil {
		return ""
	}
	return c.Category.Name
}
