package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups channels in the catalog.
// Names are free-form and not unique.
type Category struct {
	ID   string `gorm:"primaryKey"`
	Name string `gorm:"not null;index"`
}

func (c *Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
