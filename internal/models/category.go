package models

import "gorm.io/gorm"

type Category struct {
	gorm.Model
	SlugModel

	// Relationships
	Titles []Title `gorm:"foreignKey:CategoryID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
