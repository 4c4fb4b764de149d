package models

import "gorm.io/gorm"

type Genre struct {
	gorm.Model
	SlugModel

	// Relationships
	Titles []Title `gorm:"many2many:title_genres"`
}
