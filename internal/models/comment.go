package models

import "gorm.io/gorm"

type Comment struct {
	gorm.Model
	Feedback

	ReviewID uint `gorm:"not null;index"`
	AuthorID uint `gorm:"not null;index"`

	// Relationships
	Review Review `gorm:"foreignKey:ReviewID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Author User   `gorm:"foreignKey:AuthorID"`
}
