package models

import "gorm.io/gorm"

type Review struct {
	gorm.Model
	Feedback

	TitleID  uint `gorm:"not null;uniqueIndex:idx_title_author"`
	AuthorID uint `gorm:"not null;uniqueIndex:idx_title_author"`
	Score    int  `gorm:"not null"`

	// Relationships
	Title    Title     `gorm:"foreignKey:TitleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Author   User      `gorm:"foreignKey:AuthorID"`
	Comments []Comment `gorm:"foreignKey:ReviewID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
