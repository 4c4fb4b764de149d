package models

import "gorm.io/gorm"

type Title struct {
	gorm.Model

	Name        string `gorm:"size:256;not null;index"`
	Year        int    `gorm:"not null;index"`
	Description string
	CategoryID  *uint `gorm:"index"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Genres   []Genre   `gorm:"many2many:title_genres"`
	Reviews  []Review  `gorm:"foreignKey:TitleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
