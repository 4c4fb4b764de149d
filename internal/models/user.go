package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	gorm.Model

	Username         string `gorm:"size:150;uniqueIndex;not null"`
	Email            string `gorm:"size:254;uniqueIndex;not null"`
	FirstName        string `gorm:"size:150"`
	LastName         string `gorm:"size:150"`
	Bio              string
	Role             string `gorm:"size:15;not null;default:user"`
	ConfirmationCode string `gorm:"size:50"`
	CodeIssuedAt     *time.Time

	// Relationships
	Reviews  []Review  `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments []Comment `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}
