package models

import "time"

// SlugModel is the shared field set for catalog entities addressed by slug.
type SlugModel struct {
	Name string `gorm:"size:256;not null"`
	Slug string `gorm:"size:50;uniqueIndex;not null"`
}

// Feedback is the shared field set for user-authored content. AuthorID is
// declared per entity because Review folds it into a composite unique index.
type Feedback struct {
	Text    string    `gorm:"not null"`
	PubDate time.Time `gorm:"not null;autoCreateTime"`
}
