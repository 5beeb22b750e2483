package models

import "time"

// Post is a blog entry. The author link is set at creation and never changes.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Summary   string    `gorm:"size:512" json:"summary"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Cover     string    `gorm:"size:512" json:"cover,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"author"`
}
