package db

import "time"

// Tag labels posts. Many-to-many with Post via post_tags.
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null" json:"name"`
	UrlSlug     string    `gorm:"size:50;uniqueIndex;not null" json:"urlSlug"`
	Description string    `gorm:"size:500" json:"description"`
	Posts       []Post    `gorm:"many2many:post_tags;" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
