package db

import "time"

// Category groups posts. Posts reference exactly one category.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null" json:"name"`
	UrlSlug     string    `gorm:"size:50;uniqueIndex;not null" json:"urlSlug"`
	Description string    `gorm:"size:500" json:"description"`
	ShowOnMenu  bool      `json:"showOnMenu"`
	Posts       []Post    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
