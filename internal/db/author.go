package db

import "time"

// Author is a content author profile. Posts reference exactly one author.
type Author struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FullName   string    `gorm:"size:100;not null" json:"fullName"`
	UrlSlug    string    `gorm:"size:100;uniqueIndex;not null" json:"urlSlug"`
	Email      string    `gorm:"size:150" json:"email"`
	ImageUrl   string    `gorm:"size:500" json:"imageUrl"`
	JoinedDate time.Time `json:"joinedDate"`
	Notes      string    `json:"notes"`
	Posts      []Post    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
