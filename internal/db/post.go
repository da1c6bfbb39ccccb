package db

import "time"

// Post is a published or draft article. A post always belongs to exactly
// one author and one category; tags are reconciled from caller input on save.
type Post struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Title            string     `gorm:"size:500;not null" json:"title"`
	ShortDescription string     `gorm:"size:5000" json:"shortDescription"`
	Description      string     `json:"description"`
	Meta             string     `gorm:"size:1000" json:"meta"`
	UrlSlug          string     `gorm:"size:200;uniqueIndex;not null" json:"urlSlug"`
	ImageUrl         string     `gorm:"size:500" json:"imageUrl"`
	ViewCount        int        `gorm:"not null;default:0" json:"viewCount"`
	Published        bool       `gorm:"index" json:"published"`
	PostedDate       time.Time  `json:"postedDate"`
	ModifiedDate     *time.Time `json:"modifiedDate"`
	AuthorID         uint       `gorm:"index;not null" json:"authorId"`
	Author           Author     `json:"author"`
	CategoryID       uint       `gorm:"index;not null" json:"categoryId"`
	Category         Category   `json:"category"`
	Tags             []Tag      `gorm:"many2many:post_tags;" json:"tags"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
