package service

import (
	"strings"

	"gorm.io/gorm"
)

// PostQuery collects the optional filter criteria for post listings. Zero
// valued fields are ignored, so an empty query matches every post.
type PostQuery struct {
	PublishedOnly bool
	NotPublished  bool
	CategoryID    uint
	CategorySlug  string
	AuthorID      uint
	AuthorSlug    string
	TagSlug       string
	Keyword       string
	Year          int
	Month         int
	TitleSlug     string
}

type postPredicate func(tx *gorm.DB) *gorm.DB

const postTagMatch = "EXISTS (SELECT 1 FROM post_tags " +
	"JOIN tags ON tags.id = post_tags.tag_id " +
	"WHERE post_tags.post_id = posts.id AND tags.url_slug = ?)"

const postTagKeyword = "EXISTS (SELECT 1 FROM post_tags " +
	"JOIN tags ON tags.id = post_tags.tag_id " +
	"WHERE post_tags.post_id = posts.id AND tags.name LIKE ?)"

// Apply narrows tx with every criterion set on q. Joins are added only when
// a criterion needs them, and tag conditions go through EXISTS subqueries so
// multi-tag posts never produce duplicate rows.
func (q PostQuery) Apply(tx *gorm.DB) *gorm.DB {
	if q.needsCategoryJoin() {
		tx = tx.Joins("LEFT JOIN categories ON categories.id = posts.category_id")
	}
	if q.AuthorSlug != "" {
		tx = tx.Joins("LEFT JOIN authors ON authors.id = posts.author_id")
	}

	for _, predicate := range q.predicates() {
		tx = predicate(tx)
	}
	return tx
}

func (q PostQuery) needsCategoryJoin() bool {
	return q.CategorySlug != "" || strings.TrimSpace(q.Keyword) != ""
}

func (q PostQuery) predicates() []postPredicate {
	return []postPredicate{
		func(tx *gorm.DB) *gorm.DB {
			if !q.PublishedOnly {
				return tx
			}
			return tx.Where("posts.published = ?", true)
		},
		func(tx *gorm.DB) *gorm.DB {
			if !q.NotPublished {
				return tx
			}
			return tx.Where("posts.published = ?", false)
		},
		func(tx *gorm.DB) *gorm.DB {
			if q.CategoryID == 0 {
				return tx
			}
			return tx.Where("posts.category_id = ?", q.CategoryID)
		},
		func(tx *gorm.DB) *gorm.DB {
			if q.CategorySlug == "" {
				return tx
			}
			return tx.Where("categories.url_slug = ?", q.CategorySlug)
		},
		func(tx *gorm.DB) *gorm.DB {
			if q.AuthorID == 0 {
				return tx
			}
			return tx.Where("posts.author_id = ?", q.AuthorID)
		},
		func(tx *gorm.DB) *gorm.DB {
			if q.AuthorSlug == "" {
				return tx
			}
			return tx.Where("authors.url_slug = ?", q.AuthorSlug)
		},
		func(tx *gorm.DB) *gorm.DB {
			if q.TagSlug == "" {
				return tx
			}
			return tx.Where(postTagMatch, q.TagSlug)
		},
		func(tx *gorm.DB) *gorm.DB {
			keyword := strings.TrimSpace(q.Keyword)
			if keyword == "" {
				return tx
			}
			pattern := "%" + keyword + "%"
			return tx.Where(
				"(posts.title LIKE ? OR posts.short_description LIKE ? "+
					"OR posts.description LIKE ? OR categories.name LIKE ? "+
					"OR "+postTagKeyword+")",
				pattern, pattern, pattern, pattern, pattern)
		},
		func(tx *gorm.DB) *gorm.DB {
			if q.Year <= 0 {
				return tx
			}
			return tx.Where("CAST(strftime('%Y', posts.posted_date) AS INTEGER) = ?", q.Year)
		},
		func(tx *gorm.DB) *gorm.DB {
			if q.Month <= 0 {
				return tx
			}
			return tx.Where("CAST(strftime('%m', posts.posted_date) AS INTEGER) = ?", q.Month)
		},
		func(tx *gorm.DB) *gorm.DB {
			if q.TitleSlug == "" {
				return tx
			}
			return tx.Where("posts.url_slug = ?", q.TitleSlug)
		},
	}
}
