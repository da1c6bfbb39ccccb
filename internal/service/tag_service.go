package service

import (
	"context"
	"errors"
	"strings"

	"github.com/inkpress/internal/cache"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/pagination"
	"gorm.io/gorm"
)

var (
	ErrTagNotFound    = errors.New("tag not found")
	ErrTagSlugInvalid = errors.New("tag slug is empty after normalization")
	ErrTagSlugTaken   = errors.New("tag slug is already in use")
)

const tagEntity = "tag"

// TagItem is a tag summary with its published post count.
type TagItem struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	UrlSlug     string `json:"urlSlug"`
	Description string `json:"description"`
	PostCount   int64  `json:"postCount"`
}

// TagService wraps tag related operations.
type TagService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB, c *cache.Cache) *TagService {
	return &TagService{db: gdb, cache: c}
}

var tagSortOptions = pagination.Options{
	DefaultColumn: "tags.name",
	Tiebreak:      "tags.id",
	Columns: map[string]string{
		"name":       "tags.name",
		"post_count": "post_count",
		"created_at": "tags.created_at",
	},
}

const tagPostCount = "(SELECT COUNT(*) FROM post_tags " +
	"JOIN posts ON posts.id = post_tags.post_id " +
	"WHERE post_tags.tag_id = tags.id AND posts.published) AS post_count"

// List returns tag summaries ordered by name.
func (s *TagService) List(ctx context.Context) ([]TagItem, error) {
	var items []TagItem
	err := s.db.WithContext(ctx).
		Model(&db.Tag{}).
		Select("tags.id, tags.name, tags.url_slug, tags.description, " + tagPostCount).
		Order("tags.name asc").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Paged returns one page of tag summaries, optionally filtered by a name
// keyword.
func (s *TagService) Paged(ctx context.Context, name string, params pagination.Params) (*pagination.PagedList[TagItem], error) {
	tx := s.db.WithContext(ctx).
		Model(&db.Tag{}).
		Select("tags.id, tags.name, tags.url_slug, tags.description, " + tagPostCount)

	if keyword := strings.TrimSpace(name); keyword != "" {
		tx = tx.Where("tags.name LIKE ?", "%"+keyword+"%")
	}

	return pagination.Paginate[TagItem](tx, params, tagSortOptions)
}

// GetBySlug fetches a tag by its url slug.
func (s *TagService) GetBySlug(ctx context.Context, urlSlug string) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.WithContext(ctx).
		Where("url_slug = ?", urlSlug).
		First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// GetCachedBySlug fetches a tag by slug through the cache.
func (s *TagService) GetCachedBySlug(ctx context.Context, urlSlug string) (*db.Tag, error) {
	key := cache.NewKey(tagEntity, "by-slug", urlSlug)
	tag, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (*db.Tag, error) {
		tag, err := s.GetBySlug(ctx, urlSlug)
		if errors.Is(err, ErrTagNotFound) {
			return nil, nil
		}
		return tag, err
	})
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, ErrTagNotFound
	}
	return tag, nil
}

// SlugExists reports whether another tag (different id) already uses slug.
func (s *TagService) SlugExists(ctx context.Context, id uint, urlSlug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&db.Tag{}).
		Where("id <> ? AND url_slug = ?", id, urlSlug).
		Count(&count).Error
	return count > 0, err
}

// AddOrUpdate persists a tag after the slug uniqueness precondition.
func (s *TagService) AddOrUpdate(ctx context.Context, tag *db.Tag) error {
	if strings.TrimSpace(tag.UrlSlug) == "" {
		return ErrTagSlugInvalid
	}

	taken, err := s.SlugExists(ctx, tag.ID, tag.UrlSlug)
	if err != nil {
		return err
	}
	if taken {
		return ErrTagSlugTaken
	}

	isUpdate := tag.ID > 0
	if isUpdate {
		err = s.db.WithContext(ctx).Save(tag).Error
	} else {
		err = s.db.WithContext(ctx).Create(tag).Error
	}
	if err != nil {
		return err
	}

	s.cache.Invalidate(cache.NewKey(tagEntity, "by-slug", tag.UrlSlug))
	return nil
}

// Delete removes a tag and its post associations.
func (s *TagService) Delete(ctx context.Context, id uint) error {
	var tag db.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&tag).Association("Posts").Clear(); err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
}
