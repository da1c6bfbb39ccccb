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
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategorySlugInvalid = errors.New("category slug is empty after normalization")
	ErrCategorySlugTaken   = errors.New("category slug is already in use")
)

const categoryEntity = "category"

// CategoryItem is a category summary with its published post count.
type CategoryItem struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	UrlSlug     string `json:"urlSlug"`
	Description string `json:"description"`
	ShowOnMenu  bool   `json:"showOnMenu"`
	PostCount   int64  `json:"postCount"`
}

// CategoryService wraps category related operations.
type CategoryService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB, c *cache.Cache) *CategoryService {
	return &CategoryService{db: gdb, cache: c}
}

var categorySortOptions = pagination.Options{
	DefaultColumn: "categories.name",
	Tiebreak:      "categories.id",
	Columns: map[string]string{
		"name":       "categories.name",
		"post_count": "post_count",
		"created_at": "categories.created_at",
	},
}

const categoryPostCount = "(SELECT COUNT(*) FROM posts " +
	"WHERE posts.category_id = categories.id AND posts.published) AS post_count"

// List returns category summaries ordered by name, optionally restricted
// to the ones flagged for menu display.
func (s *CategoryService) List(ctx context.Context, showOnMenu bool) ([]CategoryItem, error) {
	tx := s.db.WithContext(ctx).
		Model(&db.Category{}).
		Select("categories.id, categories.name, categories.url_slug, categories.description, " +
			"categories.show_on_menu, " + categoryPostCount)

	if showOnMenu {
		tx = tx.Where("categories.show_on_menu = ?", true)
	}

	var items []CategoryItem
	if err := tx.Order("categories.name asc").Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Paged returns one page of category summaries, optionally filtered by a
// name keyword.
func (s *CategoryService) Paged(ctx context.Context, name string, params pagination.Params) (*pagination.PagedList[CategoryItem], error) {
	tx := s.db.WithContext(ctx).
		Model(&db.Category{}).
		Select("categories.id, categories.name, categories.url_slug, categories.description, " +
			"categories.show_on_menu, " + categoryPostCount)

	if keyword := strings.TrimSpace(name); keyword != "" {
		tx = tx.Where("categories.name LIKE ?", "%"+keyword+"%")
	}

	return pagination.Paginate[CategoryItem](tx, params, categorySortOptions)
}

// Get fetches a category by id.
func (s *CategoryService) Get(ctx context.Context, id uint) (*db.Category, error) {
	var category db.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// GetCached fetches a category by id through the cache.
func (s *CategoryService) GetCached(ctx context.Context, id uint) (*db.Category, error) {
	key := cache.NewKey(categoryEntity, "by-id", id)
	category, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (*db.Category, error) {
		category, err := s.Get(ctx, id)
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, nil
		}
		return category, err
	})
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// GetBySlug fetches a category by its url slug.
func (s *CategoryService) GetBySlug(ctx context.Context, urlSlug string) (*db.Category, error) {
	var category db.Category
	if err := s.db.WithContext(ctx).
		Where("url_slug = ?", urlSlug).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// GetCachedBySlug fetches a category by slug through the cache.
func (s *CategoryService) GetCachedBySlug(ctx context.Context, urlSlug string) (*db.Category, error) {
	key := cache.NewKey(categoryEntity, "by-slug", urlSlug)
	category, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (*db.Category, error) {
		category, err := s.GetBySlug(ctx, urlSlug)
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, nil
		}
		return category, err
	})
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// SlugExists reports whether another category (different id) already uses
// slug.
func (s *CategoryService) SlugExists(ctx context.Context, id uint, urlSlug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&db.Category{}).
		Where("id <> ? AND url_slug = ?", id, urlSlug).
		Count(&count).Error
	return count > 0, err
}

// AddOrUpdate persists a category after the slug uniqueness precondition.
// Every write clears the slug-keyed cache entry (a create may shadow a
// cached miss); updates clear the id-keyed entry too.
func (s *CategoryService) AddOrUpdate(ctx context.Context, category *db.Category) error {
	if strings.TrimSpace(category.UrlSlug) == "" {
		return ErrCategorySlugInvalid
	}

	taken, err := s.SlugExists(ctx, category.ID, category.UrlSlug)
	if err != nil {
		return err
	}
	if taken {
		return ErrCategorySlugTaken
	}

	isUpdate := category.ID > 0
	if isUpdate {
		err = s.db.WithContext(ctx).Save(category).Error
	} else {
		err = s.db.WithContext(ctx).Create(category).Error
	}
	if err != nil {
		return err
	}

	s.cache.Invalidate(cache.NewKey(categoryEntity, "by-slug", category.UrlSlug))
	if isUpdate {
		s.cache.Invalidate(cache.NewKey(categoryEntity, "by-id", category.ID))
	}
	return nil
}

// Delete removes a category by id.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&db.Category{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
