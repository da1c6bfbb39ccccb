package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/inkpress/internal/cache"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/pagination"
	"gorm.io/gorm"
)

var (
	ErrAuthorNotFound    = errors.New("author not found")
	ErrAuthorSlugInvalid = errors.New("author slug is empty after normalization")
	ErrAuthorSlugTaken   = errors.New("author slug is already in use")
)

const authorEntity = "author"

// AuthorItem is an author summary with its published post count.
type AuthorItem struct {
	ID         uint      `json:"id"`
	FullName   string    `json:"fullName"`
	UrlSlug    string    `json:"urlSlug"`
	Email      string    `json:"email"`
	ImageUrl   string    `json:"imageUrl"`
	JoinedDate time.Time `json:"joinedDate"`
	Notes      string    `json:"notes"`
	PostCount  int64     `json:"postCount"`
}

// AuthorService wraps author related operations.
type AuthorService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewAuthorService creates an AuthorService instance.
func NewAuthorService(gdb *gorm.DB, c *cache.Cache) *AuthorService {
	return &AuthorService{db: gdb, cache: c}
}

var authorSortOptions = pagination.Options{
	DefaultColumn: "authors.full_name",
	Tiebreak:      "authors.id",
	Columns: map[string]string{
		"full_name":   "authors.full_name",
		"joined_date": "authors.joined_date",
		"post_count":  "post_count",
	},
}

const authorPostCount = "(SELECT COUNT(*) FROM posts " +
	"WHERE posts.author_id = authors.id AND posts.published) AS post_count"

const authorItemColumns = "authors.id, authors.full_name, authors.url_slug, authors.email, " +
	"authors.image_url, authors.joined_date, authors.notes, " + authorPostCount

// List returns author summaries ordered by full name.
func (s *AuthorService) List(ctx context.Context) ([]AuthorItem, error) {
	var items []AuthorItem
	err := s.db.WithContext(ctx).
		Model(&db.Author{}).
		Select(authorItemColumns).
		Order("authors.full_name asc").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Paged returns one page of author summaries, optionally filtered by a
// name keyword.
func (s *AuthorService) Paged(ctx context.Context, name string, params pagination.Params) (*pagination.PagedList[AuthorItem], error) {
	tx := s.db.WithContext(ctx).
		Model(&db.Author{}).
		Select(authorItemColumns)

	if keyword := strings.TrimSpace(name); keyword != "" {
		tx = tx.Where("authors.full_name LIKE ?", "%"+keyword+"%")
	}

	return pagination.Paginate[AuthorItem](tx, params, authorSortOptions)
}

// Best returns the n authors with the most published posts.
func (s *AuthorService) Best(ctx context.Context, n int) ([]AuthorItem, error) {
	var items []AuthorItem
	err := s.db.WithContext(ctx).
		Model(&db.Author{}).
		Select(authorItemColumns).
		Order("post_count desc").
		Order("authors.id asc").
		Limit(n).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Get fetches an author by id.
func (s *AuthorService) Get(ctx context.Context, id uint) (*db.Author, error) {
	var author db.Author
	if err := s.db.WithContext(ctx).First(&author, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, err
	}
	return &author, nil
}

// GetCached fetches an author by id through the cache.
func (s *AuthorService) GetCached(ctx context.Context, id uint) (*db.Author, error) {
	key := cache.NewKey(authorEntity, "by-id", id)
	author, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (*db.Author, error) {
		author, err := s.Get(ctx, id)
		if errors.Is(err, ErrAuthorNotFound) {
			return nil, nil
		}
		return author, err
	})
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrAuthorNotFound
	}
	return author, nil
}

// GetBySlug fetches an author by url slug.
func (s *AuthorService) GetBySlug(ctx context.Context, urlSlug string) (*db.Author, error) {
	var author db.Author
	if err := s.db.WithContext(ctx).
		Where("url_slug = ?", urlSlug).
		First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, err
	}
	return &author, nil
}

// GetCachedBySlug fetches an author by slug through the cache.
func (s *AuthorService) GetCachedBySlug(ctx context.Context, urlSlug string) (*db.Author, error) {
	key := cache.NewKey(authorEntity, "by-slug", urlSlug)
	author, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (*db.Author, error) {
		author, err := s.GetBySlug(ctx, urlSlug)
		if errors.Is(err, ErrAuthorNotFound) {
			return nil, nil
		}
		return author, err
	})
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrAuthorNotFound
	}
	return author, nil
}

// SlugExists reports whether another author (different id) already uses
// slug.
func (s *AuthorService) SlugExists(ctx context.Context, id uint, urlSlug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&db.Author{}).
		Where("id <> ? AND url_slug = ?", id, urlSlug).
		Count(&count).Error
	return count > 0, err
}

// AddOrUpdate persists an author after the slug uniqueness precondition.
func (s *AuthorService) AddOrUpdate(ctx context.Context, author *db.Author) error {
	if strings.TrimSpace(author.UrlSlug) == "" {
		return ErrAuthorSlugInvalid
	}

	taken, err := s.SlugExists(ctx, author.ID, author.UrlSlug)
	if err != nil {
		return err
	}
	if taken {
		return ErrAuthorSlugTaken
	}

	isUpdate := author.ID > 0
	if isUpdate {
		err = s.db.WithContext(ctx).Save(author).Error
	} else {
		if author.JoinedDate.IsZero() {
			author.JoinedDate = time.Now()
		}
		err = s.db.WithContext(ctx).Create(author).Error
	}
	if err != nil {
		return err
	}

	s.cache.Invalidate(cache.NewKey(authorEntity, "by-slug", author.UrlSlug))
	if isUpdate {
		s.cache.Invalidate(cache.NewKey(authorEntity, "by-id", author.ID))
	}
	return nil
}

// SetImageUrl stores the media reference for an author.
func (s *AuthorService) SetImageUrl(ctx context.Context, id uint, imageUrl string) error {
	result := s.db.WithContext(ctx).
		Model(&db.Author{}).
		Where("id = ?", id).
		UpdateColumn("image_url", imageUrl)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAuthorNotFound
	}

	s.cache.Invalidate(cache.NewKey(authorEntity, "by-id", id))
	return nil
}

// Delete removes an author by id.
func (s *AuthorService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&db.Author{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAuthorNotFound
	}
	return nil
}
