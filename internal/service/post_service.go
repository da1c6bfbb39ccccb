package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/inkpress/internal/cache"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/pagination"
	"github.com/inkpress/internal/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrPostSlugInvalid  = errors.New("post slug is empty after normalization")
	ErrPostSlugTaken    = errors.New("post slug is already in use")
	ErrPostNotPublished = errors.New("post is not published")
)

const postEntity = "post"

// PostService wraps post related database operations and the read-through
// cache for single-post lookups.
type PostService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB, c *cache.Cache) *PostService {
	return &PostService{db: gdb, cache: c}
}

var postSortOptions = pagination.Options{
	DefaultColumn: "posts.posted_date",
	Tiebreak:      "posts.id",
	Columns: map[string]string{
		"posted_date": "posts.posted_date",
		"title":       "posts.title",
		"view_count":  "posts.view_count",
		"created_at":  "posts.created_at",
	},
}

// MonthlyArchive counts the posts published in one calendar month.
type MonthlyArchive struct {
	Year      int   `json:"year"`
	Month     int   `json:"month"`
	PostCount int64 `json:"postCount"`
}

// List returns one page of posts matching query, with author, category and
// tags eagerly loaded.
func (s *PostService) List(ctx context.Context, query PostQuery, params pagination.Params) (*pagination.PagedList[db.Post], error) {
	tx := s.db.WithContext(ctx).
		Model(&db.Post{}).
		Preload("Author").
		Preload("Category").
		Preload("Tags")
	return pagination.Paginate[db.Post](query.Apply(tx), params, postSortOptions)
}

// Get fetches a post by id. includeDetail additionally loads the author,
// category and tag associations.
func (s *PostService) Get(ctx context.Context, id uint, includeDetail bool) (*db.Post, error) {
	tx := s.db.WithContext(ctx)
	if includeDetail {
		tx = tx.Preload("Author").Preload("Category").Preload("Tags")
	}

	var post db.Post
	if err := tx.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetCached fetches a post by id through the cache. Missing posts are
// cached as absent until the entry expires or is invalidated.
func (s *PostService) GetCached(ctx context.Context, id uint) (*db.Post, error) {
	key := cache.NewKey(postEntity, "by-id", id)
	post, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (*db.Post, error) {
		post, err := s.Get(ctx, id, true)
		if errors.Is(err, ErrPostNotFound) {
			return nil, nil
		}
		return post, err
	})
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// GetBySlug fetches a post by its title slug, optionally narrowed to a
// posted year and month.
func (s *PostService) GetBySlug(ctx context.Context, year, month int, titleSlug string) (*db.Post, error) {
	query := PostQuery{Year: year, Month: month, TitleSlug: titleSlug}
	tx := query.Apply(s.db.WithContext(ctx).
		Model(&db.Post{}).
		Preload("Author").
		Preload("Category").
		Preload("Tags"))

	var post db.Post
	if err := tx.First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetCachedBySlug fetches a post by slug through the cache.
func (s *PostService) GetCachedBySlug(ctx context.Context, titleSlug string) (*db.Post, error) {
	key := cache.NewKey(postEntity, "by-slug", titleSlug)
	post, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (*db.Post, error) {
		post, err := s.GetBySlug(ctx, 0, 0, titleSlug)
		if errors.Is(err, ErrPostNotFound) {
			return nil, nil
		}
		return post, err
	})
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// SlugExists reports whether another post (different id) already uses slug.
func (s *PostService) SlugExists(ctx context.Context, id uint, urlSlug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id <> ? AND url_slug = ?", id, urlSlug).
		Count(&count).Error
	return count > 0, err
}

// CreateOrUpdate persists post and reconciles its tag set from tagNames in
// a single transaction. Tag names are normalized to slugs and deduplicated
// keeping the first-seen display name; existing tags are reused, unmatched
// names create new rows, and tags absent from the input are detached from
// the post but never deleted. The slug uniqueness precondition runs before
// any write.
func (s *PostService) CreateOrUpdate(ctx context.Context, post *db.Post, tagNames []string) error {
	if strings.TrimSpace(post.UrlSlug) == "" {
		return ErrPostSlugInvalid
	}

	taken, err := s.SlugExists(ctx, post.ID, post.UrlSlug)
	if err != nil {
		return err
	}
	if taken {
		return ErrPostSlugTaken
	}

	isUpdate := post.ID > 0

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := reconcileTags(tx, tagNames)
		if err != nil {
			return err
		}

		if isUpdate {
			now := time.Now()
			post.ModifiedDate = &now
			if err := tx.Omit(clause.Associations).Save(post).Error; err != nil {
				return err
			}
		} else {
			if post.PostedDate.IsZero() {
				post.PostedDate = time.Now()
			}
			if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(post).Association("Tags").Replace(tags); err != nil {
			return err
		}
		post.Tags = tags
		return nil
	})
	if err != nil {
		return err
	}

	// The slug key may hold a cached miss from before this write, so it is
	// cleared on create too.
	s.cache.Invalidate(cache.NewKey(postEntity, "by-slug", post.UrlSlug))
	if isUpdate {
		s.cache.Invalidate(cache.NewKey(postEntity, "by-id", post.ID))
	}
	return nil
}

// reconcileTags resolves caller-supplied tag names to Tag rows inside the
// post save transaction: dedupe by normalized slug keeping the first-seen
// display name, reuse matches, create the rest.
func reconcileTags(tx *gorm.DB, names []string) ([]db.Tag, error) {
	displayNames := map[string]string{}
	var order []string
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		normalized := slug.Generate(name)
		if normalized == "" {
			continue
		}
		if _, ok := displayNames[normalized]; !ok {
			displayNames[normalized] = name
			order = append(order, normalized)
		}
	}

	tags := make([]db.Tag, 0, len(order))
	for _, tagSlug := range order {
		var tag db.Tag
		err := tx.Where("url_slug = ?", tagSlug).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = db.Tag{
				Name:        displayNames[tagSlug],
				UrlSlug:     tagSlug,
				Description: displayNames[tagSlug],
			}
			if err := tx.Create(&tag).Error; err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Delete removes a post and detaches its tags. Deleting a post that is not
// yet published is rejected, so drafts cannot vanish from the editing
// workflow.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	var post db.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if !post.Published {
		return ErrPostNotPublished
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
}

// TogglePublished flips the published flag and returns the new state.
func (s *PostService) TogglePublished(ctx context.Context, id uint) (bool, error) {
	var post db.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrPostNotFound
		}
		return false, err
	}

	published := !post.Published
	if err := s.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id = ?", id).
		UpdateColumn("published", published).Error; err != nil {
		return false, err
	}

	s.cache.Invalidate(cache.NewKey(postEntity, "by-id", id))
	s.cache.Invalidate(cache.NewKey(postEntity, "by-slug", post.UrlSlug))
	return published, nil
}

// IncrementViewCount bumps the view counter with a single atomic UPDATE
// expression, so concurrent views never lose increments.
func (s *PostService) IncrementViewCount(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// SetImageUrl stores the media reference for a post.
func (s *PostService) SetImageUrl(ctx context.Context, id uint, imageUrl string) error {
	result := s.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id = ?", id).
		UpdateColumn("image_url", imageUrl)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}

	s.cache.Invalidate(cache.NewKey(postEntity, "by-id", id))
	return nil
}

// Popular returns the top n published posts by view count.
func (s *PostService) Popular(ctx context.Context, n int) ([]db.Post, error) {
	var posts []db.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Where("published = ?", true).
		Order("view_count desc").
		Order("id desc").
		Limit(n).
		Find(&posts).Error
	return posts, err
}

// Random returns n published posts in random order.
func (s *PostService) Random(ctx context.Context, n int) ([]db.Post, error) {
	var posts []db.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Where("published = ?", true).
		Order("RANDOM()").
		Limit(n).
		Find(&posts).Error
	return posts, err
}

// Archives returns per-month published post counts covering the last
// months calendar months, most recent first. Months without posts are kept
// with a zero count.
func (s *PostService) Archives(ctx context.Context, months int) ([]MonthlyArchive, error) {
	if months <= 0 {
		return []MonthlyArchive{}, nil
	}

	var rows []MonthlyArchive
	err := s.db.WithContext(ctx).
		Model(&db.Post{}).
		Select("CAST(strftime('%Y', posted_date) AS INTEGER) AS year, " +
			"CAST(strftime('%m', posted_date) AS INTEGER) AS month, " +
			"COUNT(*) AS post_count").
		Where("published = ?", true).
		Group("year, month").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[[2]int]int64, len(rows))
	for _, row := range rows {
		counts[[2]int{row.Year, row.Month}] = row.PostCount
	}

	// Anchor on the first of the current month; stepping back from a late
	// day of month would normalize (e.g. Jul 31 minus one month is Jul 1)
	// and skip a month.
	archives := make([]MonthlyArchive, 0, months)
	now := time.Now()
	cursor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 0; i < months; i++ {
		year, month := cursor.Year(), int(cursor.Month())
		archives = append(archives, MonthlyArchive{
			Year:      year,
			Month:     month,
			PostCount: counts[[2]int{year, month}],
		})
		cursor = cursor.AddDate(0, -1, 0)
	}
	return archives, nil
}
