package handler

import (
	"github.com/inkpress/internal/cache"
	"github.com/inkpress/internal/service"
	"github.com/inkpress/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	logger     *zap.Logger
	posts      *service.PostService
	categories *service.CategoryService
	tags       *service.TagService
	authors    *service.AuthorService
	media      storage.Storage
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, c *cache.Cache, media storage.Storage, logger *zap.Logger) *API {
	return &API{
		db:         gdb,
		logger:     logger,
		posts:      service.NewPostService(gdb, c),
		categories: service.NewCategoryService(gdb, c),
		tags:       service.NewTagService(gdb, c),
		authors:    service.NewAuthorService(gdb, c),
		media:      media,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
