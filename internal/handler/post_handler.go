package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/service"
	"github.com/inkpress/internal/slug"
	"go.uber.org/zap"
)

type postInput struct {
	Title            string     `json:"title"`
	ShortDescription string     `json:"shortDescription"`
	Description      string     `json:"description"`
	Meta             string     `json:"meta"`
	UrlSlug          string     `json:"urlSlug"`
	Published        bool       `json:"published"`
	PostedDate       *time.Time `json:"postedDate"`
	AuthorID         uint       `json:"authorId"`
	CategoryID       uint       `json:"categoryId"`
	Tags             []string   `json:"tags"`
}

func (in postInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&in.ShortDescription, validation.Length(0, 5000)),
		validation.Field(&in.Meta, validation.Length(0, 1000)),
		validation.Field(&in.UrlSlug, validation.Length(0, 200)),
		validation.Field(&in.AuthorID, validation.Required),
		validation.Field(&in.CategoryID, validation.Required),
	)
}

func (in postInput) apply(post *db.Post) {
	post.Title = in.Title
	post.ShortDescription = in.ShortDescription
	post.Description = in.Description
	post.Meta = in.Meta
	post.Published = in.Published
	post.AuthorID = in.AuthorID
	post.CategoryID = in.CategoryID
	if in.PostedDate != nil {
		post.PostedDate = *in.PostedDate
	}

	urlSlug := strings.TrimSpace(in.UrlSlug)
	if urlSlug == "" {
		urlSlug = in.Title
	}
	post.UrlSlug = slug.Generate(urlSlug)
}

// postQueryFromRequest reads the shared filter parameters for post listings.
func postQueryFromRequest(c *gin.Context) service.PostQuery {
	return service.PostQuery{
		CategorySlug: strings.TrimSpace(c.Query("category")),
		AuthorSlug:   strings.TrimSpace(c.Query("author")),
		TagSlug:      strings.TrimSpace(c.Query("tag")),
		Keyword:      strings.TrimSpace(c.Query("q")),
		Year:         parseIntQuery(c, "year", 0),
		Month:        parseIntQuery(c, "month", 0),
	}
}

// ListPublishedPosts serves the public post listing with filters and paging.
func (a *API) ListPublishedPosts(c *gin.Context) {
	query := postQueryFromRequest(c)
	query.PublishedOnly = true

	page, err := a.posts.List(c.Request.Context(), query, pageParams(c))
	if err != nil {
		a.logger.Error("list posts", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetPublishedPost serves one post addressed by its posted year, month and
// slug, bumps the view counter and includes the rendered HTML body.
func (a *API) GetPublishedPost(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Request.Context(),
		paramInt(c, "year"), paramInt(c, "month"), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		a.logger.Error("get post", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load post")
		return
	}
	if !post.Published {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	if err := a.posts.IncrementViewCount(c.Request.Context(), post.ID); err != nil {
		a.logger.Warn("increment view count", zap.Uint("post", post.ID), zap.Error(err))
	} else {
		post.ViewCount++
	}

	body, err := service.RenderMarkdown(post.Description)
	if err != nil {
		a.logger.Error("render markdown", zap.Uint("post", post.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to render post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post, "html": body})
}

// PopularPosts serves the most viewed published posts.
func (a *API) PopularPosts(c *gin.Context) {
	posts, err := a.posts.Popular(c.Request.Context(), boundedLimit(c, 5))
	if err != nil {
		a.logger.Error("popular posts", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

// RandomPosts serves a random sample of published posts.
func (a *API) RandomPosts(c *gin.Context) {
	posts, err := a.posts.Random(c.Request.Context(), boundedLimit(c, 5))
	if err != nil {
		a.logger.Error("random posts", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Archives serves per-month published post counts.
func (a *API) Archives(c *gin.Context) {
	months := parseIntQuery(c, "months", 12)
	if months < 1 {
		months = 12
	}
	if months > 120 {
		months = 120
	}

	archives, err := a.posts.Archives(c.Request.Context(), months)
	if err != nil {
		a.logger.Error("archives", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load archives")
		return
	}
	c.JSON(http.StatusOK, archives)
}

// GetPosts serves the admin post listing, drafts included.
func (a *API) GetPosts(c *gin.Context) {
	query := postQueryFromRequest(c)
	switch strings.TrimSpace(c.Query("published")) {
	case "true":
		query.PublishedOnly = true
	case "false":
		query.NotPublished = true
	}

	page, err := a.posts.List(c.Request.Context(), query, pageParams(c))
	if err != nil {
		a.logger.Error("list posts", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetPost serves one post by id with its associations.
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := a.posts.Get(c.Request.Context(), id, true)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		a.logger.Error("get post", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost stores a new post.
func (a *API) CreatePost(c *gin.Context) {
	var input postInput
	if !bindJSON(c, &input, "invalid post payload") {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var post db.Post
	input.apply(&post)

	if err := a.posts.CreateOrUpdate(c.Request.Context(), &post, input.Tags); err != nil {
		a.respondPostWriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdatePost updates an existing post.
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var input postInput
	if !bindJSON(c, &input, "invalid post payload") {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := a.posts.Get(c.Request.Context(), id, false)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		a.logger.Error("get post", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load post")
		return
	}

	input.apply(post)
	if err := a.posts.CreateOrUpdate(c.Request.Context(), post, input.Tags); err != nil {
		a.respondPostWriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost removes a published post.
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	switch err := a.posts.Delete(c.Request.Context(), id); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "post not found")
	case errors.Is(err, service.ErrPostNotPublished):
		respondError(c, http.StatusConflict, "draft posts cannot be deleted")
	default:
		a.logger.Error("delete post", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to delete post")
	}
}

// TogglePost flips a post's published state.
func (a *API) TogglePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	published, err := a.posts.TogglePublished(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		a.logger.Error("toggle post", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to toggle post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"published": published})
}

func (a *API) respondPostWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostSlugInvalid):
		respondError(c, http.StatusBadRequest, "slug is empty after normalization")
	case errors.Is(err, service.ErrPostSlugTaken):
		respondError(c, http.StatusConflict, "slug is already in use")
	default:
		a.logger.Error("save post", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save post")
	}
}
