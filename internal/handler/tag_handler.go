package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/service"
	"github.com/inkpress/internal/slug"
	"go.uber.org/zap"
)

type tagInput struct {
	Name        string `json:"name"`
	UrlSlug     string `json:"urlSlug"`
	Description string `json:"description"`
}

func (in tagInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 50)),
		validation.Field(&in.UrlSlug, validation.Length(0, 50)),
		validation.Field(&in.Description, validation.Length(0, 500)),
	)
}

func (in tagInput) apply(tag *db.Tag) {
	tag.Name = in.Name
	tag.Description = in.Description

	urlSlug := strings.TrimSpace(in.UrlSlug)
	if urlSlug == "" {
		urlSlug = in.Name
	}
	tag.UrlSlug = slug.Generate(urlSlug)
}

// ListTags serves tag summaries with their published post counts.
func (a *API) ListTags(c *gin.Context) {
	items, err := a.tags.List(c.Request.Context())
	if err != nil {
		a.logger.Error("list tags", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list tags")
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetTagBySlug serves one tag through the cache.
func (a *API) GetTagBySlug(c *gin.Context) {
	tag, err := a.tags.GetCachedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			respondError(c, http.StatusNotFound, "tag not found")
			return
		}
		a.logger.Error("get tag", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

// GetTags serves the admin tag listing.
func (a *API) GetTags(c *gin.Context) {
	page, err := a.tags.Paged(c.Request.Context(), c.Query("q"), pageParams(c))
	if err != nil {
		a.logger.Error("list tags", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list tags")
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateTag stores a new tag.
func (a *API) CreateTag(c *gin.Context) {
	var input tagInput
	if !bindJSON(c, &input, "invalid tag payload") {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var tag db.Tag
	input.apply(&tag)

	if err := a.tags.AddOrUpdate(c.Request.Context(), &tag); err != nil {
		a.respondTagWriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// UpdateTag updates an existing tag.
func (a *API) UpdateTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var input tagInput
	if !bindJSON(c, &input, "invalid tag payload") {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var tag db.Tag
	if err := a.db.WithContext(c.Request.Context()).First(&tag, id).Error; err != nil {
		respondError(c, http.StatusNotFound, "tag not found")
		return
	}

	input.apply(&tag)
	if err := a.tags.AddOrUpdate(c.Request.Context(), &tag); err != nil {
		a.respondTagWriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// DeleteTag removes a tag and detaches it from its posts.
func (a *API) DeleteTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	switch err := a.tags.Delete(c.Request.Context(), id); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, service.ErrTagNotFound):
		respondError(c, http.StatusNotFound, "tag not found")
	default:
		a.logger.Error("delete tag", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to delete tag")
	}
}

func (a *API) respondTagWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTagSlugInvalid):
		respondError(c, http.StatusBadRequest, "slug is empty after normalization")
	case errors.Is(err, service.ErrTagSlugTaken):
		respondError(c, http.StatusConflict, "slug is already in use")
	default:
		a.logger.Error("save tag", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save tag")
	}
}
