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

type categoryInput struct {
	Name        string `json:"name"`
	UrlSlug     string `json:"urlSlug"`
	Description string `json:"description"`
	ShowOnMenu  bool   `json:"showOnMenu"`
}

func (in categoryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 50)),
		validation.Field(&in.UrlSlug, validation.Length(0, 50)),
		validation.Field(&in.Description, validation.Length(0, 500)),
	)
}

func (in categoryInput) apply(category *db.Category) {
	category.Name = in.Name
	category.Description = in.Description
	category.ShowOnMenu = in.ShowOnMenu

	urlSlug := strings.TrimSpace(in.UrlSlug)
	if urlSlug == "" {
		urlSlug = in.Name
	}
	category.UrlSlug = slug.Generate(urlSlug)
}

// ListCategories serves category summaries; ?menu=true keeps only the ones
// flagged for menu display.
func (a *API) ListCategories(c *gin.Context) {
	menuOnly := strings.TrimSpace(c.Query("menu")) == "true"
	items, err := a.categories.List(c.Request.Context(), menuOnly)
	if err != nil {
		a.logger.Error("list categories", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetCategoryBySlug serves one category through the cache.
func (a *API) GetCategoryBySlug(c *gin.Context) {
	category, err := a.categories.GetCachedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "category not found")
			return
		}
		a.logger.Error("get category", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// GetCategories serves the admin category listing.
func (a *API) GetCategories(c *gin.Context) {
	page, err := a.categories.Paged(c.Request.Context(), c.Query("q"), pageParams(c))
	if err != nil {
		a.logger.Error("list categories", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateCategory stores a new category.
func (a *API) CreateCategory(c *gin.Context) {
	var input categoryInput
	if !bindJSON(c, &input, "invalid category payload") {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var category db.Category
	input.apply(&category)

	if err := a.categories.AddOrUpdate(c.Request.Context(), &category); err != nil {
		a.respondCategoryWriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// UpdateCategory updates an existing category.
func (a *API) UpdateCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var input categoryInput
	if !bindJSON(c, &input, "invalid category payload") {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	category, err := a.categories.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "category not found")
			return
		}
		a.logger.Error("get category", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load category")
		return
	}

	input.apply(category)
	if err := a.categories.AddOrUpdate(c.Request.Context(), category); err != nil {
		a.respondCategoryWriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category.
func (a *API) DeleteCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	switch err := a.categories.Delete(c.Request.Context(), id); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusNotFound, "category not found")
	default:
		a.logger.Error("delete category", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to delete category")
	}
}

func (a *API) respondCategoryWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCategorySlugInvalid):
		respondError(c, http.StatusBadRequest, "slug is empty after normalization")
	case errors.Is(err, service.ErrCategorySlugTaken):
		respondError(c, http.StatusConflict, "slug is already in use")
	default:
		a.logger.Error("save category", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save category")
	}
}
