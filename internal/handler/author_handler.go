package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/service"
	"github.com/inkpress/internal/slug"
	"go.uber.org/zap"
)

type authorInput struct {
	FullName   string     `json:"fullName"`
	UrlSlug    string     `json:"urlSlug"`
	Email      string     `json:"email"`
	Notes      string     `json:"notes"`
	JoinedDate *time.Time `json:"joinedDate"`
}

func (in authorInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FullName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.UrlSlug, validation.Length(0, 100)),
		validation.Field(&in.Email, validation.Length(0, 150), is.Email),
	)
}

func (in authorInput) apply(author *db.Author) {
	author.FullName = in.FullName
	author.Email = in.Email
	author.Notes = in.Notes
	if in.JoinedDate != nil {
		author.JoinedDate = *in.JoinedDate
	}

	urlSlug := strings.TrimSpace(in.UrlSlug)
	if urlSlug == "" {
		urlSlug = in.FullName
	}
	author.UrlSlug = slug.Generate(urlSlug)
}

// ListAuthors serves author summaries with their published post counts.
func (a *API) ListAuthors(c *gin.Context) {
	items, err := a.authors.List(c.Request.Context())
	if err != nil {
		a.logger.Error("list authors", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list authors")
		return
	}
	c.JSON(http.StatusOK, items)
}

// BestAuthors serves the authors with the most published posts.
func (a *API) BestAuthors(c *gin.Context) {
	items, err := a.authors.Best(c.Request.Context(), boundedLimit(c, 4))
	if err != nil {
		a.logger.Error("best authors", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list authors")
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetAuthorBySlug serves one author through the cache.
func (a *API) GetAuthorBySlug(c *gin.Context) {
	author, err := a.authors.GetCachedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrAuthorNotFound) {
			respondError(c, http.StatusNotFound, "author not found")
			return
		}
		a.logger.Error("get author", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load author")
		return
	}
	c.JSON(http.StatusOK, author)
}

// GetAuthors serves the admin author listing.
func (a *API) GetAuthors(c *gin.Context) {
	page, err := a.authors.Paged(c.Request.Context(), c.Query("q"), pageParams(c))
	if err != nil {
		a.logger.Error("list authors", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list authors")
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateAuthor stores a new author profile.
func (a *API) CreateAuthor(c *gin.Context) {
	var input authorInput
	if !bindJSON(c, &input, "invalid author payload") {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var author db.Author
	input.apply(&author)

	if err := a.authors.AddOrUpdate(c.Request.Context(), &author); err != nil {
		a.respondAuthorWriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, author)
}

// UpdateAuthor updates an existing author profile.
func (a *API) UpdateAuthor(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var input authorInput
	if !bindJSON(c, &input, "invalid author payload") {
		return
	}
	if err := input.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	author, err := a.authors.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAuthorNotFound) {
			respondError(c, http.StatusNotFound, "author not found")
			return
		}
		a.logger.Error("get author", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load author")
		return
	}

	input.apply(author)
	if err := a.authors.AddOrUpdate(c.Request.Context(), author); err != nil {
		a.respondAuthorWriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, author)
}

// DeleteAuthor removes an author profile.
func (a *API) DeleteAuthor(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	switch err := a.authors.Delete(c.Request.Context(), id); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, service.ErrAuthorNotFound):
		respondError(c, http.StatusNotFound, "author not found")
	default:
		a.logger.Error("delete author", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to delete author")
	}
}

func (a *API) respondAuthorWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthorSlugInvalid):
		respondError(c, http.StatusBadRequest, "slug is empty after normalization")
	case errors.Is(err, service.ErrAuthorSlugTaken):
		respondError(c, http.StatusConflict, "slug is already in use")
	default:
		a.logger.Error("save author", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save author")
	}
}
