package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkpress/internal/service"
	"go.uber.org/zap"
)

const maxUploadBytes = 8 << 20

// saveUpload reads the "file" form field and stores it under a fresh
// uuid-based key, returning the public URL.
func (a *API) saveUpload(c *gin.Context) (string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing file field")
		return "", false
	}
	if fileHeader.Size > maxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "file too large")
		return "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload")
		return "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil || len(data) > maxUploadBytes {
		respondError(c, http.StatusBadRequest, "failed to read upload")
		return "", false
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := "media/" + uuid.NewString() + ext
	contentType := fileHeader.Header.Get("Content-Type")

	url, err := a.media.Save(c.Request.Context(), key, data, contentType)
	if err != nil {
		a.logger.Error("store upload", zap.String("key", key), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to store upload")
		return "", false
	}
	return url, true
}

// Upload stores a media file and returns its URL.
func (a *API) Upload(c *gin.Context) {
	url, ok := a.saveUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// UploadPostImage stores a media file and attaches it to a post as its
// cover image.
func (a *API) UploadPostImage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	url, ok := a.saveUpload(c)
	if !ok {
		return
	}

	if err := a.posts.SetImageUrl(c.Request.Context(), id, url); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		a.logger.Error("set post image", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to update post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// UploadAuthorImage stores a media file and attaches it to an author as
// their profile image.
func (a *API) UploadAuthorImage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	url, ok := a.saveUpload(c)
	if !ok {
		return
	}

	if err := a.authors.SetImageUrl(c.Request.Context(), id, url); err != nil {
		if errors.Is(err, service.ErrAuthorNotFound) {
			respondError(c, http.StatusNotFound, "author not found")
			return
		}
		a.logger.Error("set author image", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to update author")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
