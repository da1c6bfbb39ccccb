package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/pagination"
)

const maxPageSize = 100

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func paramInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Param(key)))
	if err != nil {
		return 0
	}
	return value
}

// boundedLimit reads the n query parameter, clamped to [1, maxPageSize].
func boundedLimit(c *gin.Context, fallback int) int {
	n := parseIntQuery(c, "n", fallback)
	if n < 1 {
		n = fallback
	}
	if n > maxPageSize {
		n = maxPageSize
	}
	return n
}

// pageParams reads the paging and sorting query parameters. The page size is
// capped so a single request cannot ask for the whole table.
func pageParams(c *gin.Context) pagination.Params {
	size := parseIntQuery(c, "size", 10)
	if size < 1 {
		size = 10
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	return pagination.Params{
		PageNumber: parseIntQuery(c, "page", 1),
		PageSize:   size,
		SortColumn: strings.TrimSpace(c.Query("sort")),
		SortOrder:  strings.TrimSpace(c.Query("order")),
	}
}
