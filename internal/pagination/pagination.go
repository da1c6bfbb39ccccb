// Package pagination slices a filtered gorm query into pages with
// total-count metadata.
package pagination

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// DefaultPageSize is used when the caller supplies no page size.
const DefaultPageSize = 10

// Params carries the paging request: 1-based page number, page size and an
// optional sort column/direction. Page numbers below 1 are clamped to 1.
type Params struct {
	PageNumber int
	PageSize   int
	SortColumn string
	SortOrder  string
}

// Options configures how a query is sorted while paging.
type Options struct {
	// DefaultColumn is the SQL column used when SortColumn is empty or not
	// whitelisted, typically the entity's freshness field.
	DefaultColumn string
	// Tiebreak is a unique SQL column appended to the order clause so page
	// boundaries stay stable across requests.
	Tiebreak string
	// Columns whitelists external sort names to SQL columns.
	Columns map[string]string
}

// PagedList is one page of a filtered result set plus the metadata callers
// need to render paging controls.
type PagedList[T any] struct {
	Items          []T   `json:"items"`
	PageNumber     int   `json:"pageNumber"`
	PageSize       int   `json:"pageSize"`
	TotalItemCount int64 `json:"totalItemCount"`
	PageCount      int   `json:"pageCount"`
}

// HasNextPage reports whether a page follows the current one.
func (p *PagedList[T]) HasNextPage() bool {
	return p.PageNumber < p.PageCount
}

// HasPreviousPage reports whether a page precedes the current one.
func (p *PagedList[T]) HasPreviousPage() bool {
	return p.PageNumber > 1
}

// Paginate counts the filtered query, then sorts and slices it into one
// page. Count and slice run against the same conditions, so the metadata is
// consistent with the returned items. A page number beyond the last page
// yields an empty item list with true totals.
func Paginate[T any](query *gorm.DB, params Params, opts Options) (*PagedList[T], error) {
	page := params.PageNumber
	if page < 1 {
		page = 1
	}
	size := params.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	result := &PagedList[T]{
		Items:      make([]T, 0, size),
		PageNumber: page,
		PageSize:   size,
	}

	if err := query.Session(&gorm.Session{}).Count(&result.TotalItemCount).Error; err != nil {
		return nil, err
	}

	result.PageCount = int((result.TotalItemCount + int64(size) - 1) / int64(size))

	if err := query.Session(&gorm.Session{}).
		Order(orderClause(params, opts)).
		Limit(size).
		Offset((page - 1) * size).
		Find(&result.Items).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func orderClause(params Params, opts Options) string {
	column := opts.DefaultColumn
	if requested, ok := opts.Columns[strings.ToLower(strings.TrimSpace(params.SortColumn))]; ok {
		column = requested
	}

	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(params.SortOrder), "ASC") {
		direction = "ASC"
	}

	clause := fmt.Sprintf("%s %s", column, direction)
	if opts.Tiebreak != "" && opts.Tiebreak != column {
		clause = fmt.Sprintf("%s, %s %s", clause, opts.Tiebreak, direction)
	}
	return clause
}
