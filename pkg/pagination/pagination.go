package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Meta describes one page of a listing.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Parse extracts and validates page/limit from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	return New(page, limit)
}

// New clamps page and limit into range.
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Bounds returns the [start, end) slice window of p over n items.
func (p Params) Bounds(n int) (int, int) {
	if p.Offset >= n {
		return n, n
	}
	end := p.Offset + p.Limit
	if end > n {
		end = n
	}
	return p.Offset, end
}

// MetaFor describes the page p of a listing with total items.
func (p Params) MetaFor(total int64) Meta {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
	}
}
