package utils

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Pagination holds pagination parameters.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads page and limit query params. ok is false when the
// client asked for neither, meaning the full result set.
func ParsePagination(c *fiber.Ctx) (p Pagination, ok bool) {
	if c.Query("page") == "" && c.Query("limit") == "" {
		return Pagination{}, false
	}

	page := parseInt(c.Query("page", "1"), 1)
	limit := parseInt(c.Query("limit", strconv.Itoa(defaultLimit)), defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page <= 0 {
		page = 1
	}
	// keep (page-1)*limit within int
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}, true
}

// Bounds returns the slice window of this page within total items.
func (p Pagination) Bounds(total int) (start, end int) {
	start = min(max(p.Offset, 0), total)
	end = start + min(max(p.Limit, 0), total-start)
	return start, end
}

// Meta describes the page for a response envelope.
func (p Pagination) Meta(total int) fiber.Map {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return fiber.Map{
		"page":       p.Page,
		"limit":      p.Limit,
		"total":      total,
		"totalPages": pages,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
