package utils

import (
	"math"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseQuery(t *testing.T, query string) (Pagination, bool) {
	t.Helper()

	var (
		got Pagination
		ok  bool
	)
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got, ok = ParsePagination(c)
		return nil
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/"+query, nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	return got, ok
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query  string
		want   Pagination
		wantOK bool
	}{
		{"", Pagination{}, false},
		{"?page=2", Pagination{Page: 2, Limit: 20, Offset: 20}, true},
		{"?page=3&limit=5", Pagination{Page: 3, Limit: 5, Offset: 10}, true},
		{"?page=-1&limit=0", Pagination{Page: 1, Limit: 20, Offset: 0}, true},
		{"?limit=1000", Pagination{Page: 1, Limit: 100, Offset: 0}, true},
		{"?page=abc&limit=xyz", Pagination{Page: 1, Limit: 20, Offset: 0}, true},
		{
			"?page=" + strconv.Itoa(math.MaxInt) + "&limit=20",
			Pagination{Page: math.MaxInt / 20, Limit: 20, Offset: (math.MaxInt/20 - 1) * 20},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := parseQuery(t, tt.query)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPagination_Bounds(t *testing.T) {
	p := Pagination{Page: 2, Limit: 5, Offset: 5}

	start, end := p.Bounds(12)
	assert.Equal(t, 5, start)
	assert.Equal(t, 10, end)

	start, end = p.Bounds(7)
	assert.Equal(t, 5, start)
	assert.Equal(t, 7, end)

	start, end = p.Bounds(3)
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)

	meta := p.Meta(12)
	assert.Equal(t, 3, meta["totalPages"])
}

func TestPagination_BoundsNeverLeaveRange(t *testing.T) {
	tests := []struct {
		name string
		p    Pagination
	}{
		{"huge page", mustParse(t, "?page="+strconv.Itoa(math.MaxInt)+"&limit=100")},
		{"overflowed offset", Pagination{Page: 2, Limit: 20, Offset: math.MinInt}},
		{"huge offset and limit", Pagination{Page: 1, Limit: math.MaxInt, Offset: math.MaxInt}},
		{"negative limit", Pagination{Page: 1, Limit: -5, Offset: 0}},
	}

	items := make([]int, 7)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.p.Bounds(len(items))
			assert.GreaterOrEqual(t, start, 0)
			assert.LessOrEqual(t, start, end)
			assert.LessOrEqual(t, end, len(items))
			assert.NotPanics(t, func() { _ = items[start:end] })
		})
	}
}

func mustParse(t *testing.T, query string) Pagination {
	t.Helper()
	p, ok := parseQuery(t, query)
	require.True(t, ok)
	return p
}
