package utils

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextWithQuery(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return c
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query string
		want  Page
	}{
		{"", Page{Number: 1, Size: 50}},
		{"page=3&limit=10", Page{Number: 3, Size: 10}},
		{"page=0&limit=-5", Page{Number: 1, Size: 50}},
		{"page=abc&limit=1000", Page{Number: 1, Size: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePage(contextWithQuery(tt.query), 50, 200))
		})
	}
}

func TestPageBounds(t *testing.T) {
	start, end := Page{Number: 2, Size: 10}.Bounds(25)
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)

	start, end = Page{Number: 3, Size: 10}.Bounds(25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = Page{Number: 9, Size: 10}.Bounds(25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)

	for _, p := range []Page{
		{Number: math.MaxInt, Size: 50},
		{Number: math.MaxInt / 2, Size: 4},
		{Number: 2, Size: math.MaxInt},
	} {
		start, end = p.Bounds(10)
		assert.Equal(t, 10, start, "%+v", p)
		assert.Equal(t, 10, end, "%+v", p)
	}

	start, end = Page{Number: 1, Size: math.MaxInt}.Bounds(10)
	assert.Equal(t, 0, start)
	assert.Equal(t, 10, end)
}

func TestNewPageMetadata(t *testing.T) {
	meta := NewPageMetadata(0, Page{Number: 1, Size: 20})
	assert.Equal(t, 1, meta.TotalPages)

	meta = NewPageMetadata(41, Page{Number: 2, Size: 20})
	assert.Equal(t, PageMetadata{TotalItems: 41, CurrentPage: 2, TotalPages: 3, ItemsPerPage: 20}, meta)
}

func TestNormalizeSort(t *testing.T) {
	assert.Equal(t, SortDesc, NormalizeSortDirection("DESC", SortAsc))
	assert.Equal(t, SortAsc, NormalizeSortDirection("sideways", SortAsc))
	assert.Equal(t, "pnl", NormalizeSortField(" PnL ", "time", "pnl"))
	assert.Equal(t, "time", NormalizeSortField("volume", "time", "pnl"))
	assert.Equal(t, "", NormalizeSortField("x"))
}
