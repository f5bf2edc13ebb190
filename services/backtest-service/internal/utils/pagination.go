package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Page is a validated page request over an in-memory list
type Page struct {
	Number int
	Size   int
}

// ParsePage reads "page" and "limit" from the query string. Out-of-range
// values fall back to page 1 and defaultSize, and sizes are capped at maxSize.
func ParsePage(c *gin.Context, defaultSize, maxSize int) Page {
	number, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSize)))

	if number < 1 {
		number = 1
	}

	if size < 1 {
		size = defaultSize
	} else if size > maxSize {
		size = maxSize
	}

	return Page{Number: number, Size: size}
}

// Bounds returns the half-open [start, end) slice range of the page within
// a list of total items. Pages past the end yield an empty range.
func (p Page) Bounds(total int) (int, int) {
	// compare before multiplying so huge page numbers cannot overflow
	if p.Number < 1 || p.Size < 1 || p.Number-1 > total/p.Size {
		return total, total
	}
	start := (p.Number - 1) * p.Size
	end := total
	if total-start > p.Size {
		end = start + p.Size
	}
	return start, end
}

// TotalPages returns how many pages total items span, at least one
func TotalPages(total, size int) int {
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	return pages
}

// PageMetadata describes the page returned in a list response
type PageMetadata struct {
	TotalItems   int `json:"totalItems"`
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NewPageMetadata creates page metadata for a list of total items
func NewPageMetadata(total int, p Page) PageMetadata {
	return PageMetadata{
		TotalItems:   total,
		CurrentPage:  p.Number,
		TotalPages:   TotalPages(total, p.Size),
		ItemsPerPage: p.Size,
	}
}

// SendPage writes a paginated list response
func SendPage(c *gin.Context, statusCode int, data interface{}, total int, p Page) {
	c.JSON(statusCode, gin.H{
		"data":       data,
		"pagination": NewPageMetadata(total, p),
	})
}

// SendError writes an error response
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}
