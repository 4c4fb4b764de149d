package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// GetPage reads the page/page_size query params, clamping to sane values.
func GetPage(ctx *gin.Context) Page {
	page := Page{Number: 1, Size: defaultPageSize}

	if raw := ctx.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Number = n
		}
	}

	if raw := ctx.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Size = n
			if page.Size > maxPageSize {
				page.Size = maxPageSize
			}
		}
	}

	return page
}

type PaginatedResponse struct {
	Count   int64       `json:"count"`
	Results interface{} `json:"results"`
}
