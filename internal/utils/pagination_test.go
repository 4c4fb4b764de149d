package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func pageFor(t *testing.T, query string) Page {
	t.Helper()

	gin.SetMode(gin.TestMode)

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest("GET", "/?"+query, nil)

	return GetPage(ctx)
}

func TestGetPageDefaults(t *testing.T) {
	page := pageFor(t, "")
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, defaultPageSize, page.Size)
	assert.Equal(t, 0, page.Offset())
}

func TestGetPageParsesParams(t *testing.T) {
	page := pageFor(t, "page=3&page_size=20")
	assert.Equal(t, 3, page.Number)
	assert.Equal(t, 20, page.Size)
	assert.Equal(t, 40, page.Offset())
}

func TestGetPageClampsBadInput(t *testing.T) {
	page := pageFor(t, "page=-1&page_size=10000")
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, maxPageSize, page.Size)

	page = pageFor(t, "page=abc&page_size=xyz")
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, defaultPageSize, page.Size)
}
