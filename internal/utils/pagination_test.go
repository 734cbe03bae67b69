// internal/utils/pagination_test.go
package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestContext(url string) *gin.Context {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, url, nil)
	return c
}

func TestGetPaginationParamsDefaults(t *testing.T) {
	c := newTestContext("/offers")
	params := GetPaginationParams(c)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 50, params.Limit)
	assert.Equal(t, "created_at", params.Sort)
	assert.Equal(t, "desc", params.Order)
}

func TestGetPaginationParamsClampsOutOfRangeValues(t *testing.T) {
	c := newTestContext("/offers?page=0&limit=10000&order=sideways")
	params := GetPaginationParams(c)
	assert.Equal(t, 1, params.Page, "non-positive page falls back to 1")
	assert.Equal(t, 50, params.Limit, "limit outside [1,500] falls back to the default")
	assert.Equal(t, "desc", params.Order, "unrecognized order falls back to desc")
}

func TestGetPaginationParamsHonorsValidOverrides(t *testing.T) {
	c := newTestContext("/offers?page=3&limit=25&order=asc&sort=price")
	params := GetPaginationParams(c)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 25, params.Limit)
	assert.Equal(t, "asc", params.Order)
	assert.Equal(t, "price", params.Sort)
}

func TestCreatePaginationResult(t *testing.T) {
	result := CreatePaginationResult([]int{1, 2, 3}, 101, PaginationParams{Page: 2, Limit: 50})
	assert.Equal(t, int64(101), result.Total)
	assert.Equal(t, 3, result.TotalPages)
}
