package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"foodgram/backend/internal/config"
	"foodgram/backend/internal/media"
	"foodgram/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestPageParams(t *testing.T) {
	prev := config.AppConfig
	config.AppConfig = &config.Config{PageSize: 6}
	t.Cleanup(func() { config.AppConfig = prev })

	tests := []struct {
		query       string
		page, limit int
	}{
		{"", 1, 6},
		{"?page=3&limit=10", 3, 10},
		{"?page=0&limit=-1", 1, 6},
		{"?page=x&limit=y", 1, 6},
		{"?limit=1000", 1, maxPageSize},
	}
	for _, tt := range tests {
		c, _ := testContext("/items" + tt.query)
		page, limit := pageParams(c)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.limit, limit, tt.query)
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse[int](nil, 13, 2, 6)
	assert.Equal(t, []int{}, resp.Data)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 2, resp.Meta.CurrentPage)
}

func TestRespondError(t *testing.T) {
	verr := &service.ValidationError{}
	verr.Add("name", "this field is required")

	tests := []struct {
		err    error
		status int
	}{
		{verr, http.StatusBadRequest},
		{service.ErrSelfReference, http.StatusBadRequest},
		{service.ErrDuplicate, http.StatusBadRequest},
		{media.ErrInvalidImage, http.StatusBadRequest},
		{service.ErrNotFound, http.StatusNotFound},
		{errForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		c, w := testContext("/")
		respondError(c, tt.err)
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
	}

	c, w := testContext("/")
	respondError(c, verr)
	assert.JSONEq(t, `{"error":"validation failed","fields":{"name":["this field is required"]}}`, w.Body.String())
}

func TestParseID(t *testing.T) {
	c, w := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := parseID(c, "id")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	for _, raw := range []string{"0", "-1", "abc"} {
		c, w = testContext("/")
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, ok = parseID(c, "id")
		assert.False(t, ok, raw)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestSplitCommaSeparated(t *testing.T) {
	assert.Equal(t, []string{"lunch", "dinner"}, splitCommaSeparated(" lunch, ,dinner "))
	assert.Empty(t, splitCommaSeparated(""))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
