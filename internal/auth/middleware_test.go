package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"foodgram/backend/internal/config"
	"foodgram/backend/internal/database"
	"foodgram/backend/internal/database/dbtest"
	"foodgram/backend/internal/models"
	"foodgram/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	prevCfg, prevDB := config.AppConfig, database.DB
	config.AppConfig = &config.Config{JWTSecret: "test-secret", JWTTTL: time.Hour}
	database.DB = dbtest.New(t)
	t.Cleanup(func() { config.AppConfig, database.DB = prevCfg, prevDB })

	echo := func(c *gin.Context) {
		c.String(http.StatusOK, strconv.Itoa(int(CurrentUserID(c))))
	}

	r := gin.New()
	r.GET("/required", AuthMiddleware(), echo)
	r.GET("/optional", OptionalAuthMiddleware(), echo)
	r.GET("/admin", AuthMiddleware(), AdminMiddleware(), echo)
	return r
}

func do(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := setup(t)
	token, err := jwt.GenerateToken(7)
	require.NoError(t, err)

	w := do(r, "/required", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/required", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/required", "garbage").Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	r := setup(t)
	token, err := jwt.GenerateToken(7)
	require.NoError(t, err)

	assert.Equal(t, "7", do(r, "/optional", token).Body.String())
	assert.Equal(t, "0", do(r, "/optional", "").Body.String())
	assert.Equal(t, "0", do(r, "/optional", "garbage").Body.String())
}

func TestAdminMiddleware(t *testing.T) {
	r := setup(t)
	user := dbtest.CreateUser(t, database.DB, "regular")
	admin := dbtest.CreateUser(t, database.DB, "boss")
	require.NoError(t, database.DB.Model(&admin).Update("role", models.RoleAdmin).Error)

	userToken, err := jwt.GenerateToken(user.ID)
	require.NoError(t, err)
	adminToken, err := jwt.GenerateToken(admin.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", userToken).Code)
	assert.Equal(t, http.StatusOK, do(r, "/admin", adminToken).Code)
}
