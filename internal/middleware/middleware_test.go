package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

type validatorStub struct{}

func (validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "artist":
		return &models.JWTClaims{UserID: "artist-1", Role: models.RoleArtist}, nil
	case "admin":
		return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path, o.status = path, status
}

func newTestRouter(observer RequestObserver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/me/:id", JWT(validatorStub{}), func(c *gin.Context) {
		value, _ := c.Get(ContextUserKey)
		c.JSON(http.StatusOK, gin.H{"user": value.(*models.JWTClaims).UserID})
	})
	r.POST("/admin", JWT(validatorStub{}), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func serve(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAndRoles(t *testing.T) {
	observer := &observerStub{}
	r := newTestRouter(observer)

	require.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me/1", "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me/1", "bogus").Code)

	rec := serve(r, http.MethodGet, "/me/1", "artist")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"user":"artist-1"}`, rec.Body.String())
	require.Equal(t, "/me/:id", observer.path)

	require.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/admin", "artist").Code)
	require.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/admin", "admin").Code)
	require.Equal(t, http.StatusNoContent, observer.status)
}

func TestOptionalJWTIgnoresBadTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", OptionalJWT(validatorStub{}), func(c *gin.Context) {
		_, exists := c.Get(ContextUserKey)
		c.JSON(http.StatusOK, gin.H{"authenticated": exists})
	})

	require.JSONEq(t, `{"authenticated":false}`, serve(r, http.MethodGet, "/", "bogus").Body.String())
	require.JSONEq(t, `{"authenticated":true}`, serve(r, http.MethodGet, "/", "artist").Body.String())
}

func TestBearerToken(t *testing.T) {
	_, ok := bearerToken("Basic abc")
	require.False(t, ok)
	_, ok = bearerToken("Bearer ")
	require.False(t, ok)
	token, ok := bearerToken("bearer abc")
	require.True(t, ok)
	require.Equal(t, "abc", token)
}
