package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/commission-api/internal/service"
	"github.com/noah-isme/commission-api/pkg/storage"
)

func TestReferenceHandlerServe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	_, err = store.Save("proposals/abc/1.png", bytes.NewReader([]byte("\x89PNG\r\n\x1a\n")))
	require.NoError(t, err)
	h := NewReferenceHandler(service.NewReferenceService(store, service.ReferenceConfig{}, nil))

	c, w := newGinContext(http.MethodGet, "/references/proposals/abc/1.png", nil)
	c.Params = gin.Params{{Key: "key", Value: "/proposals/abc/1.png"}}
	h.Serve(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.Equal(t, 8, w.Body.Len())

	c, w = newGinContext(http.MethodGet, "/references/missing.png", nil)
	c.Params = gin.Params{{Key: "key", Value: "/missing.png"}}
	h.Serve(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{
		"database": PingFunc(func(ctx context.Context) error { return nil }),
	})
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]Pinger{
		"redis": PingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "connection refused")

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
