package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/commission-api/internal/service"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
	"github.com/noah-isme/commission-api/pkg/response"
)

type referenceOpener interface {
	Open(key string) (*service.ReferenceFile, error)
}

// ReferenceHandler serves stored proposal reference images.
type ReferenceHandler struct {
	service referenceOpener
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(service referenceOpener) *ReferenceHandler {
	return &ReferenceHandler{service: service}
}

// Serve godoc
// @Summary Fetch a reference image
// @Tags References
// @Produce octet-stream
// @Param key path string true "Storage key"
// @Success 200 {file} binary
// @Router /references/{key} [get]
func (h *ReferenceHandler) Serve(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "reference storage not configured"))
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "reference not found"))
		return
	}
	file, err := h.service.Open(key)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.File.Close() //nolint:errcheck

	info, err := file.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat reference"))
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, info.Size(), file.MimeType, file.File, nil)
}
