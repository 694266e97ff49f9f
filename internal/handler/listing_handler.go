package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/commission-api/internal/dto"
	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
	"github.com/noah-isme/commission-api/pkg/response"
)

type listingService interface {
	Create(ctx context.Context, req dto.ListingRequest, actor *models.JWTClaims) (*dto.ListingResponse, error)
	Update(ctx context.Context, id string, req dto.ListingRequest, actor *models.JWTClaims) (*dto.ListingResponse, error)
	Get(ctx context.Context, id string) (*dto.ListingResponse, error)
	List(ctx context.Context, filter models.ListingFilter, actor *models.JWTClaims) ([]dto.ListingResponse, error)
}

// ListingHandler manages commission listing endpoints.
type ListingHandler struct {
	service listingService
}

// NewListingHandler constructs the handler.
func NewListingHandler(service listingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// Create godoc
// @Summary Publish a commission listing
// @Tags Listings
// @Accept json
// @Produce json
// @Param payload body dto.ListingRequest true "Listing"
// @Success 201 {object} response.Envelope
// @Router /listings [post]
func (h *ListingHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "listing service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload"))
		return
	}
	listing, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, listing)
}

// Update godoc
// @Summary Replace a commission listing
// @Tags Listings
// @Accept json
// @Produce json
// @Param id path string true "Listing ID"
// @Param payload body dto.ListingRequest true "Listing"
// @Success 200 {object} response.Envelope
// @Router /listings/{id} [put]
func (h *ListingHandler) Update(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "listing service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload"))
		return
	}
	listing, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing, nil)
}

// Get godoc
// @Summary Get a listing with its price range
// @Tags Listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Router /listings/{id} [get]
func (h *ListingHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "listing service not configured"))
		return
	}
	listing, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing, nil)
}

// List godoc
// @Summary List listings
// @Tags Listings
// @Produce json
// @Param artistId query string false "Artist filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /listings [get]
func (h *ListingHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "listing service not configured"))
		return
	}
	filter := models.ListingFilter{ArtistID: strings.TrimSpace(c.Query("artistId"))}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))
	items, err := h.service.List(c.Request.Context(), filter, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
