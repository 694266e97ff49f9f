package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/commission-api/internal/dto"
	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

type listingServiceMock struct {
	req    dto.ListingRequest
	filter models.ListingFilter
	err    error
}

func (m *listingServiceMock) Create(ctx context.Context, req dto.ListingRequest, actor *models.JWTClaims) (*dto.ListingResponse, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ListingResponse{CommissionListing: models.CommissionListing{ID: "listing-1", ArtistID: actor.UserID, Title: req.Title}}, nil
}

func (m *listingServiceMock) Update(ctx context.Context, id string, req dto.ListingRequest, actor *models.JWTClaims) (*dto.ListingResponse, error) {
	return nil, m.err
}

func (m *listingServiceMock) Get(ctx context.Context, id string) (*dto.ListingResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ListingResponse{CommissionListing: models.CommissionListing{ID: id}}, nil
}

func (m *listingServiceMock) List(ctx context.Context, filter models.ListingFilter, actor *models.JWTClaims) ([]dto.ListingResponse, error) {
	m.filter = filter
	return []dto.ListingResponse{}, nil
}

func TestListingHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &listingServiceMock{}
	h := NewListingHandler(mockSvc)

	body := []byte(`{"title":"Portrait","type":"template","flow":"standard","basePrice":"1000",
		"deadline":{"mode":"standard","min":7,"max":21},
		"generalOptions":{"questions":["Pose?",{"title":"Palette"}]}}`)
	c, w := newGinContext(http.MethodPost, "/listings", body)
	withClaims(c, "artist-1", models.RoleArtist)

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "Portrait", mockSvc.req.Title)
	require.Len(t, mockSvc.req.GeneralOptions.Questions, 2)

	var data models.CommissionListing
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w)["data"], &data))
	require.Equal(t, "artist-1", data.ArtistID)
}

func TestListingHandlerRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewListingHandler(&listingServiceMock{})
	c, w := newGinContext(http.MethodPost, "/listings", []byte(`{"title":`))
	withClaims(c, "artist-1", models.RoleArtist)
	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListingHandlerGetAndList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &listingServiceMock{}
	h := NewListingHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/listings?artistId=artist-1&limit=5", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "artist-1", mockSvc.filter.ArtistID)
	require.Equal(t, 5, mockSvc.filter.Limit)

	mockSvc.err = appErrors.Clone(appErrors.ErrNotFound, "listing not found")
	c, w = newGinContext(http.MethodGet, "/listings/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
