package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/commission-api/internal/core/options"
	"github.com/noah-isme/commission-api/internal/dto"
	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

type listingStoreStub struct {
	items  map[string]*models.CommissionListing
	filter models.ListingFilter
}

func newListingStoreStub() *listingStoreStub {
	return &listingStoreStub{items: make(map[string]*models.CommissionListing)}
}

func (s *listingStoreStub) Create(ctx context.Context, listing *models.CommissionListing) error {
	if listing.ID == "" {
		listing.ID = fmt.Sprintf("listing-%d", len(s.items)+1)
	}
	copy := *listing
	s.items[listing.ID] = &copy
	return nil
}

func (s *listingStoreStub) GetByID(ctx context.Context, id string) (*models.CommissionListing, error) {
	l, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *l
	return &copy, nil
}

func (s *listingStoreStub) List(ctx context.Context, filter models.ListingFilter) ([]models.CommissionListing, error) {
	s.filter = filter
	out := make([]models.CommissionListing, 0)
	for _, l := range s.items {
		if filter.ActiveOnly && !l.Active {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (s *listingStoreStub) Update(ctx context.Context, listing *models.CommissionListing) error {
	if _, ok := s.items[listing.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *listing
	s.items[listing.ID] = &copy
	return nil
}

func validListingRequest() dto.ListingRequest {
	return dto.ListingRequest{
		Title:     " Portrait ",
		Type:      models.ListingTypeTemplate,
		Flow:      models.ListingFlowStandard,
		Deadline:  dto.DeadlinePolicyRequest{Mode: models.DeadlineModeStandard, Min: intPtr(7), Max: intPtr(21)},
		BasePrice: decimal.NewFromInt(1000),
		Slots:     intPtr(3),
		GeneralOptions: dto.ListingOptionsRequest{
			OptionGroups: []models.OptionGroup{{Title: "Size", Selections: []models.OptionSelection{
				{Label: "A4", Price: decimal.NewFromInt(200)},
				{Label: "A3", Price: decimal.NewFromInt(500)},
			}}},
			Addons:    []models.Addon{{Label: "Background", Price: decimal.NewFromInt(300)}},
			Questions: []options.RawQuestion{options.NewQuestion(0, "Pose?")},
		},
	}
}

func TestListingServiceCreate(t *testing.T) {
	store := newListingStoreStub()
	svc := NewListingService(store, nil, nil, nil)

	resp, err := svc.Create(context.Background(), validListingRequest(), testArtist)
	require.NoError(t, err)
	require.Equal(t, "Portrait", resp.Title)
	require.Equal(t, "artist-1", resp.ArtistID)
	require.True(t, resp.Active)
	require.Equal(t, models.TurnaroundDays, resp.Unit)
	require.Equal(t, 1, resp.GeneralOptions.OptionGroups[0].ID)
	require.Equal(t, 2, resp.GeneralOptions.OptionGroups[0].Selections[1].ID)
	require.Equal(t, 1, resp.GeneralOptions.Questions[0].ID)
	require.True(t, resp.PriceRange.Min.Equal(decimal.NewFromInt(1200)))
	require.True(t, resp.PriceRange.Max.Equal(decimal.NewFromInt(2000)))

	_, err = svc.Create(context.Background(), validListingRequest(), testClient)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestListingServiceRejectsInvalidPolicy(t *testing.T) {
	svc := NewListingService(newListingStoreStub(), nil, nil, nil)

	req := validListingRequest()
	req.Deadline.Min = intPtr(21)
	_, err := svc.Create(context.Background(), req, testArtist)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	req = validListingRequest()
	req.Deadline.Mode = "whenever"
	_, err = svc.Create(context.Background(), req, testArtist)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	req = validListingRequest()
	req.Flow = models.ListingFlowMilestone
	req.Milestones = []models.Milestone{{Title: "Sketch", Percent: 30}, {Title: "Final", Percent: 30}}
	_, err = svc.Create(context.Background(), req, testArtist)
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestListingServiceUpdate(t *testing.T) {
	store := newListingStoreStub()
	svc := NewListingService(store, nil, nil, nil)
	created, err := svc.Create(context.Background(), validListingRequest(), testArtist)
	require.NoError(t, err)
	store.items[created.ID].SlotsUsed = 2

	req := validListingRequest()
	req.Title = "Portrait v2"
	_, err = svc.Update(context.Background(), created.ID, req, &models.JWTClaims{UserID: "artist-2", Role: models.RoleArtist})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	updated, err := svc.Update(context.Background(), created.ID, req, testArtist)
	require.NoError(t, err)
	require.Equal(t, "Portrait v2", updated.Title)
	require.Equal(t, 2, updated.SlotsUsed)

	req.Slots = intPtr(1)
	_, err = svc.Update(context.Background(), created.ID, req, testArtist)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Update(context.Background(), "missing", validListingRequest(), testArtist)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestListingServiceListHidesInactiveFromOthers(t *testing.T) {
	store := newListingStoreStub()
	svc := NewListingService(store, nil, nil, nil)
	req := validListingRequest()
	inactive := false
	req.Active = &inactive
	_, err := svc.Create(context.Background(), req, testArtist)
	require.NoError(t, err)

	items, err := svc.List(context.Background(), models.ListingFilter{ArtistID: "artist-1"}, testClient)
	require.NoError(t, err)
	require.Empty(t, items)
	require.True(t, store.filter.ActiveOnly)

	items, err = svc.List(context.Background(), models.ListingFilter{ArtistID: "artist-1"}, testArtist)
	require.NoError(t, err)
	require.Len(t, items, 1)
}
