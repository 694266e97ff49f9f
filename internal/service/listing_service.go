package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/commission-api/internal/core/estimate"
	"github.com/noah-isme/commission-api/internal/core/options"
	"github.com/noah-isme/commission-api/internal/dto"
	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

type listingStore interface {
	Create(ctx context.Context, listing *models.CommissionListing) error
	GetByID(ctx context.Context, id string) (*models.CommissionListing, error)
	List(ctx context.Context, filter models.ListingFilter) ([]models.CommissionListing, error)
	Update(ctx context.Context, listing *models.CommissionListing) error
}

// ListingService manages commission listings.
type ListingService struct {
	repo      listingStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewListingService constructs the service.
func NewListingService(repo listingStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ListingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create publishes a new listing owned by the acting artist.
func (s *ListingService) Create(ctx context.Context, req dto.ListingRequest, actor *models.JWTClaims) (*dto.ListingResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleArtist && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only artists can publish listings")
	}
	listing, err := s.buildListing(req)
	if err != nil {
		return nil, err
	}
	listing.ArtistID = actor.UserID
	listing.Active = req.Active == nil || *req.Active
	if err := options.ValidateListing(listing); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &listing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create listing")
	}
	s.logger.Info("listing created", zap.String("listing_id", listing.ID), zap.String("artist_id", listing.ArtistID))
	return listingResponse(listing), nil
}

// Update replaces the editable content of a listing owned by the actor.
func (s *ListingService) Update(ctx context.Context, id string, req dto.ListingRequest, actor *models.JWTClaims) (*dto.ListingResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	next, err := s.buildListing(req)
	if err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.ArtistID != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "listing belongs to another artist")
	}

	next.ID = current.ID
	next.ArtistID = current.ArtistID
	next.SlotsUsed = current.SlotsUsed
	next.CreatedAt = current.CreatedAt
	next.Active = current.Active
	if req.Active != nil {
		next.Active = *req.Active
	}
	if err := options.ValidateListing(next); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &next); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update listing")
	}
	s.cache.InvalidateListing(ctx, next.ArtistID, next.ID)
	return listingResponse(next), nil
}

// Get returns a listing with its price range.
func (s *ListingService) Get(ctx context.Context, id string) (*dto.ListingResponse, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return listingResponse(*listing), nil
}

// List returns listings, active ones only unless the actor owns them.
func (s *ListingService) List(ctx context.Context, filter models.ListingFilter, actor *models.JWTClaims) ([]dto.ListingResponse, error) {
	if actor == nil || filter.ArtistID != actor.UserID {
		filter.ActiveOnly = true
	}
	listings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list listings")
	}
	out := make([]dto.ListingResponse, 0, len(listings))
	for _, listing := range listings {
		out = append(out, *listingResponse(listing))
	}
	return out, nil
}

func (s *ListingService) load(ctx context.Context, id string) (*models.CommissionListing, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "listing id is required")
	}
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	return listing, nil
}

func (s *ListingService) buildListing(req dto.ListingRequest) (models.CommissionListing, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.CommissionListing{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload")
	}
	subjects := make(models.SubjectOptions, 0, len(req.SubjectOptions))
	for _, subject := range req.SubjectOptions {
		subjects = append(subjects, models.SubjectOption{
			ID:             subject.ID,
			Title:          subject.Title,
			ListingOptions: subject.ListingOptionsRequest.ToModel(),
		})
	}
	listing := options.NormalizeListing(models.CommissionListing{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        req.Type,
		Flow:        req.Flow,
		DeadlinePolicy: models.DeadlinePolicy{
			Mode:    req.Deadline.Mode,
			Min:     req.Deadline.Min,
			Max:     req.Deadline.Max,
			Unit:    req.Deadline.Unit,
			RushFee: req.Deadline.RushFee,
		},
		BasePrice:      req.BasePrice,
		Slots:          req.Slots,
		GeneralOptions: req.GeneralOptions.ToModel(),
		SubjectOptions: subjects,
		Milestones:     req.Milestones,
	})
	if listing.Flow != models.ListingFlowMilestone {
		listing.Milestones = models.Milestones{}
	}
	// a listing must be able to produce a window the day it is published
	if _, err := estimate.ComputeDynamicEstimate(listing.DeadlinePolicy, time.Now()); err != nil {
		return models.CommissionListing{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid deadline policy: %s", appErrors.FromError(err).Message))
	}
	return listing, nil
}

func listingResponse(listing models.CommissionListing) *dto.ListingResponse {
	return &dto.ListingResponse{
		CommissionListing: listing,
		PriceRange:        options.ComputePriceRange(listing.BasePrice, listing.GeneralOptions, listing.SubjectOptions),
	}
}
