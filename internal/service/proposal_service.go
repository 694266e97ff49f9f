package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/commission-api/internal/core/estimate"
	"github.com/noah-isme/commission-api/internal/core/options"
	"github.com/noah-isme/commission-api/internal/core/proposal"
	"github.com/noah-isme/commission-api/internal/dto"
	"github.com/noah-isme/commission-api/internal/models"
	"github.com/noah-isme/commission-api/internal/repository"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

const (
	defaultExpiryThreshold = 168 * time.Hour
	defaultExpiryBatch     = 500
)

type proposalStore interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	GetByID(ctx context.Context, id string) (*models.Proposal, error)
	List(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, int, error)
	UpdateContent(ctx context.Context, proposal *models.Proposal, expected models.ProposalStatus) (*models.Proposal, error)
	Transition(ctx context.Context, params repository.TransitionParams) (*models.Proposal, error)
	MarkFinalized(ctx context.Context, tx *sqlx.Tx, id, contractID string, at time.Time) (*models.Proposal, error)
	ListExpirable(ctx context.Context, statuses []models.ProposalStatus, asOf time.Time, limit int) ([]repository.ExpirableProposal, error)
	Expire(ctx context.Context, id string, statuses []models.ProposalStatus, asOf time.Time) (bool, error)
}

type proposalListingStore interface {
	GetByID(ctx context.Context, id string) (*models.CommissionListing, error)
	ConsumeSlot(ctx context.Context, tx *sqlx.Tx, id string) error
}

type contractStore interface {
	LatestActiveDeadline(ctx context.Context, artistID string) (*time.Time, error)
	Create(ctx context.Context, tx *sqlx.Tx, contract *models.Contract) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type referenceUploader interface {
	Validate(existing int, uploads []ReferenceUpload) error
	Store(ctx context.Context, uploads []ReferenceUpload) ([]string, error)
	Discard(urls []string)
	Owns(url string) bool
}

// ProposalService runs the proposal negotiation workflow.
type ProposalService struct {
	proposals  proposalStore
	listings   proposalListingStore
	contracts  contractStore
	tx         txProvider
	references referenceUploader
	cache      *CacheService
	events     *EventEmitter
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger

	now             func() time.Time
	expiryThreshold time.Duration
	expiryBatch     int
	estimateTTL     time.Duration
}

// ProposalServiceOption customises a ProposalService.
type ProposalServiceOption func(*ProposalService)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) ProposalServiceOption {
	return func(s *ProposalService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithExpiryThreshold sets how long a proposal may wait for a response.
func WithExpiryThreshold(threshold time.Duration) ProposalServiceOption {
	return func(s *ProposalService) {
		if threshold > 0 {
			s.expiryThreshold = threshold
		}
	}
}

// WithExpiryBatch sets how many proposals one sweep query loads.
func WithExpiryBatch(size int) ProposalServiceOption {
	return func(s *ProposalService) {
		if size > 0 {
			s.expiryBatch = size
		}
	}
}

// WithReferences enables reference image uploads.
func WithReferences(references referenceUploader) ProposalServiceOption {
	return func(s *ProposalService) { s.references = references }
}

// WithEstimateCache caches estimates served to readers.
func WithEstimateCache(cache *CacheService, ttl time.Duration) ProposalServiceOption {
	return func(s *ProposalService) {
		s.cache = cache
		s.estimateTTL = ttl
	}
}

// WithEvents publishes lifecycle events.
func WithEvents(events *EventEmitter) ProposalServiceOption {
	return func(s *ProposalService) { s.events = events }
}

// WithMetrics records transition metrics.
func WithMetrics(metrics *MetricsService) ProposalServiceOption {
	return func(s *ProposalService) { s.metrics = metrics }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ProposalServiceOption {
	return func(s *ProposalService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewProposalService constructs the service.
func NewProposalService(proposals proposalStore, listings proposalListingStore, contracts contractStore, tx txProvider, opts ...ProposalServiceOption) *ProposalService {
	s := &ProposalService{
		proposals:       proposals,
		listings:        listings,
		contracts:       contracts,
		tx:              tx,
		validator:       validator.New(),
		logger:          zap.NewNop(),
		now:             time.Now,
		expiryThreshold: defaultExpiryThreshold,
		expiryBatch:     defaultExpiryBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetDynamicEstimate returns the current availability window of a listing.
func (s *ProposalService) GetDynamicEstimate(ctx context.Context, listingID string) (*estimate.Window, error) {
	listing, err := s.loadListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if cached, hit := s.cache.Estimate(ctx, listing.ArtistID, listing.ID); hit {
		return cached, nil
	}
	window, err := s.computeWindow(ctx, listing, s.now())
	if err != nil {
		return nil, err
	}
	s.cache.StoreEstimate(ctx, listing.ArtistID, listing.ID, window, s.estimateTTL)
	return &window, nil
}

// CreateProposal submits a new proposal from the acting client.
func (s *ProposalService) CreateProposal(ctx context.Context, listingID string, req dto.ProposalRequest, uploads []ReferenceUpload, actor *models.JWTClaims) (*models.Proposal, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validatePayload(req, len(req.ReferenceImages), uploads); err != nil {
		return nil, err
	}
	if err := s.checkKeptReferences(req.ReferenceImages, nil); err != nil {
		return nil, err
	}
	listing, err := s.loadListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.ArtistID == actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "artists cannot propose on their own listing")
	}
	if !listing.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "listing is not accepting proposals")
	}
	if !listing.HasFreeSlot() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "listing has no free slots")
	}

	now := s.now().UTC()
	draft, err := s.prepare(ctx, listing, req, now)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.storeReferences(ctx, uploads)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(s.expiryThreshold)
	draft.ListingID = listing.ID
	draft.ArtistID = listing.ArtistID
	draft.ClientID = actor.UserID
	draft.Status = models.ProposalStatusPendingArtist
	draft.ReferenceImages = append(pq.StringArray{}, append(req.ReferenceImages, uploaded...)...)
	draft.ExpiresAt = &expiresAt
	draft.CreatedAt = now
	if err := s.proposals.Create(ctx, draft); err != nil {
		s.discardReferences(uploaded)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create proposal")
	}

	s.logger.Info("proposal created",
		zap.String("proposal_id", draft.ID),
		zap.String("listing_id", listing.ID),
		zap.String("client_id", actor.UserID))
	s.events.Emit(ctx, proposal.EventCreated, draft, "", now)
	return draft, nil
}

// UpdateProposal edits a proposal the artist has not answered yet. The
// window and deadline are recomputed exactly as on creation.
func (s *ProposalService) UpdateProposal(ctx context.Context, proposalID string, req dto.ProposalRequest, uploads []ReferenceUpload, actor *models.JWTClaims) (*models.Proposal, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validatePayload(req, len(req.ReferenceImages), uploads); err != nil {
		return nil, err
	}
	current, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if current.ClientID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the client can edit this proposal")
	}
	if err := proposal.CanEdit(current.Status); err != nil {
		return nil, err
	}
	if err := s.checkKeptReferences(req.ReferenceImages, current.ReferenceImages); err != nil {
		return nil, err
	}
	listing, err := s.loadListing(ctx, current.ListingID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	draft, err := s.prepare(ctx, listing, req, now)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.storeReferences(ctx, uploads)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(s.expiryThreshold)
	draft.ID = current.ID
	draft.ReferenceImages = append(pq.StringArray{}, append(req.ReferenceImages, uploaded...)...)
	draft.ExpiresAt = &expiresAt
	updated, err := s.proposals.UpdateContent(ctx, draft, models.ProposalStatusPendingArtist)
	if err != nil {
		s.discardReferences(uploaded)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "proposal is no longer editable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update proposal")
	}
	s.discardReferences(droppedReferences(current.ReferenceImages, updated.ReferenceImages))

	s.events.Emit(ctx, proposal.EventUpdated, updated, current.Status, now)
	return updated, nil
}

// ArtistRespond applies the listing artist's decision.
func (s *ProposalService) ArtistRespond(ctx context.Context, proposalID string, req dto.ArtistResponseRequest, actor *models.JWTClaims) (*models.Proposal, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid response payload")
	}
	decision := proposal.ArtistDecision{
		AcceptProposal:  req.AcceptProposal,
		RejectionReason: req.RejectionReason,
		Surcharge:       req.Surcharge,
		Discount:        req.Discount,
	}
	if err := proposal.ValidateArtistDecision(decision); err != nil {
		return nil, err
	}
	current, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if current.ArtistID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the listing artist can respond to this proposal")
	}
	now := s.now().UTC()
	outcome, err := proposal.PlanArtistResponse(current.Status, decision, now)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, current, outcome, now)
}

// ClientRespond applies the client's decision: a cancellation or an answer
// to the artist's adjustment.
func (s *ProposalService) ClientRespond(ctx context.Context, proposalID string, req dto.ClientResponseRequest, actor *models.JWTClaims) (*models.Proposal, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	current, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if current.ClientID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the client can respond to this proposal")
	}
	outcome, err := proposal.PlanClientResponse(current.Status, proposal.ClientDecision{
		Cancel:           req.Cancel,
		AcceptAdjustment: req.AcceptAdjustment,
	})
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, current, outcome, s.now().UTC())
}

// FinalizeProposal turns an accepted proposal into a contract. The contract
// insert, the slot consumption and the status change commit together.
func (s *ProposalService) FinalizeProposal(ctx context.Context, proposalID string, actor *models.JWTClaims) (result *models.Proposal, err error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	current, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if current.ClientID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the client can finalize this proposal")
	}
	if err := proposal.CanFinalize(current.Status); err != nil {
		return nil, err
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	now := s.now().UTC()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	contract := &models.Contract{
		ProposalID: current.ID,
		ListingID:  current.ListingID,
		ArtistID:   current.ArtistID,
		ClientID:   current.ClientID,
		Deadline:   current.Deadline,
		TotalPrice: current.TotalPrice(),
		Status:     models.ContractStatusActive,
		CreatedAt:  now,
	}
	if err = s.contracts.Create(ctx, tx, contract); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create contract")
		return nil, err
	}
	if err = s.listings.ConsumeSlot(ctx, tx, current.ListingID); err != nil {
		if errors.Is(err, repository.ErrNoFreeSlot) {
			err = appErrors.Clone(appErrors.ErrInvalidState, "listing has no free slots")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve listing slot")
		return nil, err
	}
	finalized, err := s.proposals.MarkFinalized(ctx, tx, current.ID, contract.ID, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrInvalidState, "proposal is no longer accepted")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize proposal")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit finalization")
		return nil, err
	}

	s.cache.InvalidateArtist(ctx, current.ArtistID)
	s.metrics.RecordTransition(current.Status, finalized.Status)
	s.logger.Info("proposal finalized",
		zap.String("proposal_id", finalized.ID),
		zap.String("contract_id", contract.ID))
	s.events.Emit(ctx, proposal.EventFinalized, finalized, current.Status, now)
	return finalized, nil
}

// ExpireOldProposals moves every proposal whose response window closed at
// asOf to expired and returns how many it changed. Records that fail are
// logged and left for the next run.
func (s *ProposalService) ExpireOldProposals(ctx context.Context, asOf time.Time) (int, error) {
	start := time.Now()
	asOf = asOf.UTC()
	statuses := proposal.ExpirableStatuses()
	expired := 0
	for {
		batch, err := s.proposals.ListExpirable(ctx, statuses, asOf, s.expiryBatch)
		if err != nil {
			return expired, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load expirable proposals")
		}
		changedInBatch := 0
		for _, item := range batch {
			if err := ctx.Err(); err != nil {
				s.metrics.ObserveSweep(expired, time.Since(start))
				return expired, err
			}
			changed, err := s.proposals.Expire(ctx, item.ID, statuses, asOf)
			if err != nil {
				s.logger.Warn("failed to expire proposal", zap.String("proposal_id", item.ID), zap.Error(err))
				continue
			}
			if !changed {
				continue
			}
			changedInBatch++
			s.metrics.RecordTransition(item.Status, models.ProposalStatusExpired)
			s.events.Emit(ctx, proposal.EventExpired, &models.Proposal{
				ID:        item.ID,
				ListingID: item.ListingID,
				ClientID:  item.ClientID,
				ArtistID:  item.ArtistID,
				Status:    models.ProposalStatusExpired,
			}, item.Status, asOf)
		}
		expired += changedInBatch
		if len(batch) < s.expiryBatch || changedInBatch == 0 {
			break
		}
	}
	s.metrics.ObserveSweep(expired, time.Since(start))
	if expired > 0 {
		s.logger.Info("expired proposals", zap.Int("count", expired), zap.Time("as_of", asOf))
	}
	return expired, nil
}

// Get returns a proposal to one of its participants.
func (s *ProposalService) Get(ctx context.Context, proposalID string, actor *models.JWTClaims) (*models.Proposal, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	current, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(current, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not a participant of this proposal")
	}
	return current, nil
}

// List returns the actor's proposals, as client by default or as artist.
func (s *ProposalService) List(ctx context.Context, query dto.ProposalQuery, actor *models.JWTClaims) ([]models.Proposal, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal query")
	}
	page, size := query.Page, query.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	filter := models.ProposalFilter{
		ListingID: query.ListingID,
		Status:    query.Status,
		Limit:     size,
		Offset:    (page - 1) * size,
	}
	if query.Role == "artist" {
		filter.ArtistID = actor.UserID
	} else {
		filter.ClientID = actor.UserID
	}
	items, total, err := s.proposals.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *ProposalService) apply(ctx context.Context, current *models.Proposal, outcome proposal.Outcome, now time.Time) (*models.Proposal, error) {
	if !proposal.CanTransition(outcome.From, outcome.To) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot move a proposal from %s to %s", outcome.From, outcome.To))
	}
	params := repository.TransitionParams{
		ID:                current.ID,
		From:              outcome.From,
		To:                outcome.To,
		SetAdjustment:     outcome.SetAdjustment,
		ProposedSurcharge: outcome.ProposedSurcharge,
		ProposedDiscount:  outcome.ProposedDiscount,
		ProposedDate:      outcome.ProposedDate,
		RejectionReason:   outcome.RejectionReason,
		At:                now,
	}
	if proposal.AwaitsResponse(outcome.To) {
		expiresAt := now.Add(s.expiryThreshold)
		params.ExpiresAt = &expiresAt
	}
	updated, err := s.proposals.Transition(ctx, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("proposal is no longer %s", outcome.From))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update proposal status")
	}
	s.metrics.RecordTransition(outcome.From, outcome.To)
	s.logger.Info("proposal transitioned",
		zap.String("proposal_id", updated.ID),
		zap.String("from", string(outcome.From)),
		zap.String("to", string(outcome.To)))
	s.events.Emit(ctx, outcome.Event, updated, outcome.From, now)
	return updated, nil
}

// prepare recomputes the window from the artist's current backlog, resolves
// the deadline and prices the chosen options.
func (s *ProposalService) prepare(ctx context.Context, listing *models.CommissionListing, req dto.ProposalRequest, now time.Time) (*models.Proposal, error) {
	window, err := s.computeWindow(ctx, listing, now)
	if err != nil {
		return nil, err
	}
	deadline, err := estimate.ResolveDeadline(listing.Mode, window, req.Deadline)
	if err != nil {
		return nil, err
	}
	resolution, err := options.ResolveProposalOptions(*listing, req.GeneralOptions, req.SubjectOptions)
	if err != nil {
		return nil, err
	}
	return &models.Proposal{
		BaseDate:           window.BaseDate,
		EarliestDate:       window.EarliestDate,
		LatestDate:         window.LatestDate,
		Deadline:           deadline,
		GeneralDescription: strings.TrimSpace(req.GeneralDescription),
		GeneralOptions:     resolution.General,
		SubjectOptions:     resolution.Subjects,
		CalculatedPrice:    resolution.CalculatedPrice,
	}, nil
}

func (s *ProposalService) computeWindow(ctx context.Context, listing *models.CommissionListing, now time.Time) (estimate.Window, error) {
	latest, err := s.contracts.LatestActiveDeadline(ctx, listing.ArtistID)
	if err != nil {
		return estimate.Window{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read artist backlog")
	}
	return estimate.ComputeDynamicEstimate(listing.DeadlinePolicy, estimate.BaseDate(now, latest))
}

func (s *ProposalService) validatePayload(req dto.ProposalRequest, existing int, uploads []ReferenceUpload) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}
	if len(uploads) > 0 && s.references == nil {
		return appErrors.Clone(appErrors.ErrValidation, "reference uploads are not enabled")
	}
	if s.references != nil {
		return s.references.Validate(existing, uploads)
	}
	return nil
}

func (s *ProposalService) storeReferences(ctx context.Context, uploads []ReferenceUpload) ([]string, error) {
	if len(uploads) == 0 || s.references == nil {
		return nil, nil
	}
	return s.references.Store(ctx, uploads)
}

// checkKeptReferences rejects stored images the proposal does not already
// carry. Each stored file belongs to exactly one proposal, so dropping it on
// a later edit cannot remove another proposal's image.
func (s *ProposalService) checkKeptReferences(kept, current []string) error {
	if s.references == nil {
		return nil
	}
	known := make(map[string]struct{}, len(current))
	for _, url := range current {
		known[url] = struct{}{}
	}
	for _, url := range kept {
		if !s.references.Owns(url) {
			continue
		}
		if _, ok := known[url]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "reference images must be uploaded with this proposal")
		}
	}
	return nil
}

func (s *ProposalService) discardReferences(urls []string) {
	if len(urls) == 0 || s.references == nil {
		return
	}
	owned := make([]string, 0, len(urls))
	for _, url := range urls {
		if s.references.Owns(url) {
			owned = append(owned, url)
		}
	}
	s.references.Discard(owned)
}

func (s *ProposalService) loadListing(ctx context.Context, id string) (*models.CommissionListing, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "listing id is required")
	}
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	return listing, nil
}

func (s *ProposalService) loadProposal(ctx context.Context, id string) (*models.Proposal, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposal id is required")
	}
	current, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	return current, nil
}

func isParticipant(p *models.Proposal, actor *models.JWTClaims) bool {
	return actor.Role == models.RoleAdmin || p.ClientID == actor.UserID || p.ArtistID == actor.UserID
}

func droppedReferences(before, after []string) []string {
	kept := make(map[string]struct{}, len(after))
	for _, url := range after {
		kept[url] = struct{}{}
	}
	dropped := make([]string, 0)
	for _, url := range before {
		if _, ok := kept[url]; !ok {
			dropped = append(dropped, url)
		}
	}
	return dropped
}
