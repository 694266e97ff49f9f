package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/commission-api/internal/models"
)

// ErrNoFreeSlot is returned when a bounded listing has no slot left.
var ErrNoFreeSlot = errors.New("listing has no free slot")

const listingColumns = `id, artist_id, title, description, type, flow, deadline_mode, deadline_min, deadline_max,
       deadline_unit, rush_fee, base_price, slots, slots_used, general_options, subject_options, milestones,
       active, deleted, created_at, updated_at`

// ListingRepository persists commission listings.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository constructs the repository.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create inserts a new listing.
func (r *ListingRepository) Create(ctx context.Context, listing *models.CommissionListing) error {
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now
	const query = `INSERT INTO commission_listings
	(id, artist_id, title, description, type, flow, deadline_mode, deadline_min, deadline_max, deadline_unit, rush_fee,
	 base_price, slots, slots_used, general_options, subject_options, milestones, active, deleted, created_at, updated_at)
	VALUES (:id, :artist_id, :title, :description, :type, :flow, :deadline_mode, :deadline_min, :deadline_max, :deadline_unit, :rush_fee,
	 :base_price, :slots, :slots_used, :general_options, :subject_options, :milestones, :active, :deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, listing); err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

// GetByID fetches a listing that has not been deleted.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*models.CommissionListing, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + listingColumns + ` FROM commission_listings WHERE id = $1 AND deleted = FALSE`
	var listing models.CommissionListing
	if err := r.db.GetContext(ctx, &listing, query, id); err != nil {
		return nil, err
	}
	return &listing, nil
}

// List returns listings matching the filter, newest first.
func (r *ListingRepository) List(ctx context.Context, filter models.ListingFilter) ([]models.CommissionListing, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(`SELECT ` + listingColumns + ` FROM commission_listings WHERE deleted = FALSE`)
	if filter.ArtistID != "" {
		args = append(args, filter.ArtistID)
		builder.WriteString(fmt.Sprintf(" AND artist_id = $%d", len(args)))
	}
	if filter.ActiveOnly {
		builder.WriteString(" AND active = TRUE")
	}
	builder.WriteString(" ORDER BY created_at DESC")
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", clampLimit(filter.Limit), clampOffset(filter.Offset)))

	var listings []models.CommissionListing
	if err := r.db.SelectContext(ctx, &listings, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

// Update replaces the editable columns of a listing. Slot usage is owned by
// ConsumeSlot and is never overwritten here.
func (r *ListingRepository) Update(ctx context.Context, listing *models.CommissionListing) error {
	listing.UpdatedAt = time.Now().UTC()
	const query = `UPDATE commission_listings SET
	title = :title, description = :description, type = :type, flow = :flow,
	deadline_mode = :deadline_mode, deadline_min = :deadline_min, deadline_max = :deadline_max,
	deadline_unit = :deadline_unit, rush_fee = :rush_fee, base_price = :base_price, slots = :slots,
	general_options = :general_options, subject_options = :subject_options, milestones = :milestones,
	active = :active, updated_at = :updated_at
	WHERE id = :id AND deleted = FALSE`
	result, err := r.db.NamedExecContext(ctx, query, listing)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return expectOneRow(result)
}

// ConsumeSlot takes one slot inside tx. Unbounded listings always succeed.
func (r *ListingRepository) ConsumeSlot(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `UPDATE commission_listings SET slots_used = slots_used + 1, updated_at = $2
	WHERE id = $1 AND deleted = FALSE AND (slots IS NULL OR slots_used < slots)`
	result, err := tx.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("consume listing slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume listing slot: %w", err)
	}
	if affected == 0 {
		return ErrNoFreeSlot
	}
	return nil
}

func expectOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
