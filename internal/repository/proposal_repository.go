package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/commission-api/internal/models"
)

const proposalColumns = `id, listing_id, artist_id, client_id, status, base_date, earliest_date, latest_date, deadline,
       general_description, reference_images, general_options, subject_options, calculated_price,
       proposed_surcharge, proposed_discount, proposed_date, rejection_reason, contract_id, expires_at,
       created_at, updated_at`

// ProposalRepository persists proposals. Every status change is a
// conditional update on the status the caller last observed; when no row
// matches, sql.ErrNoRows is returned.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository constructs the repository.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create inserts a new proposal.
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	if proposal.ID == "" {
		proposal.ID = uuid.NewString()
	}
	if proposal.ReferenceImages == nil {
		proposal.ReferenceImages = pq.StringArray{}
	}
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = time.Now().UTC()
	}
	proposal.UpdatedAt = proposal.CreatedAt
	const query = `INSERT INTO proposals
	(id, listing_id, artist_id, client_id, status, base_date, earliest_date, latest_date, deadline,
	 general_description, reference_images, general_options, subject_options, calculated_price,
	 proposed_surcharge, proposed_discount, proposed_date, rejection_reason, contract_id, expires_at, created_at, updated_at)
	VALUES (:id, :listing_id, :artist_id, :client_id, :status, :base_date, :earliest_date, :latest_date, :deadline,
	 :general_description, :reference_images, :general_options, :subject_options, :calculated_price,
	 :proposed_surcharge, :proposed_discount, :proposed_date, :rejection_reason, :contract_id, :expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, proposal); err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

// GetByID fetches a proposal by identifier.
func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*models.Proposal, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
	var proposal models.Proposal
	if err := r.db.GetContext(ctx, &proposal, query, id); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// List returns proposals matching the filter, newest first, with the total
// count for pagination.
func (r *ProposalRepository) List(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, int, error) {
	if filter.ListingID != "" && !isUUID(filter.ListingID) {
		return []models.Proposal{}, 0, nil
	}
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.ArtistID != "" {
		args = append(args, filter.ArtistID)
		conditions = append(conditions, fmt.Sprintf("artist_id = $%d", len(args)))
	}
	if filter.ListingID != "" {
		args = append(args, filter.ListingID)
		conditions = append(conditions, fmt.Sprintf("listing_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		args = append(args, pq.Array(statusStrings(filter.Status)))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM proposals`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count proposals: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM proposals%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		proposalColumns, where, clampLimit(filter.Limit), clampOffset(filter.Offset))
	var proposals []models.Proposal
	if err := r.db.SelectContext(ctx, &proposals, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, total, nil
}

// UpdateContent rewrites the client-editable fields and the recomputed
// window while the proposal is still in the expected status.
func (r *ProposalRepository) UpdateContent(ctx context.Context, proposal *models.Proposal, expected models.ProposalStatus) (*models.Proposal, error) {
	query := `UPDATE proposals SET
	base_date = $3, earliest_date = $4, latest_date = $5, deadline = $6, general_description = $7,
	reference_images = $8, general_options = $9, subject_options = $10, calculated_price = $11,
	expires_at = $12, updated_at = $13
	WHERE id = $1 AND status = $2
	RETURNING ` + proposalColumns
	var updated models.Proposal
	err := r.db.QueryRowxContext(ctx, query,
		proposal.ID, expected,
		proposal.BaseDate, proposal.EarliestDate, proposal.LatestDate, proposal.Deadline, proposal.GeneralDescription,
		proposal.ReferenceImages, proposal.GeneralOptions, proposal.SubjectOptions, proposal.CalculatedPrice,
		proposal.ExpiresAt, time.Now().UTC(),
	).StructScan(&updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// TransitionParams describes a single status change.
type TransitionParams struct {
	ID   string
	From models.ProposalStatus
	To   models.ProposalStatus

	// SetAdjustment overwrites the three adjustment columns, nil clearing them.
	SetAdjustment     bool
	ProposedSurcharge *decimal.Decimal
	ProposedDiscount  *decimal.Decimal
	ProposedDate      *time.Time

	RejectionReason *string
	ExpiresAt       *time.Time
	At              time.Time
}

// Transition moves a proposal from params.From to params.To.
func (r *ProposalRepository) Transition(ctx context.Context, params TransitionParams) (*models.Proposal, error) {
	setParts := []string{"status = $3", "expires_at = $4", "updated_at = $5"}
	args := []interface{}{params.ID, params.From, params.To, params.ExpiresAt, params.At}
	if params.SetAdjustment {
		args = append(args, params.ProposedSurcharge, params.ProposedDiscount, params.ProposedDate)
		setParts = append(setParts,
			fmt.Sprintf("proposed_surcharge = $%d", len(args)-2),
			fmt.Sprintf("proposed_discount = $%d", len(args)-1),
			fmt.Sprintf("proposed_date = $%d", len(args)),
		)
	}
	if params.RejectionReason != nil {
		args = append(args, *params.RejectionReason)
		setParts = append(setParts, fmt.Sprintf("rejection_reason = $%d", len(args)))
	}
	query := fmt.Sprintf(`UPDATE proposals SET %s WHERE id = $1 AND status = $2 RETURNING %s`,
		strings.Join(setParts, ", "), proposalColumns)

	var updated models.Proposal
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// MarkFinalized closes an accepted proposal inside tx and links the contract.
func (r *ProposalRepository) MarkFinalized(ctx context.Context, tx *sqlx.Tx, id, contractID string, at time.Time) (*models.Proposal, error) {
	query := `UPDATE proposals SET status = $2, contract_id = $3, expires_at = NULL, updated_at = $4
	WHERE id = $1 AND status = $5
	RETURNING ` + proposalColumns
	var updated models.Proposal
	err := tx.QueryRowxContext(ctx, query, id, models.ProposalStatusFinalized, contractID, at, models.ProposalStatusAccepted).
		StructScan(&updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ExpirableProposal is the minimal projection the sweeper needs.
type ExpirableProposal struct {
	ID        string                `db:"id"`
	Status    models.ProposalStatus `db:"status"`
	ListingID string                `db:"listing_id"`
	ClientID  string                `db:"client_id"`
	ArtistID  string                `db:"artist_id"`
}

// ListExpirable returns proposals awaiting a response whose expiry passed at asOf.
func (r *ProposalRepository) ListExpirable(ctx context.Context, statuses []models.ProposalStatus, asOf time.Time, limit int) ([]ExpirableProposal, error) {
	if limit <= 0 {
		limit = 500
	}
	const query = `SELECT id, status, listing_id, client_id, artist_id FROM proposals
	WHERE status = ANY($1) AND expires_at IS NOT NULL AND expires_at <= $2
	ORDER BY expires_at ASC LIMIT $3`
	var items []ExpirableProposal
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(statusStrings(statuses)), asOf, limit); err != nil {
		return nil, fmt.Errorf("list expirable proposals: %w", err)
	}
	return items, nil
}

// Expire moves one proposal to expired if it still qualifies at asOf. It
// reports whether a row changed so reruns count nothing twice.
func (r *ProposalRepository) Expire(ctx context.Context, id string, statuses []models.ProposalStatus, asOf time.Time) (bool, error) {
	const query = `UPDATE proposals SET status = $2, updated_at = $3
	WHERE id = $1 AND status = ANY($4) AND expires_at IS NOT NULL AND expires_at <= $3`
	result, err := r.db.ExecContext(ctx, query, id, models.ProposalStatusExpired, asOf, pq.Array(statusStrings(statuses)))
	if err != nil {
		return false, fmt.Errorf("expire proposal %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("expire proposal %s: %w", id, err)
	}
	return affected > 0, nil
}

func statusStrings(statuses []models.ProposalStatus) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}

// isUUID reports whether id can match a UUID column. Anything else would make
// Postgres fail the cast instead of finding no row.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
