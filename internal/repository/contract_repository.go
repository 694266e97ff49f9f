package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/commission-api/internal/models"
)

// ContractRepository covers the two contract touch points of the proposal
// workflow: reading an artist's backlog and writing new contracts.
type ContractRepository struct {
	db *sqlx.DB
}

// NewContractRepository constructs the repository.
func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// LatestActiveDeadline returns the furthest deadline among the artist's
// active contracts, or nil when the backlog is empty.
func (r *ContractRepository) LatestActiveDeadline(ctx context.Context, artistID string) (*time.Time, error) {
	const query = `SELECT MAX(deadline) FROM contracts WHERE artist_id = $1 AND status = $2`
	var deadline sql.NullTime
	if err := r.db.GetContext(ctx, &deadline, query, artistID, models.ContractStatusActive); err != nil {
		return nil, fmt.Errorf("latest contract deadline: %w", err)
	}
	if !deadline.Valid {
		return nil, nil
	}
	value := deadline.Time.UTC()
	return &value, nil
}

// Create inserts the contract inside tx.
func (r *ContractRepository) Create(ctx context.Context, tx *sqlx.Tx, contract *models.Contract) error {
	if contract.ID == "" {
		contract.ID = uuid.NewString()
	}
	if contract.Status == "" {
		contract.Status = models.ContractStatusActive
	}
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO contracts (id, proposal_id, listing_id, artist_id, client_id, deadline, total_price, status, created_at)
	VALUES (:id, :proposal_id, :listing_id, :artist_id, :client_id, :deadline, :total_price, :status, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, contract); err != nil {
		return fmt.Errorf("create contract: %w", err)
	}
	return nil
}
