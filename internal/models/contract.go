package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus tracks delivery of finalized work.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// Contract is the binding agreement produced when a proposal is finalized.
type Contract struct {
	ID         string          `db:"id" json:"id"`
	ProposalID string          `db:"proposal_id" json:"proposalId"`
	ListingID  string          `db:"listing_id" json:"listingId"`
	ArtistID   string          `db:"artist_id" json:"artistId"`
	ClientID   string          `db:"client_id" json:"clientId"`
	Deadline   time.Time       `db:"deadline" json:"deadline"`
	TotalPrice decimal.Decimal `db:"total_price" json:"totalPrice"`
	Status     ContractStatus  `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}
