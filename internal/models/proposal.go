package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProposalStatus captures the negotiation state of a proposal.
type ProposalStatus string

const (
	ProposalStatusPendingArtist  ProposalStatus = "pendingArtist"
	ProposalStatusPendingClient  ProposalStatus = "pendingClient"
	ProposalStatusAccepted       ProposalStatus = "accepted"
	ProposalStatusRejectedArtist ProposalStatus = "rejectedArtist"
	ProposalStatusRejectedClient ProposalStatus = "rejectedClient"
	ProposalStatusCancelled      ProposalStatus = "cancelled"
	ProposalStatusExpired        ProposalStatus = "expired"
	ProposalStatusFinalized      ProposalStatus = "finalized"
)

// Proposal is a client's request against a listing.
type Proposal struct {
	ID                 string           `db:"id" json:"id"`
	ListingID          string           `db:"listing_id" json:"listingId"`
	ArtistID           string           `db:"artist_id" json:"artistId"`
	ClientID           string           `db:"client_id" json:"clientId"`
	Status             ProposalStatus   `db:"status" json:"status"`
	BaseDate           time.Time        `db:"base_date" json:"baseDate"`
	EarliestDate       time.Time        `db:"earliest_date" json:"earliestDate"`
	LatestDate         time.Time        `db:"latest_date" json:"latestDate"`
	Deadline           time.Time        `db:"deadline" json:"deadline"`
	GeneralDescription string           `db:"general_description" json:"generalDescription"`
	ReferenceImages    pq.StringArray   `db:"reference_images" json:"referenceImages"`
	GeneralOptions     ProposalOptions  `db:"general_options" json:"generalOptions"`
	SubjectOptions     ProposalSubjects `db:"subject_options" json:"subjectOptions"`
	CalculatedPrice    decimal.Decimal  `db:"calculated_price" json:"calculatedPrice"`
	ProposedSurcharge  *decimal.Decimal `db:"proposed_surcharge" json:"proposedSurcharge,omitempty"`
	ProposedDiscount   *decimal.Decimal `db:"proposed_discount" json:"proposedDiscount,omitempty"`
	ProposedDate       *time.Time       `db:"proposed_date" json:"proposedDate,omitempty"`
	RejectionReason    *string          `db:"rejection_reason" json:"rejectionReason,omitempty"`
	ContractID         *string          `db:"contract_id" json:"contractId,omitempty"`
	ExpiresAt          *time.Time       `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updatedAt"`
}

// TotalPrice is the calculated price adjusted by the accepted surcharge and
// discount, never below zero.
func (p *Proposal) TotalPrice() decimal.Decimal {
	total := p.CalculatedPrice
	if p.ProposedSurcharge != nil {
		total = total.Add(*p.ProposedSurcharge)
	}
	if p.ProposedDiscount != nil {
		total = total.Sub(*p.ProposedDiscount)
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ProposalFilter constrains proposal queries.
type ProposalFilter struct {
	ClientID  string
	ArtistID  string
	ListingID string
	Status    []ProposalStatus
	Limit     int
	Offset    int
}
