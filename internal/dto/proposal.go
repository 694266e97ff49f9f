package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/commission-api/internal/core/estimate"
	"github.com/noah-isme/commission-api/internal/models"
)

// ProposalRequest is the client payload for creating or editing a proposal.
// ReferenceImages lists already uploaded image URLs to keep; new files are
// sent as multipart parts next to it.
type ProposalRequest struct {
	GeneralDescription string                  `json:"generalDescription" validate:"required,max=5000"`
	Deadline           *time.Time              `json:"deadline"`
	GeneralOptions     models.ProposalOptions  `json:"generalOptions"`
	SubjectOptions     models.ProposalSubjects `json:"subjectOptions"`
	ReferenceImages    []string                `json:"referenceImages" validate:"omitempty,dive,url"`
}

// ArtistResponseRequest carries the artist's decision on a proposal.
type ArtistResponseRequest struct {
	AcceptProposal  bool             `json:"acceptProposal"`
	RejectionReason string           `json:"rejectionReason" validate:"max=2000"`
	Surcharge       *decimal.Decimal `json:"surcharge"`
	Discount        *decimal.Decimal `json:"discount"`
}

// ClientResponseRequest carries the client's decision on an adjustment.
type ClientResponseRequest struct {
	Cancel           bool `json:"cancel"`
	AcceptAdjustment bool `json:"acceptAdjustment"`
}

// ExpireRequest triggers a sweep as of the given time, now when omitted.
type ExpireRequest struct {
	AsOf *time.Time `json:"asOf"`
}

// ExpireResponse reports how many proposals a sweep expired.
type ExpireResponse struct {
	AsOf    time.Time `json:"asOf"`
	Expired int       `json:"expired"`
}

// ProposalQuery mirrors the list filters.
type ProposalQuery struct {
	Role      string                  `form:"role" validate:"omitempty,oneof=client artist"`
	Status    []models.ProposalStatus `form:"status"`
	ListingID string                  `form:"listingId"`
	Page      int                     `form:"page"`
	PageSize  int                     `form:"pageSize"`
}

// EstimateResponse is the availability window for a listing.
type EstimateResponse = estimate.Window
