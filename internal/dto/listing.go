package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/commission-api/internal/core/options"
	"github.com/noah-isme/commission-api/internal/models"
)

// DeadlinePolicyRequest describes the turnaround of a listing.
type DeadlinePolicyRequest struct {
	Mode    models.DeadlineMode   `json:"mode" validate:"required,oneof=standard withDeadline withRush"`
	Min     *int                  `json:"min" validate:"required,min=0"`
	Max     *int                  `json:"max" validate:"required,min=1"`
	Unit    models.TurnaroundUnit `json:"unit" validate:"omitempty,oneof=days weeks months"`
	RushFee *decimal.Decimal      `json:"rushFee"`
}

// ListingOptionsRequest accepts questions in any of the legacy shapes.
type ListingOptionsRequest struct {
	OptionGroups []models.OptionGroup  `json:"optionGroups"`
	Addons       []models.Addon        `json:"addons"`
	Questions    []options.RawQuestion `json:"questions"`
}

// SubjectOptionRequest is a per-subject variant of the listing options.
type SubjectOptionRequest struct {
	ID    int    `json:"id"`
	Title string `json:"title" validate:"required,max=120"`
	ListingOptionsRequest
}

// ListingRequest is the payload for creating or replacing a listing.
type ListingRequest struct {
	Title          string                 `json:"title" validate:"required,max=200"`
	Description    string                 `json:"description" validate:"max=5000"`
	Type           models.ListingType     `json:"type" validate:"required,oneof=template custom"`
	Flow           models.ListingFlow     `json:"flow" validate:"required,oneof=standard milestone"`
	Deadline       DeadlinePolicyRequest  `json:"deadline"`
	BasePrice      decimal.Decimal        `json:"basePrice"`
	Slots          *int                   `json:"slots" validate:"omitempty,min=0"`
	GeneralOptions ListingOptionsRequest  `json:"generalOptions"`
	SubjectOptions []SubjectOptionRequest `json:"subjectOptions" validate:"dive"`
	Milestones     []models.Milestone     `json:"milestones"`
	Active         *bool                  `json:"active"`
}

// ToModel converts the request options into the stored structure.
func (r ListingOptionsRequest) ToModel() models.ListingOptions {
	return models.ListingOptions{
		OptionGroups: r.OptionGroups,
		Addons:       r.Addons,
		Questions:    options.Questions(r.Questions),
	}
}

// ListingResponse decorates a listing with its computed price range.
type ListingResponse struct {
	models.CommissionListing
	PriceRange models.PriceRange `json:"priceRange"`
}
