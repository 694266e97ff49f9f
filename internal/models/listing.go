package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingType distinguishes ready-made offers from bespoke ones.
type ListingType string

const (
	ListingTypeTemplate ListingType = "template"
	ListingTypeCustom   ListingType = "custom"
)

// ListingFlow selects how payment is split over the work.
type ListingFlow string

const (
	ListingFlowStandard  ListingFlow = "standard"
	ListingFlowMilestone ListingFlow = "milestone"
)

// DeadlineMode controls how a proposal deadline is derived.
type DeadlineMode string

const (
	DeadlineModeStandard     DeadlineMode = "standard"
	DeadlineModeWithDeadline DeadlineMode = "withDeadline"
	DeadlineModeWithRush     DeadlineMode = "withRush"
)

// TurnaroundUnit is the unit of the min/max turnaround bounds.
type TurnaroundUnit string

const (
	TurnaroundDays   TurnaroundUnit = "days"
	TurnaroundWeeks  TurnaroundUnit = "weeks"
	TurnaroundMonths TurnaroundUnit = "months"
)

// DeadlinePolicy is the turnaround configuration of a listing.
type DeadlinePolicy struct {
	Mode    DeadlineMode     `db:"deadline_mode" json:"mode"`
	Min     *int             `db:"deadline_min" json:"min,omitempty"`
	Max     *int             `db:"deadline_max" json:"max,omitempty"`
	Unit    TurnaroundUnit   `db:"deadline_unit" json:"unit,omitempty"`
	RushFee *decimal.Decimal `db:"rush_fee" json:"rushFee,omitempty"`
}

// CommissionListing is an artist's published offer.
type CommissionListing struct {
	ID             string          `db:"id" json:"id"`
	ArtistID       string          `db:"artist_id" json:"artistId"`
	Title          string          `db:"title" json:"title"`
	Description    string          `db:"description" json:"description"`
	Type           ListingType     `db:"type" json:"type"`
	Flow           ListingFlow     `db:"flow" json:"flow"`
	DeadlinePolicy `json:"deadline"`
	BasePrice      decimal.Decimal `db:"base_price" json:"basePrice"`
	Slots          *int            `db:"slots" json:"slots,omitempty"`
	SlotsUsed      int             `db:"slots_used" json:"slotsUsed"`
	GeneralOptions ListingOptions  `db:"general_options" json:"generalOptions"`
	SubjectOptions SubjectOptions  `db:"subject_options" json:"subjectOptions"`
	Milestones     Milestones      `db:"milestones" json:"milestones"`
	Active         bool            `db:"active" json:"active"`
	Deleted        bool            `db:"deleted" json:"-"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

// HasFreeSlot reports whether another contract can be taken on.
func (l *CommissionListing) HasFreeSlot() bool {
	return l.Slots == nil || l.SlotsUsed < *l.Slots
}

// PriceRange is the cheapest and the most expensive configuration of a listing.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// ListingFilter constrains listing queries.
type ListingFilter struct {
	ArtistID   string
	ActiveOnly bool
	Limit      int
	Offset     int
}
