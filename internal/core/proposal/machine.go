// Package proposal holds the negotiation state machine. Functions here are
// pure: they decide whether a move is legal and what it writes, while the
// service performs the conditional update.
package proposal

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

// Event routing keys published after a successful transition.
const (
	EventCreated   = "proposal.created"
	EventUpdated   = "proposal.updated"
	EventAdjusted  = "proposal.adjusted"
	EventAccepted  = "proposal.accepted"
	EventRejected  = "proposal.rejected"
	EventCancelled = "proposal.cancelled"
	EventFinalized = "proposal.finalized"
	EventExpired   = "proposal.expired"
)

var transitions = map[models.ProposalStatus][]models.ProposalStatus{
	models.ProposalStatusPendingArtist: {
		models.ProposalStatusAccepted,
		models.ProposalStatusRejectedArtist,
		models.ProposalStatusPendingClient,
		models.ProposalStatusCancelled,
		models.ProposalStatusExpired,
	},
	models.ProposalStatusPendingClient: {
		models.ProposalStatusAccepted,
		models.ProposalStatusRejectedClient,
		models.ProposalStatusCancelled,
		models.ProposalStatusExpired,
	},
	// the artist may answer a rejected adjustment with a new offer
	models.ProposalStatusRejectedClient: {
		models.ProposalStatusAccepted,
		models.ProposalStatusPendingClient,
		models.ProposalStatusRejectedArtist,
		models.ProposalStatusCancelled,
	},
	models.ProposalStatusAccepted: {
		models.ProposalStatusFinalized,
		models.ProposalStatusCancelled,
	},
}

// CanTransition reports whether from -> to is an edge of the machine.
func CanTransition(from, to models.ProposalStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition leaves status.
func IsTerminal(status models.ProposalStatus) bool {
	switch status {
	case models.ProposalStatusFinalized,
		models.ProposalStatusCancelled,
		models.ProposalStatusRejectedArtist,
		models.ProposalStatusExpired:
		return true
	}
	return false
}

// ExpirableStatuses are the states the sweeper moves to expired.
func ExpirableStatuses() []models.ProposalStatus {
	return []models.ProposalStatus{models.ProposalStatusPendingArtist, models.ProposalStatusPendingClient}
}

// AwaitsResponse reports whether status starts an expiry clock.
func AwaitsResponse(status models.ProposalStatus) bool {
	return status == models.ProposalStatusPendingArtist || status == models.ProposalStatusPendingClient
}

// ArtistDecision is the artist's answer to a proposal.
type ArtistDecision struct {
	AcceptProposal  bool
	RejectionReason string
	Surcharge       *decimal.Decimal
	Discount        *decimal.Decimal
}

// ClientDecision is the client's answer to an adjustment, or a cancellation.
type ClientDecision struct {
	Cancel           bool
	AcceptAdjustment bool
}

// Outcome describes the write a legal transition performs.
type Outcome struct {
	From  models.ProposalStatus
	To    models.ProposalStatus
	Event string

	// SetAdjustment replaces the stored surcharge, discount and proposed
	// date with the values below, nil clearing them.
	SetAdjustment     bool
	ProposedSurcharge *decimal.Decimal
	ProposedDiscount  *decimal.Decimal
	ProposedDate      *time.Time

	RejectionReason *string
}

// ValidateArtistDecision checks the payload without looking at the proposal.
func ValidateArtistDecision(decision ArtistDecision) error {
	if !decision.AcceptProposal {
		if strings.TrimSpace(decision.RejectionReason) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "rejectionReason is required when rejecting a proposal")
		}
		return nil
	}
	if decision.Surcharge != nil && decision.Surcharge.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, "surcharge must not be negative")
	}
	if decision.Discount != nil && decision.Discount.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, "discount must not be negative")
	}
	return nil
}

// PlanArtistResponse resolves an artist decision against the current status.
// An accept carrying a positive surcharge or discount goes back to the
// client for ratification; a plain accept clears any earlier adjustment.
func PlanArtistResponse(current models.ProposalStatus, decision ArtistDecision, now time.Time) (Outcome, error) {
	if err := ValidateArtistDecision(decision); err != nil {
		return Outcome{}, err
	}
	if current != models.ProposalStatusPendingArtist && current != models.ProposalStatusRejectedClient {
		return Outcome{}, stateError("respond to", current)
	}

	if !decision.AcceptProposal {
		reason := strings.TrimSpace(decision.RejectionReason)
		return Outcome{
			From:            current,
			To:              models.ProposalStatusRejectedArtist,
			Event:           EventRejected,
			RejectionReason: &reason,
		}, nil
	}

	surcharge := positiveOrNil(decision.Surcharge)
	discount := positiveOrNil(decision.Discount)
	if surcharge == nil && discount == nil {
		return Outcome{
			From:          current,
			To:            models.ProposalStatusAccepted,
			Event:         EventAccepted,
			SetAdjustment: true,
		}, nil
	}

	proposed := now.UTC()
	return Outcome{
		From:              current,
		To:                models.ProposalStatusPendingClient,
		Event:             EventAdjusted,
		SetAdjustment:     true,
		ProposedSurcharge: surcharge,
		ProposedDiscount:  discount,
		ProposedDate:      &proposed,
	}, nil
}

// PlanClientResponse resolves a client decision. Cancellation is evaluated
// first and is legal from any non-terminal status.
func PlanClientResponse(current models.ProposalStatus, decision ClientDecision) (Outcome, error) {
	if decision.Cancel {
		if IsTerminal(current) {
			return Outcome{}, stateError("cancel", current)
		}
		return Outcome{From: current, To: models.ProposalStatusCancelled, Event: EventCancelled}, nil
	}
	if current != models.ProposalStatusPendingClient {
		return Outcome{}, stateError("answer the adjustment of", current)
	}
	if decision.AcceptAdjustment {
		return Outcome{From: current, To: models.ProposalStatusAccepted, Event: EventAccepted}, nil
	}
	return Outcome{From: current, To: models.ProposalStatusRejectedClient, Event: EventRejected}, nil
}

// CanEdit allows content edits only while the artist has not answered.
func CanEdit(current models.ProposalStatus) error {
	if current != models.ProposalStatusPendingArtist {
		return stateError("edit", current)
	}
	return nil
}

// CanFinalize allows finalization only of accepted proposals.
func CanFinalize(current models.ProposalStatus) error {
	if current != models.ProposalStatusAccepted {
		return stateError("finalize", current)
	}
	return nil
}

func positiveOrNil(v *decimal.Decimal) *decimal.Decimal {
	if v == nil || !v.IsPositive() {
		return nil
	}
	out := *v
	return &out
}

func stateError(action string, current models.ProposalStatus) error {
	return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot %s a proposal in status %s", action, current))
}
