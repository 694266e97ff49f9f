package proposal

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

var allStatuses = []models.ProposalStatus{
	models.ProposalStatusPendingArtist,
	models.ProposalStatusPendingClient,
	models.ProposalStatusAccepted,
	models.ProposalStatusRejectedArtist,
	models.ProposalStatusRejectedClient,
	models.ProposalStatusCancelled,
	models.ProposalStatusExpired,
	models.ProposalStatusFinalized,
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	for _, status := range allStatuses {
		if !IsTerminal(status) {
			continue
		}
		for _, to := range allStatuses {
			require.False(t, CanTransition(status, to), "%s -> %s", status, to)
		}
	}
}

func TestEveryNonTerminalStateCanBeCancelled(t *testing.T) {
	for _, status := range allStatuses {
		if IsTerminal(status) {
			continue
		}
		require.True(t, CanTransition(status, models.ProposalStatusCancelled), status)

		outcome, err := PlanClientResponse(status, ClientDecision{Cancel: true})
		require.NoError(t, err)
		require.Equal(t, models.ProposalStatusCancelled, outcome.To)
		require.Equal(t, EventCancelled, outcome.Event)
	}
}

func TestCancelFromTerminalStateFails(t *testing.T) {
	for _, status := range allStatuses {
		if !IsTerminal(status) {
			continue
		}
		_, err := PlanClientResponse(status, ClientDecision{Cancel: true})
		require.True(t, errors.Is(err, appErrors.ErrInvalidState), status)
	}
}

func TestPlanArtistResponse(t *testing.T) {
	now := time.Date(2024, 5, 25, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name         string
		current      models.ProposalStatus
		decision     ArtistDecision
		wantTo       models.ProposalStatus
		wantEvent    string
		wantErr      error
		wantProposed bool
	}{
		{
			name:     "reject without reason",
			current:  models.ProposalStatusPendingArtist,
			decision: ArtistDecision{},
			wantErr:  appErrors.ErrValidation,
		},
		{
			name:     "reject with blank reason",
			current:  models.ProposalStatusPendingArtist,
			decision: ArtistDecision{RejectionReason: "   "},
			wantErr:  appErrors.ErrValidation,
		},
		{
			name:      "reject with reason",
			current:   models.ProposalStatusPendingArtist,
			decision:  ArtistDecision{RejectionReason: "fully booked"},
			wantTo:    models.ProposalStatusRejectedArtist,
			wantEvent: EventRejected,
		},
		{
			name:      "plain accept",
			current:   models.ProposalStatusPendingArtist,
			decision:  ArtistDecision{AcceptProposal: true},
			wantTo:    models.ProposalStatusAccepted,
			wantEvent: EventAccepted,
		},
		{
			name:      "zero adjustment counts as plain accept",
			current:   models.ProposalStatusPendingArtist,
			decision:  ArtistDecision{AcceptProposal: true, Surcharge: dec(0), Discount: dec(0)},
			wantTo:    models.ProposalStatusAccepted,
			wantEvent: EventAccepted,
		},
		{
			name:         "accept with surcharge",
			current:      models.ProposalStatusPendingArtist,
			decision:     ArtistDecision{AcceptProposal: true, Surcharge: dec(150)},
			wantTo:       models.ProposalStatusPendingClient,
			wantEvent:    EventAdjusted,
			wantProposed: true,
		},
		{
			name:         "re-offer after client rejection",
			current:      models.ProposalStatusRejectedClient,
			decision:     ArtistDecision{AcceptProposal: true, Discount: dec(50)},
			wantTo:       models.ProposalStatusPendingClient,
			wantEvent:    EventAdjusted,
			wantProposed: true,
		},
		{
			name:      "plain accept after client rejection",
			current:   models.ProposalStatusRejectedClient,
			decision:  ArtistDecision{AcceptProposal: true},
			wantTo:    models.ProposalStatusAccepted,
			wantEvent: EventAccepted,
		},
		{
			name:     "negative surcharge",
			current:  models.ProposalStatusPendingArtist,
			decision: ArtistDecision{AcceptProposal: true, Surcharge: dec(-1)},
			wantErr:  appErrors.ErrValidation,
		},
		{
			name:     "respond after rejecting",
			current:  models.ProposalStatusRejectedArtist,
			decision: ArtistDecision{RejectionReason: "again"},
			wantErr:  appErrors.ErrInvalidState,
		},
		{
			name:     "respond while client decides",
			current:  models.ProposalStatusPendingClient,
			decision: ArtistDecision{AcceptProposal: true},
			wantErr:  appErrors.ErrInvalidState,
		},
		{
			name:     "respond to accepted",
			current:  models.ProposalStatusAccepted,
			decision: ArtistDecision{AcceptProposal: true},
			wantErr:  appErrors.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := PlanArtistResponse(tt.current, tt.decision, now)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.current, outcome.From)
			require.Equal(t, tt.wantTo, outcome.To)
			require.Equal(t, tt.wantEvent, outcome.Event)
			require.True(t, CanTransition(outcome.From, outcome.To))
			if tt.wantProposed {
				require.True(t, outcome.SetAdjustment)
				require.NotNil(t, outcome.ProposedDate)
				require.Equal(t, now, *outcome.ProposedDate)
			} else {
				require.Nil(t, outcome.ProposedDate)
				require.Nil(t, outcome.ProposedSurcharge)
				require.Nil(t, outcome.ProposedDiscount)
			}
		})
	}
}

func TestPlanClientResponse(t *testing.T) {
	tests := []struct {
		name     string
		current  models.ProposalStatus
		decision ClientDecision
		wantTo   models.ProposalStatus
		wantErr  error
	}{
		{name: "accept adjustment", current: models.ProposalStatusPendingClient, decision: ClientDecision{AcceptAdjustment: true}, wantTo: models.ProposalStatusAccepted},
		{name: "reject adjustment", current: models.ProposalStatusPendingClient, decision: ClientDecision{}, wantTo: models.ProposalStatusRejectedClient},
		{name: "accept without adjustment pending", current: models.ProposalStatusPendingArtist, decision: ClientDecision{AcceptAdjustment: true}, wantErr: appErrors.ErrInvalidState},
		{name: "reject on accepted", current: models.ProposalStatusAccepted, decision: ClientDecision{}, wantErr: appErrors.ErrInvalidState},
		{name: "cancel wins over accept", current: models.ProposalStatusPendingClient, decision: ClientDecision{Cancel: true, AcceptAdjustment: true}, wantTo: models.ProposalStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := PlanClientResponse(tt.current, tt.decision)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantTo, outcome.To)
			require.True(t, CanTransition(tt.current, outcome.To))
		})
	}
}

func TestCanEditAndFinalize(t *testing.T) {
	for _, status := range allStatuses {
		editErr := CanEdit(status)
		finalizeErr := CanFinalize(status)
		if status == models.ProposalStatusPendingArtist {
			require.NoError(t, editErr)
		} else {
			require.True(t, errors.Is(editErr, appErrors.ErrInvalidState), status)
		}
		if status == models.ProposalStatusAccepted {
			require.NoError(t, finalizeErr)
		} else {
			require.True(t, errors.Is(finalizeErr, appErrors.ErrInvalidState), status)
		}
	}
}
