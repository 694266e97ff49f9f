package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/commission-api/internal/models"
)

// EventPublisher delivers a JSON payload under a routing key.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// ProposalEvent is the payload of every proposal lifecycle event.
type ProposalEvent struct {
	Type       string                `json:"type"`
	ProposalID string                `json:"proposalId"`
	ListingID  string                `json:"listingId"`
	ClientID   string                `json:"clientId"`
	ArtistID   string                `json:"artistId"`
	From       models.ProposalStatus `json:"from,omitempty"`
	To         models.ProposalStatus `json:"to"`
	ContractID *string               `json:"contractId,omitempty"`
	OccurredAt time.Time             `json:"occurredAt"`
}

// EventEmitter publishes lifecycle events after a write has committed.
// Delivery is best effort: failures are logged and counted, never returned.
type EventEmitter struct {
	publisher EventPublisher
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEventEmitter constructs an emitter. A nil publisher disables events.
func NewEventEmitter(publisher EventPublisher, metrics *MetricsService, logger *zap.Logger) *EventEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventEmitter{publisher: publisher, metrics: metrics, logger: logger}
}

// Emit publishes routingKey for proposal, which has just left from.
func (e *EventEmitter) Emit(ctx context.Context, routingKey string, proposal *models.Proposal, from models.ProposalStatus, at time.Time) {
	if e == nil || e.publisher == nil || proposal == nil {
		return
	}
	event := ProposalEvent{
		Type:       routingKey,
		ProposalID: proposal.ID,
		ListingID:  proposal.ListingID,
		ClientID:   proposal.ClientID,
		ArtistID:   proposal.ArtistID,
		From:       from,
		To:         proposal.Status,
		ContractID: proposal.ContractID,
		OccurredAt: at.UTC(),
	}
	if err := e.publisher.Publish(ctx, routingKey, event); err != nil {
		e.metrics.RecordEventFailure(routingKey)
		e.logger.Warn("publish proposal event failed",
			zap.String("routing_key", routingKey),
			zap.String("proposal_id", proposal.ID),
			zap.Error(err))
	}
}
