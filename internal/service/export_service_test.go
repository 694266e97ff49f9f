package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/commission-api/internal/dto"
	"github.com/noah-isme/commission-api/internal/models"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
)

type proposalReaderStub struct {
	items []models.Proposal
	query dto.ProposalQuery
}

func (s *proposalReaderStub) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Proposal, error) {
	for _, p := range s.items {
		if p.ID == id {
			if p.ClientID != actor.UserID && p.ArtistID != actor.UserID {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "not a participant")
			}
			copy := p
			return &copy, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
}

func (s *proposalReaderStub) List(ctx context.Context, query dto.ProposalQuery, actor *models.JWTClaims) ([]models.Proposal, *models.Pagination, error) {
	s.query = query
	return s.items, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: len(s.items)}, nil
}

func exportFixture() (*ExportService, *proposalReaderStub) {
	surcharge := decimal.NewFromInt(15)
	reader := &proposalReaderStub{items: []models.Proposal{{
		ID:                 "prop-1",
		ListingID:          "listing-1",
		ArtistID:           "artist-1",
		ClientID:           "client-1",
		Status:             models.ProposalStatusPendingClient,
		EarliestDate:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		LatestDate:         time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Deadline:           time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC),
		GeneralDescription: "=HYPERLINK(\"x\")",
		CalculatedPrice:    decimal.NewFromInt(100),
		ProposedSurcharge:  &surcharge,
		GeneralOptions: models.ProposalOptions{Selections: []models.ChosenSelection{
			{ID: 1, GroupID: 1, SelectionID: 2, GroupTitle: "Size", Label: "A3", Price: decimal.NewFromInt(40)},
		}},
		CreatedAt: time.Date(2024, 5, 25, 0, 0, 0, 0, time.UTC),
	}}}
	listings := &listingReaderStub{items: map[string]*models.CommissionListing{
		"listing-1": {ID: "listing-1", ArtistID: "artist-1", Title: "Portrait"},
	}}
	svc := NewExportService(reader, listings, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC) }
	return svc, reader
}

func TestExportProposalInboxCSV(t *testing.T) {
	svc, reader := exportFixture()
	result, err := svc.ProposalInboxCSV(context.Background(), dto.ProposalQuery{Role: "client"}, testArtist)
	require.NoError(t, err)
	require.Equal(t, "artist", reader.query.Role)
	require.Equal(t, "text/csv", result.ContentType)
	require.Equal(t, "proposals_20240602_100000.csv", result.Filename)

	records, err := csv.NewReader(bytes.NewReader(result.Content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "prop-1", records[1][0])
	require.Equal(t, "pendingClient", records[1][3])
	require.Equal(t, "115.00", records[1][8])
}

func TestExportProposalQuotePDF(t *testing.T) {
	svc, _ := exportFixture()
	result, err := svc.ProposalQuotePDF(context.Background(), "prop-1", testClient)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.Equal(t, "quote_prop-1.pdf", result.Filename)
	require.True(t, bytes.HasPrefix(result.Content, []byte("%PDF")))

	_, err = svc.ProposalQuotePDF(context.Background(), "prop-1", testOther)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestQuoteLinesIncludeAdjustment(t *testing.T) {
	_, reader := exportFixture()
	lines := quoteLines(&reader.items[0])
	require.Equal(t, []string{"Item", "Amount"}, lines.Headers)
	last := lines.Rows[len(lines.Rows)-1]
	require.Equal(t, "Total", last["Item"])
	require.Equal(t, "115.00", last["Amount"])
	require.Equal(t, "Size: A3", lines.Rows[0]["Item"])
}
