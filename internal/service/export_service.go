package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/commission-api/internal/dto"
	"github.com/noah-isme/commission-api/internal/models"
	"github.com/noah-isme/commission-api/pkg/export"
)

const (
	contentTypeCSV = "text/csv"
	contentTypePDF = "application/pdf"
	exportPageSize = 100
	exportMaxRows  = 5000
)

type proposalReader interface {
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Proposal, error)
	List(ctx context.Context, query dto.ProposalQuery, actor *models.JWTClaims) ([]models.Proposal, *models.Pagination, error)
}

type listingLookup interface {
	GetByID(ctx context.Context, id string) (*models.CommissionListing, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ExportResult is a rendered file ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders proposal data into downloadable files.
type ExportService struct {
	proposals proposalReader
	listings  listingLookup
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(proposals proposalReader, listings listingLookup, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		proposals: proposals,
		listings:  listings,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
		now:       time.Now,
	}
}

var inboxHeaders = []string{"Proposal ID", "Listing ID", "Client ID", "Status", "Deadline", "Price", "Surcharge", "Discount", "Total", "Expires At", "Created At"}

// ProposalInboxCSV renders the proposals an artist received, filtered like
// the list endpoint.
func (s *ExportService) ProposalInboxCSV(ctx context.Context, query dto.ProposalQuery, actor *models.JWTClaims) (*ExportResult, error) {
	query.Role = "artist"
	query.PageSize = exportPageSize
	rows := make([]map[string]string, 0)
	for page := 1; ; page++ {
		query.Page = page
		items, pagination, err := s.proposals.List(ctx, query, actor)
		if err != nil {
			return nil, err
		}
		for _, p := range items {
			rows = append(rows, map[string]string{
				"Proposal ID": p.ID,
				"Listing ID":  p.ListingID,
				"Client ID":   p.ClientID,
				"Status":      string(p.Status),
				"Deadline":    formatDate(p.Deadline),
				"Price":       p.CalculatedPrice.StringFixed(2),
				"Surcharge":   formatAmount(p.ProposedSurcharge),
				"Discount":    formatAmount(p.ProposedDiscount),
				"Total":       p.TotalPrice().StringFixed(2),
				"Expires At":  formatOptionalTime(p.ExpiresAt),
				"Created At":  p.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		if len(items) < exportPageSize || pagination == nil || page*exportPageSize >= pagination.TotalCount || len(rows) >= exportMaxRows {
			break
		}
	}

	payload, err := s.csv.Render(export.Dataset{Headers: inboxHeaders, Rows: rows})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("rendered proposal inbox", zap.String("artist_id", actor.UserID), zap.Int("rows", len(rows)))
	return &ExportResult{
		Filename:    fmt.Sprintf("proposals_%s.csv", s.now().UTC().Format("20060102_150405")),
		ContentType: contentTypeCSV,
		Content:     payload,
	}, nil
}

// ProposalQuotePDF renders a single proposal as a priced quote.
func (s *ExportService) ProposalQuotePDF(ctx context.Context, proposalID string, actor *models.JWTClaims) (*ExportResult, error) {
	p, err := s.proposals.Get(ctx, proposalID, actor)
	if err != nil {
		return nil, err
	}
	title := "Commission quote"
	if listing, err := s.listings.GetByID(ctx, p.ListingID); err == nil {
		title = fmt.Sprintf("Commission quote: %s", listing.Title)
	} else {
		s.logger.Warn("quote rendered without listing", zap.String("listing_id", p.ListingID), zap.Error(err))
	}

	doc := export.Document{
		Title: title,
		Fields: []export.Field{
			{Label: "Proposal", Value: p.ID},
			{Label: "Status", Value: string(p.Status)},
			{Label: "Estimated window", Value: fmt.Sprintf("%s to %s", formatDate(p.EarliestDate), formatDate(p.LatestDate))},
			{Label: "Deadline", Value: formatDate(p.Deadline)},
			{Label: "Description", Value: p.GeneralDescription},
		},
		Table:  quoteLines(p),
		Footer: fmt.Sprintf("Generated %s", s.now().UTC().Format(time.RFC3339)),
	}
	payload, err := s.pdf.Render(doc)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("quote_%s.pdf", sanitizeFilename(p.ID)),
		ContentType: contentTypePDF,
		Content:     payload,
	}, nil
}

func quoteLines(p *models.Proposal) export.Dataset {
	rows := make([]map[string]string, 0)
	add := func(item, amount string) {
		rows = append(rows, map[string]string{"Item": item, "Amount": amount})
	}
	appendChoices := func(prefix string, opts models.ProposalOptions) {
		for _, sel := range opts.Selections {
			add(prefix+sel.GroupTitle+": "+sel.Label, sel.Price.StringFixed(2))
		}
		for _, addon := range opts.Addons {
			add(prefix+"Add-on: "+addon.Label, addon.Price.StringFixed(2))
		}
	}
	appendChoices("", p.GeneralOptions)
	for _, subject := range p.SubjectOptions {
		appendChoices(subject.Title+" / ", subject.ProposalOptions)
	}
	add("Calculated price", p.CalculatedPrice.StringFixed(2))
	if p.ProposedSurcharge != nil {
		add("Surcharge", p.ProposedSurcharge.StringFixed(2))
	}
	if p.ProposedDiscount != nil {
		add("Discount", "-"+p.ProposedDiscount.StringFixed(2))
	}
	add("Total", p.TotalPrice().StringFixed(2))
	return export.Dataset{Headers: []string{"Item", "Amount"}, Rows: rows}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatAmount(v *decimal.Decimal) string {
	if v == nil {
		return ""
	}
	return v.StringFixed(2)
}
