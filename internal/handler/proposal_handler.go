package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/commission-api/internal/core/estimate"
	"github.com/noah-isme/commission-api/internal/dto"
	"github.com/noah-isme/commission-api/internal/models"
	"github.com/noah-isme/commission-api/internal/service"
	appErrors "github.com/noah-isme/commission-api/pkg/errors"
	"github.com/noah-isme/commission-api/pkg/response"
)

const (
	payloadField   = "payload"
	referenceField = "referenceImages"
)

type proposalService interface {
	GetDynamicEstimate(ctx context.Context, listingID string) (*estimate.Window, error)
	CreateProposal(ctx context.Context, listingID string, req dto.ProposalRequest, uploads []service.ReferenceUpload, actor *models.JWTClaims) (*models.Proposal, error)
	UpdateProposal(ctx context.Context, proposalID string, req dto.ProposalRequest, uploads []service.ReferenceUpload, actor *models.JWTClaims) (*models.Proposal, error)
	ArtistRespond(ctx context.Context, proposalID string, req dto.ArtistResponseRequest, actor *models.JWTClaims) (*models.Proposal, error)
	ClientRespond(ctx context.Context, proposalID string, req dto.ClientResponseRequest, actor *models.JWTClaims) (*models.Proposal, error)
	FinalizeProposal(ctx context.Context, proposalID string, actor *models.JWTClaims) (*models.Proposal, error)
	ExpireOldProposals(ctx context.Context, asOf time.Time) (int, error)
	Get(ctx context.Context, proposalID string, actor *models.JWTClaims) (*models.Proposal, error)
	List(ctx context.Context, query dto.ProposalQuery, actor *models.JWTClaims) ([]models.Proposal, *models.Pagination, error)
}

type proposalExporter interface {
	ProposalInboxCSV(ctx context.Context, query dto.ProposalQuery, actor *models.JWTClaims) (*service.ExportResult, error)
	ProposalQuotePDF(ctx context.Context, proposalID string, actor *models.JWTClaims) (*service.ExportResult, error)
}

// ProposalHandler exposes the proposal negotiation endpoints.
type ProposalHandler struct {
	service       proposalService
	exporter      proposalExporter
	maxUploadSize int64
}

// ProposalHandlerOption customises a ProposalHandler.
type ProposalHandlerOption func(*ProposalHandler)

// WithMaxUploadSize rejects reference files larger than size bytes before
// they are read into memory. Zero disables the check.
func WithMaxUploadSize(size int64) ProposalHandlerOption {
	return func(h *ProposalHandler) { h.maxUploadSize = size }
}

// NewProposalHandler constructs the handler.
func NewProposalHandler(service proposalService, exporter proposalExporter, opts ...ProposalHandlerOption) *ProposalHandler {
	h := &ProposalHandler{service: service, exporter: exporter}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Estimate godoc
// @Summary Current availability window of a listing
// @Tags Proposals
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope{data=dto.EstimateResponse}
// @Router /listings/{id}/estimate [get]
func (h *ProposalHandler) Estimate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	window, err := h.service.GetDynamicEstimate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Create godoc
// @Summary Submit a proposal on a listing
// @Description Accepts JSON, or multipart with a JSON `payload` field and `referenceImages` files.
// @Tags Proposals
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Listing ID"
// @Param payload body dto.ProposalRequest true "Proposal"
// @Success 201 {object} response.Envelope
// @Router /listings/{id}/proposals [post]
func (h *ProposalHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	req, uploads, err := h.bindProposal(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	proposal, err := h.service.CreateProposal(c.Request.Context(), c.Param("id"), req, uploads, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proposal)
}

// Update godoc
// @Summary Edit a proposal the artist has not answered
// @Tags Proposals
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.ProposalRequest true "Proposal"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id} [put]
func (h *ProposalHandler) Update(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	req, uploads, err := h.bindProposal(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	proposal, err := h.service.UpdateProposal(c.Request.Context(), c.Param("id"), req, uploads, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Get godoc
// @Summary Get a proposal
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id} [get]
func (h *ProposalHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	proposal, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// List godoc
// @Summary List my proposals
// @Tags Proposals
// @Produce json
// @Param role query string false "client (default) or artist"
// @Param status query []string false "Status filter"
// @Param listingId query string false "Listing filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	var query dto.ProposalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ArtistRespond godoc
// @Summary Artist accepts, adjusts or rejects a proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.ArtistResponseRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/artist-response [post]
func (h *ProposalHandler) ArtistRespond(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ArtistResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid response payload"))
		return
	}
	proposal, err := h.service.ArtistRespond(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// ClientRespond godoc
// @Summary Client answers an adjustment or cancels
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.ClientResponseRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/client-response [post]
func (h *ProposalHandler) ClientRespond(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ClientResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid response payload"))
		return
	}
	proposal, err := h.service.ClientRespond(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Finalize godoc
// @Summary Turn an accepted proposal into a contract
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/finalize [post]
func (h *ProposalHandler) Finalize(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	proposal, err := h.service.FinalizeProposal(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Expire godoc
// @Summary Expire proposals whose response window closed
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.ExpireRequest false "Sweep time"
// @Success 200 {object} response.Envelope{data=dto.ExpireResponse}
// @Router /admin/proposals/expire [post]
func (h *ProposalHandler) Expire(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "proposal service not configured"))
		return
	}
	var req dto.ExpireRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid expire payload"))
			return
		}
	}
	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = req.AsOf.UTC()
	}
	expired, err := h.service.ExpireOldProposals(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ExpireResponse{AsOf: asOf, Expired: expired}, nil)
}

// Export godoc
// @Summary Download the artist's proposal inbox as CSV
// @Tags Proposals
// @Produce text/csv
// @Param status query []string false "Status filter"
// @Param listingId query string false "Listing filter"
// @Success 200 {file} binary
// @Router /proposals/export [get]
func (h *ProposalHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	var query dto.ProposalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query"))
		return
	}
	result, err := h.exporter.ProposalInboxCSV(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Content)
}

// Quote godoc
// @Summary Download a proposal quote as PDF
// @Tags Proposals
// @Produce application/pdf
// @Param id path string true "Proposal ID"
// @Success 200 {file} binary
// @Router /proposals/{id}/quote [get]
func (h *ProposalHandler) Quote(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := h.exporter.ProposalQuotePDF(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Content)
}

// bindProposal reads a proposal from JSON or from a multipart form carrying
// the JSON document in the payload field next to reference image files.
func (h *ProposalHandler) bindProposal(c *gin.Context) (dto.ProposalRequest, []service.ReferenceUpload, error) {
	var req dto.ProposalRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
		}
		return req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return req, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid multipart form")
	}
	raw := form.Value[payloadField]
	if len(raw) == 0 {
		return req, nil, appErrors.Clone(appErrors.ErrValidation, "payload field is required")
	}
	if err := json.Unmarshal([]byte(raw[0]), &req); err != nil {
		return req, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}
	uploads := make([]service.ReferenceUpload, 0, len(form.File[referenceField]))
	for _, header := range form.File[referenceField] {
		upload, err := bufferUpload(header, h.maxUploadSize)
		if err != nil {
			return req, nil, err
		}
		uploads = append(uploads, upload)
	}
	return req, uploads, nil
}

func bufferUpload(header *multipart.FileHeader, limit int64) (service.ReferenceUpload, error) {
	if limit > 0 && header.Size > limit {
		return service.ReferenceUpload{}, uploadTooLarge(header.Filename, limit)
	}
	src, err := header.Open()
	if err != nil {
		return service.ReferenceUpload{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	defer src.Close()

	var reader io.Reader = src
	if limit > 0 {
		reader = io.LimitReader(src, limit+1)
	}
	buf, err := io.ReadAll(reader)
	if err != nil {
		return service.ReferenceUpload{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file")
	}
	if limit > 0 && int64(len(buf)) > limit {
		return service.ReferenceUpload{}, uploadTooLarge(header.Filename, limit)
	}
	return service.ReferenceUpload{
		Filename: header.Filename,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
		Content:  bytes.NewReader(buf),
	}, nil
}

func uploadTooLarge(name string, limit int64) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s exceeds the %d byte limit", name, limit))
}
