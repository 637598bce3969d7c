package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-health/lifeline-api/internal/dto"
	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
	"github.com/lifeline-health/lifeline-api/pkg/response"
)

type requestCoordinator interface {
	SubmitOrganRequest(ctx context.Context, req dto.CreateOrganRequestRequest, actor *models.JWTClaims) (*models.OrganRequest, error)
	DecideOrganRequest(ctx context.Context, id string, req dto.DecideOrganRequestRequest, actor *models.JWTClaims) (*models.OrganRequest, error)
	DeclareDonorMatch(ctx context.Context, id string, req dto.DeclareDonorMatchRequest) (*models.OrganRequest, error)
	SubmitFundRequest(ctx context.Context, req dto.CreateFundRequestRequest, actor *models.JWTClaims) (*models.FundRequest, error)
	DecideFundRequest(ctx context.Context, id string, req dto.DecideFundRequestRequest, actor *models.JWTClaims) (*models.FundRequest, error)
}

type requestReader interface {
	GetOrganRequest(ctx context.Context, id string, actor *models.JWTClaims) (*models.OrganRequest, error)
	ListOrganRequests(ctx context.Context, query dto.OrganRequestQuery, actor *models.JWTClaims) ([]models.OrganRequest, error)
	GetFundRequest(ctx context.Context, id string, actor *models.JWTClaims) (*models.FundRequest, error)
	ListFundRequests(ctx context.Context, query dto.FundRequestQuery, actor *models.JWTClaims) ([]models.FundRequest, error)
}

// RequestHandler exposes REST endpoints for organ and fund requests.
type RequestHandler struct {
	coordinator requestCoordinator
	reader      requestReader
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(coordinator requestCoordinator, reader requestReader) *RequestHandler {
	return &RequestHandler{coordinator: coordinator, reader: reader}
}

// SubmitOrganRequest godoc
// @Summary Submit an organ request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateOrganRequestRequest true "Organ request payload"
// @Success 201 {object} response.Envelope
// @Router /requests/organs [post]
func (h *RequestHandler) SubmitOrganRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateOrganRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid organ request payload"))
		return
	}
	request, err := h.coordinator.SubmitOrganRequest(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, request, nil)
}

// ListOrganRequests godoc
// @Summary List organ requests
// @Tags Requests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param urgency query string false "Urgency grade"
// @Success 200 {object} response.Envelope
// @Router /requests/organs [get]
func (h *RequestHandler) ListOrganRequests(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, offset := paginationParams(c)
	query := dto.OrganRequestQuery{
		Urgency: models.RequestUrgency(strings.ToUpper(strings.TrimSpace(c.Query("urgency")))),
		Limit:   limit,
		Offset:  offset,
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		for _, part := range strings.Split(rawStatus, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			query.Status = append(query.Status, models.OrganRequestStatus(part))
		}
	}
	requests, err := h.reader.ListOrganRequests(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// GetOrganRequest godoc
// @Summary Get organ request detail
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/organs/{id} [get]
func (h *RequestHandler) GetOrganRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.reader.GetOrganRequest(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// DecideOrganRequest godoc
// @Summary Decide an organ request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecideOrganRequestRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /requests/organs/{id}/decision [post]
func (h *RequestHandler) DecideOrganRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecideOrganRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	req.Decision = strings.ToUpper(strings.TrimSpace(req.Decision))
	request, err := h.coordinator.DecideOrganRequest(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// DeclareDonorMatch godoc
// @Summary Declare a donor for an accepted organ request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DeclareDonorMatchRequest true "Donor payload"
// @Success 200 {object} response.Envelope
// @Router /requests/organs/{id}/donor [post]
func (h *RequestHandler) DeclareDonorMatch(c *gin.Context) {
	var req dto.DeclareDonorMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid donor payload"))
		return
	}
	request, err := h.coordinator.DeclareDonorMatch(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// SubmitFundRequest godoc
// @Summary Submit a fund request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateFundRequestRequest true "Fund request payload"
// @Success 201 {object} response.Envelope
// @Router /requests/funds [post]
func (h *RequestHandler) SubmitFundRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateFundRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid fund request payload"))
		return
	}
	request, err := h.coordinator.SubmitFundRequest(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, request, nil)
}

// ListFundRequests godoc
// @Summary List fund requests
// @Tags Requests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /requests/funds [get]
func (h *RequestHandler) ListFundRequests(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, offset := paginationParams(c)
	query := dto.FundRequestQuery{Limit: limit, Offset: offset}
	if rawStatus := c.Query("status"); rawStatus != "" {
		for _, part := range strings.Split(rawStatus, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			query.Status = append(query.Status, models.FundRequestStatus(part))
		}
	}
	requests, err := h.reader.ListFundRequests(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// GetFundRequest godoc
// @Summary Get fund request detail
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/funds/{id} [get]
func (h *RequestHandler) GetFundRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.reader.GetFundRequest(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// DecideFundRequest godoc
// @Summary Decide a fund request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecideFundRequestRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /requests/funds/{id}/decision [post]
func (h *RequestHandler) DecideFundRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecideFundRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	req.Decision = strings.ToUpper(strings.TrimSpace(req.Decision))
	request, err := h.coordinator.DecideFundRequest(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
