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

type donationCoordinator interface {
	SubmitIntent(ctx context.Context, req dto.CreateIntentRequest, actor *models.JWTClaims) (*models.DonationIntent, error)
	VerifyIntent(ctx context.Context, id string) (*models.DonationIntent, error)
	CreateMatch(ctx context.Context, req dto.CreateMatchRequest, actor *models.JWTClaims) (*models.Match, error)
	AcceptMatch(ctx context.Context, id string, actor *models.JWTClaims) (*models.Match, error)
	ConfirmPayment(ctx context.Context, id string) (*models.Match, error)
	CompleteDonation(ctx context.Context, id string) (*models.Match, error)
}

type donationReader interface {
	GetIntent(ctx context.Context, id string, actor *models.JWTClaims) (*models.DonationIntent, error)
	ListIntents(ctx context.Context, query dto.IntentQuery, actor *models.JWTClaims) ([]models.DonationIntent, error)
	GetMatch(ctx context.Context, id string, actor *models.JWTClaims) (*models.Match, error)
	ListMatches(ctx context.Context, query dto.MatchQuery, actor *models.JWTClaims) ([]models.Match, error)
}

// DonationHandler exposes REST endpoints for donation intents and matches.
type DonationHandler struct {
	coordinator donationCoordinator
	reader      donationReader
}

// NewDonationHandler constructs the handler.
func NewDonationHandler(coordinator donationCoordinator, reader donationReader) *DonationHandler {
	return &DonationHandler{coordinator: coordinator, reader: reader}
}

// SubmitIntent godoc
// @Summary Submit a donation intent
// @Tags Donations
// @Accept json
// @Produce json
// @Param payload body dto.CreateIntentRequest true "Intent payload"
// @Success 201 {object} response.Envelope
// @Router /donations/intents [post]
func (h *DonationHandler) SubmitIntent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid intent payload"))
		return
	}
	intent, err := h.coordinator.SubmitIntent(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, intent, nil)
}

// ListIntents godoc
// @Summary List donation intents
// @Tags Donations
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param organ_type query string false "Organ type"
// @Success 200 {object} response.Envelope
// @Router /donations/intents [get]
func (h *DonationHandler) ListIntents(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, offset := paginationParams(c)
	query := dto.IntentQuery{
		OrganType: strings.ToUpper(strings.TrimSpace(c.Query("organ_type"))),
		Limit:     limit,
		Offset:    offset,
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		for _, part := range strings.Split(rawStatus, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			query.Status = append(query.Status, models.IntentStatus(part))
		}
	}
	intents, err := h.reader.ListIntents(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intents, nil)
}

// GetIntent godoc
// @Summary Get donation intent detail
// @Tags Donations
// @Produce json
// @Param id path string true "Intent ID"
// @Success 200 {object} response.Envelope
// @Router /donations/intents/{id} [get]
func (h *DonationHandler) GetIntent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	intent, err := h.reader.GetIntent(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intent, nil)
}

// VerifyIntent godoc
// @Summary Verify a donation intent
// @Tags Donations
// @Produce json
// @Param id path string true "Intent ID"
// @Success 200 {object} response.Envelope
// @Router /donations/intents/{id}/verify [post]
func (h *DonationHandler) VerifyIntent(c *gin.Context) {
	intent, err := h.coordinator.VerifyIntent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intent, nil)
}

// CreateMatch godoc
// @Summary Create a donor/patient match
// @Tags Matches
// @Accept json
// @Produce json
// @Param payload body dto.CreateMatchRequest true "Match payload"
// @Success 201 {object} response.Envelope
// @Router /donations/matches [post]
func (h *DonationHandler) CreateMatch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid match payload"))
		return
	}
	match, err := h.coordinator.CreateMatch(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, match, nil)
}

// ListMatches godoc
// @Summary List matches
// @Tags Matches
// @Produce json
// @Param state query string false "Comma separated states"
// @Success 200 {object} response.Envelope
// @Router /donations/matches [get]
func (h *DonationHandler) ListMatches(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, offset := paginationParams(c)
	query := dto.MatchQuery{Limit: limit, Offset: offset}
	if rawState := c.Query("state"); rawState != "" {
		for _, part := range strings.Split(rawState, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			query.State = append(query.State, models.MatchState(part))
		}
	}
	matches, err := h.reader.ListMatches(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matches, nil)
}

// GetMatch godoc
// @Summary Get match detail
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /donations/matches/{id} [get]
func (h *DonationHandler) GetMatch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	match, err := h.reader.GetMatch(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// AcceptMatch godoc
// @Summary Accept a match as the acting participant
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /donations/matches/{id}/accept [post]
func (h *DonationHandler) AcceptMatch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	match, err := h.coordinator.AcceptMatch(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// ConfirmPayment godoc
// @Summary Record payment settlement for a match
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /donations/matches/{id}/payment [post]
func (h *DonationHandler) ConfirmPayment(c *gin.Context) {
	match, err := h.coordinator.ConfirmPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// CompleteDonation godoc
// @Summary Complete a paid match
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /donations/matches/{id}/complete [post]
func (h *DonationHandler) CompleteDonation(c *gin.Context) {
	match, err := h.coordinator.CompleteDonation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}
