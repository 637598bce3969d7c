package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-health/lifeline-api/internal/dto"
	"github.com/lifeline-health/lifeline-api/internal/middleware"
	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
)

type donationCoordinatorMock struct {
	intentResp   *models.DonationIntent
	intentErr    error
	matchResp    *models.Match
	matchErr     error
	lastIntent   dto.CreateIntentRequest
	lastMatchID  string
	lastActor    *models.JWTClaims
	submitCalled bool
	acceptCalled bool
}

func (m *donationCoordinatorMock) SubmitIntent(ctx context.Context, req dto.CreateIntentRequest, actor *models.JWTClaims) (*models.DonationIntent, error) {
	m.submitCalled = true
	m.lastIntent = req
	m.lastActor = actor
	return m.intentResp, m.intentErr
}

func (m *donationCoordinatorMock) VerifyIntent(ctx context.Context, id string) (*models.DonationIntent, error) {
	return m.intentResp, m.intentErr
}

func (m *donationCoordinatorMock) CreateMatch(ctx context.Context, req dto.CreateMatchRequest, actor *models.JWTClaims) (*models.Match, error) {
	m.lastActor = actor
	return m.matchResp, m.matchErr
}

func (m *donationCoordinatorMock) AcceptMatch(ctx context.Context, id string, actor *models.JWTClaims) (*models.Match, error) {
	m.acceptCalled = true
	m.lastMatchID = id
	m.lastActor = actor
	return m.matchResp, m.matchErr
}

func (m *donationCoordinatorMock) ConfirmPayment(ctx context.Context, id string) (*models.Match, error) {
	m.lastMatchID = id
	return m.matchResp, m.matchErr
}

func (m *donationCoordinatorMock) CompleteDonation(ctx context.Context, id string) (*models.Match, error) {
	m.lastMatchID = id
	return m.matchResp, m.matchErr
}

type donationReaderMock struct {
	intentsResp []models.DonationIntent
	matchesResp []models.Match
	lastQuery   dto.IntentQuery
}

func (m *donationReaderMock) GetIntent(ctx context.Context, id string, actor *models.JWTClaims) (*models.DonationIntent, error) {
	if len(m.intentsResp) == 0 {
		return nil, appErrors.ErrNotFound
	}
	return &m.intentsResp[0], nil
}

func (m *donationReaderMock) ListIntents(ctx context.Context, query dto.IntentQuery, actor *models.JWTClaims) ([]models.DonationIntent, error) {
	m.lastQuery = query
	return m.intentsResp, nil
}

func (m *donationReaderMock) GetMatch(ctx context.Context, id string, actor *models.JWTClaims) (*models.Match, error) {
	if len(m.matchesResp) == 0 {
		return nil, appErrors.ErrNotFound
	}
	return &m.matchesResp[0], nil
}

func (m *donationReaderMock) ListMatches(ctx context.Context, query dto.MatchQuery, actor *models.JWTClaims) ([]models.Match, error) {
	return m.matchesResp, nil
}

func donationTestContext(t *testing.T, method, target, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestDonationHandlerSubmitIntent(t *testing.T) {
	mockCoord := &donationCoordinatorMock{
		intentResp: &models.DonationIntent{ID: "intent-1", OrganType: "KIDNEY"},
	}
	handler := NewDonationHandler(mockCoord, &donationReaderMock{})

	c, w := donationTestContext(t, http.MethodPost, "/donations/intents",
		`{"organ_type":"KIDNEY","donor_hospital_name":"City General"}`,
		&models.JWTClaims{UserID: "donor-1", FullName: "A Donor", Role: models.RoleDonor})

	handler.SubmitIntent(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockCoord.submitCalled)
	assert.Equal(t, "KIDNEY", mockCoord.lastIntent.OrganType)
	assert.Equal(t, "donor-1", mockCoord.lastActor.UserID)
}

func TestDonationHandlerSubmitIntentInvalidBody(t *testing.T) {
	mockCoord := &donationCoordinatorMock{}
	handler := NewDonationHandler(mockCoord, &donationReaderMock{})

	c, w := donationTestContext(t, http.MethodPost, "/donations/intents", "{not-json",
		&models.JWTClaims{UserID: "donor-1", Role: models.RoleDonor})

	handler.SubmitIntent(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockCoord.submitCalled)
}

func TestDonationHandlerListIntentsParsesFilters(t *testing.T) {
	mockReader := &donationReaderMock{intentsResp: []models.DonationIntent{{ID: "intent-1"}}}
	handler := NewDonationHandler(&donationCoordinatorMock{}, mockReader)

	c, w := donationTestContext(t, http.MethodGet,
		"/donations/intents?status=verified,matched&organ_type=kidney", "",
		&models.JWTClaims{UserID: "hospital-1", Role: models.RoleHospital})

	handler.ListIntents(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "KIDNEY", mockReader.lastQuery.OrganType)
	assert.Equal(t, []models.IntentStatus{models.IntentStatusVerified, models.IntentStatusMatched}, mockReader.lastQuery.Status)
}

func TestDonationHandlerAcceptMatch(t *testing.T) {
	mockCoord := &donationCoordinatorMock{
		matchResp: &models.Match{ID: "match-1", State: models.MatchStatePatientAccepted},
	}
	handler := NewDonationHandler(mockCoord, &donationReaderMock{})

	c, w := donationTestContext(t, http.MethodPost, "/donations/matches/match-1/accept", "",
		&models.JWTClaims{UserID: "patient-1", Role: models.RolePatient})
	c.Params = gin.Params{{Key: "id", Value: "match-1"}}

	handler.AcceptMatch(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockCoord.acceptCalled)
	assert.Equal(t, "match-1", mockCoord.lastMatchID)
	assert.Equal(t, models.RolePatient, mockCoord.lastActor.Role)
}

func TestDonationHandlerConfirmPaymentInvalidTransition(t *testing.T) {
	mockCoord := &donationCoordinatorMock{
		matchErr: appErrors.Clone(appErrors.ErrInvalidTransition, "payment requires a confirmed match"),
	}
	handler := NewDonationHandler(mockCoord, &donationReaderMock{})

	c, w := donationTestContext(t, http.MethodPost, "/donations/matches/match-1/payment", "",
		&models.JWTClaims{UserID: "hospital-1", Role: models.RoleHospital})
	c.Params = gin.Params{{Key: "id", Value: "match-1"}}

	handler.ConfirmPayment(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TRANSITION")
}

func TestDonationHandlerGetMatchNotFound(t *testing.T) {
	handler := NewDonationHandler(&donationCoordinatorMock{}, &donationReaderMock{})

	c, w := donationTestContext(t, http.MethodGet, "/donations/matches/missing", "",
		&models.JWTClaims{UserID: "patient-1", Role: models.RolePatient})
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.GetMatch(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
