package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
	"github.com/lifeline-health/lifeline-api/pkg/response"
)

type certificateService interface {
	SignedURL(ctx context.Context, intentID string, actor *models.JWTClaims) (string, time.Time, error)
	Download(token string) (*os.File, error)
}

// CertificateHandler serves donation certificate links and downloads.
type CertificateHandler struct {
	certificates certificateService
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(certificates certificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// SignedURL godoc
// @Summary Issue a signed certificate download link
// @Tags Certificates
// @Produce json
// @Param id path string true "Intent ID"
// @Success 200 {object} response.Envelope
// @Router /donations/intents/{id}/certificate [get]
func (h *CertificateHandler) SignedURL(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	token, expiresAt, err := h.certificates.SignedURL(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"download_url": "/certificates/download?token=" + token,
		"expires_at":   expiresAt,
	}, nil)
}

// Download godoc
// @Summary Download a certificate with a signed token
// @Tags Certificates
// @Produce application/pdf
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /certificates/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, err := h.certificates.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat certificate"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="donation-certificate.pdf"`)
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
