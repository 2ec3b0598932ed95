package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"assessment-service/internal/service"
)

type CertificateHandler struct {
	Service *service.CertificateService
}

func NewCertificateHandler(s *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{Service: s}
}

// Mine returns the caller's most recent certificate.
func (h *CertificateHandler) Mine(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	cert, err := h.Service.LatestForUser(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cert})
}

// Verify is the public verification lookup by certificate UID.
func (h *CertificateHandler) Verify(c *gin.Context) {
	cert, err := h.Service.VerifyByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"is_verified":     true,
		"awarded_level":   cert.Level,
		"issued_at":       cert.IssuedAt,
		"certificate_uid": cert.CertificateUID,
	})
}

// Revoke invalidates a certificate (admin surface).
func (h *CertificateHandler) Revoke(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Service.Revoke(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Certificate revoked"})
}
