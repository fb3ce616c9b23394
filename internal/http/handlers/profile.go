package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	profiledomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/profile"
)

type ProfileService interface {
	Get(ctx context.Context, userID string) (*profiledomain.Entity, error)
	UpdateContact(ctx context.Context, userID string, in profiledomain.ContactUpdate) (*profiledomain.Entity, error)
	SubmitKYC(ctx context.Context, userID string) error
	VerifyKYC(ctx context.Context, userID, tier string) error
	RejectKYC(ctx context.Context, userID string) error
	Blacklist(ctx context.Context, userID string) error
}

type ProfileHandler struct {
	profileService ProfileService
}

func NewProfileHandler(profileService ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func renderProfile(p *profiledomain.Entity) gin.H {
	return gin.H{
		"id":                    p.ID,
		"user_id":               p.UserID,
		"email":                 p.Email,
		"full_name":             p.FullName,
		"phone":                 p.Phone,
		"kyc_status":            p.KYCStatus,
		"credit_tier":           p.CreditTier,
		"borrowing_limit_minor": p.BorrowingLimitMinor,
		"total_borrowed_minor":  p.TotalBorrowedMinor,
		"total_lent_minor":      p.TotalLentMinor,
		"successful_repayments": p.SuccessfulRepayments,
		"is_blacklisted":        p.IsBlacklisted,
		"created_at":            p.CreatedAt,
		"updated_at":            p.UpdatedAt,
	}
}

func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	p, err := h.profileService.Get(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderProfile(p))
}

func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		FullName     string `json:"full_name"`
		Phone        string `json:"phone"`
		PANNumber    string `json:"pan_number"`
		AadharNumber string `json:"aadhar_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	p, err := h.profileService.UpdateContact(c.Request.Context(), uid, profiledomain.ContactUpdate{
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		PANNumber:    strings.TrimSpace(req.PANNumber),
		AadharNumber: strings.TrimSpace(req.AadharNumber),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderProfile(p))
}

func (h *ProfileHandler) SubmitKYC(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.profileService.SubmitKYC(c.Request.Context(), uid); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kyc_status": profiledomain.KYCSubmitted})
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_user_id"})
		return
	}
	p, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderProfile(p))
}

func (h *ProfileHandler) VerifyKYC(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_user_id"})
		return
	}

	var req struct {
		CreditTier string `json:"credit_tier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.profileService.VerifyKYC(c.Request.Context(), userID, strings.TrimSpace(req.CreditTier)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kyc_status": profiledomain.KYCVerified})
}

func (h *ProfileHandler) RejectKYC(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_user_id"})
		return
	}
	if err := h.profileService.RejectKYC(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kyc_status": profiledomain.KYCRejected})
}

func (h *ProfileHandler) Blacklist(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_user_id"})
		return
	}
	if err := h.profileService.Blacklist(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_blacklisted": true})
}
