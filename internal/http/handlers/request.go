package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	requestdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loanrequest"
)

type RequestService interface {
	Create(ctx context.Context, borrowerID string, in requestdomain.CreateRequestInput) (*requestdomain.Entity, error)
	Get(ctx context.Context, id string) (*requestdomain.Entity, error)
	List(ctx context.Context, f requestdomain.ListFilter) ([]requestdomain.Entity, error)
	ListSplits(ctx context.Context, requestID string) ([]requestdomain.Split, error)
	AcceptSplit(ctx context.Context, requestID, lenderID string, amountMinor int64) (*requestdomain.Split, error)
	Cancel(ctx context.Context, requestID, callerID string) error
}

type RequestHandler struct {
	requestService RequestService
}

func NewRequestHandler(requestService RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func renderRequest(r *requestdomain.Entity) gin.H {
	return gin.H{
		"id":                   r.ID,
		"borrower_id":          r.BorrowerID,
		"amount_minor":         r.AmountMinor,
		"amount_funded_minor":  r.AmountFundedMinor,
		"remaining_minor":      r.RemainingMinor(),
		"interest_rate_bps":    r.InterestRateBPS,
		"term_days":            r.TermDays,
		"status":               r.Status,
		"purpose":              r.Purpose,
		"expires_at":           r.ExpiresAt,
		"visibility_radius_km": r.VisibilityRadiusKM,
		"created_at":           r.CreatedAt,
		"updated_at":           r.UpdatedAt,
	}
}

func renderSplit(s *requestdomain.Split) gin.H {
	return gin.H{
		"id":                       s.ID,
		"loan_request_id":          s.LoanRequestID,
		"lender_id":                s.LenderID,
		"amount_contributed_minor": s.AmountContributedMinor,
		"interest_rate_bps":        s.InterestRateBPS,
		"platform_fee_minor":       s.PlatformFeeMinor,
		"status":                   s.Status,
		"created_at":               s.CreatedAt,
	}
}

func (h *RequestHandler) CreateRequest(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		AmountMinor        int64  `json:"amount_minor" binding:"required"`
		InterestRateBPS    int32  `json:"interest_rate_bps"`
		TermDays           int32  `json:"term_days" binding:"required"`
		Purpose            string `json:"purpose"`
		VisibilityRadiusKM int32  `json:"visibility_radius_km"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	out, err := h.requestService.Create(c.Request.Context(), uid, requestdomain.CreateRequestInput{
		AmountMinor:        req.AmountMinor,
		InterestRateBPS:    req.InterestRateBPS,
		TermDays:           req.TermDays,
		Purpose:            strings.TrimSpace(req.Purpose),
		VisibilityRadiusKM: req.VisibilityRadiusKM,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderRequest(out))
}

func (h *RequestHandler) ListRequests(c *gin.Context) {
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.requestService.List(c.Request.Context(), requestdomain.ListFilter{
		BorrowerID: strings.TrimSpace(c.Query("borrower_id")),
		Status:     strings.TrimSpace(c.Query("status")),
		OpenOnly:   c.Query("open") == "true",
		Limit:      int32(limit),
		Offset:     int32(offset),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, renderRequest(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *RequestHandler) GetRequest(c *gin.Context) {
	requestID := strings.TrimSpace(c.Param("requestId"))
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_request_id"})
		return
	}
	item, err := h.requestService.Get(c.Request.Context(), requestID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderRequest(item))
}

func (h *RequestHandler) ListSplits(c *gin.Context) {
	requestID := strings.TrimSpace(c.Param("requestId"))
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_request_id"})
		return
	}
	items, err := h.requestService.ListSplits(c.Request.Context(), requestID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, renderSplit(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *RequestHandler) AcceptSplit(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	requestID := strings.TrimSpace(c.Param("requestId"))
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_request_id"})
		return
	}

	var req struct {
		AmountMinor int64 `json:"amount_minor" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	split, err := h.requestService.AcceptSplit(c.Request.Context(), requestID, uid, req.AmountMinor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderSplit(split))
}

func (h *RequestHandler) CancelRequest(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	requestID := strings.TrimSpace(c.Param("requestId"))
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_request_id"})
		return
	}
	if err := h.requestService.Cancel(c.Request.Context(), requestID, uid); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": requestdomain.StatusCancelled})
}
