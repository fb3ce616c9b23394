package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	loandomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loan"
)

type LoanService interface {
	Get(ctx context.Context, loanID string) (*loandomain.Entity, error)
	List(ctx context.Context, f loandomain.ListFilter) ([]loandomain.Entity, error)
	ListRepayments(ctx context.Context, loanID string) ([]loandomain.Repayment, error)
	PostRepayment(ctx context.Context, borrowerID string, in loandomain.RepaymentInput) (*loandomain.Repayment, error)
	Dashboard(ctx context.Context, userID string) (*loandomain.DashboardSummary, error)
}

type LoanHandler struct {
	loanService LoanService
}

func NewLoanHandler(loanService LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

func renderLoan(l *loandomain.Entity) gin.H {
	return gin.H{
		"id":                l.ID,
		"loan_request_id":   l.LoanRequestID,
		"borrower_id":       l.BorrowerID,
		"principal_minor":   l.PrincipalMinor,
		"interest_minor":    l.InterestMinor,
		"total_minor":       l.TotalMinor,
		"repaid_minor":      l.RepaidMinor,
		"fine_minor":        l.FineMinor,
		"outstanding_minor": l.OutstandingMinor(),
		"interest_rate_bps": l.InterestRateBPS,
		"term_days":         l.TermDays,
		"due_date":          l.DueDate,
		"status":            l.Status,
		"created_at":        l.CreatedAt,
		"updated_at":        l.UpdatedAt,
	}
}

func renderRepayment(r *loandomain.Repayment) gin.H {
	return gin.H{
		"id":                      r.ID,
		"loan_id":                 r.LoanID,
		"amount_minor":            r.AmountMinor,
		"principal_portion_minor": r.PrincipalPortionMinor,
		"interest_portion_minor":  r.InterestPortionMinor,
		"fine_portion_minor":      r.FinePortionMinor,
		"payment_method":          r.PaymentMethod,
		"transaction_reference":   r.TransactionReference,
		"created_at":              r.CreatedAt,
	}
}

func (h *LoanHandler) ListLoans(c *gin.Context) {
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.loanService.List(c.Request.Context(), loandomain.ListFilter{
		BorrowerID: strings.TrimSpace(c.Query("borrower_id")),
		LenderID:   strings.TrimSpace(c.Query("lender_id")),
		Status:     strings.TrimSpace(c.Query("status")),
		Limit:      int32(limit),
		Offset:     int32(offset),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, renderLoan(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *LoanHandler) GetLoan(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	item, err := h.loanService.Get(c.Request.Context(), loanID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderLoan(item))
}

func (h *LoanHandler) ListRepayments(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	items, err := h.loanService.ListRepayments(c.Request.Context(), loanID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, renderRepayment(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *LoanHandler) PostRepayment(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}

	var req struct {
		AmountMinor int64  `json:"amount_minor" binding:"required"`
		Method      string `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	rep, err := h.loanService.PostRepayment(c.Request.Context(), uid, loandomain.RepaymentInput{
		LoanID:      loanID,
		AmountMinor: req.AmountMinor,
		Method:      strings.TrimSpace(req.Method),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderRepayment(rep))
}

func (h *LoanHandler) GetDashboard(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	summary, err := h.loanService.Dashboard(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
