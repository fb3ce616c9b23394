package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	walletdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/wallet"
)

type WalletService interface {
	Get(ctx context.Context, userID string) (*walletdomain.Entity, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int32) ([]walletdomain.Transaction, error)
	Deposit(ctx context.Context, userID string, amountMinor int64, reference string) (*walletdomain.Transaction, error)
	Withdraw(ctx context.Context, userID string, amountMinor int64, reference string) (*walletdomain.Transaction, error)
	Reconcile(ctx context.Context) ([]walletdomain.Divergence, error)
}

type WalletHandler struct {
	walletService WalletService
}

func NewWalletHandler(walletService WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

func renderWallet(w *walletdomain.Entity) gin.H {
	return gin.H{
		"id":              w.ID,
		"user_id":         w.UserID,
		"available_minor": w.AvailableMinor,
		"escrow_minor":    w.EscrowMinor,
		"currency":        w.Currency,
		"updated_at":      w.UpdatedAt,
	}
}

func renderTransaction(t *walletdomain.Transaction) gin.H {
	return gin.H{
		"id":           t.ID,
		"type":         t.Type,
		"amount_minor": t.AmountMinor,
		"reference_id": t.ReferenceID,
		"description":  t.Description,
		"request_id":   t.Metadata.RequestID,
		"loan_id":      t.Metadata.LoanID,
		"created_at":   t.CreatedAt,
	}
}

func (h *WalletHandler) GetMyWallet(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	w, err := h.walletService.Get(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderWallet(w))
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.walletService.ListTransactions(c.Request.Context(), uid, int32(limit), int32(offset))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, renderTransaction(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *WalletHandler) Deposit(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		AmountMinor int64  `json:"amount_minor" binding:"required"`
		Reference   string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	tx, err := h.walletService.Deposit(c.Request.Context(), uid, req.AmountMinor, strings.TrimSpace(req.Reference))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderTransaction(tx))
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		AmountMinor int64  `json:"amount_minor" binding:"required"`
		Reference   string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	tx, err := h.walletService.Withdraw(c.Request.Context(), uid, req.AmountMinor, strings.TrimSpace(req.Reference))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderTransaction(tx))
}

// Reconcile replays every ledger on demand. Divergences are reported, never
// corrected.
func (h *WalletHandler) Reconcile(c *gin.Context) {
	divergences, err := h.walletService.Reconcile(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(divergences))
	for _, d := range divergences {
		out = append(out, gin.H{
			"user_id":                  d.UserID,
			"stored_available_minor":   d.StoredAvailableMinor,
			"stored_escrow_minor":      d.StoredEscrowMinor,
			"replayed_available_minor": d.ReplayedAvailableMinor,
			"replayed_escrow_minor":    d.ReplayedEscrowMinor,
		})
	}
	c.JSON(http.StatusOK, gin.H{"divergences": out})
}
