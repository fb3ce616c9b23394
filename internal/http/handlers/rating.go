package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	ratingdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/rating"
)

type RatingService interface {
	Create(ctx context.Context, in ratingdomain.CreateInput) (*ratingdomain.Entity, error)
	ListForUser(ctx context.Context, toUserID string, limit, offset int32) ([]ratingdomain.Entity, error)
	UserSummary(ctx context.Context, toUserID string) (*ratingdomain.UserSummary, error)
}

type RatingHandler struct {
	ratingService RatingService
}

func NewRatingHandler(ratingService RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

func renderRating(r *ratingdomain.Entity) gin.H {
	return gin.H{
		"id":           r.ID,
		"loan_id":      r.LoanID,
		"from_user_id": r.FromUserID,
		"to_user_id":   r.ToUserID,
		"rating":       r.Rating,
		"comment":      r.Comment,
		"created_at":   r.CreatedAt,
	}
}

func (h *RatingHandler) CreateRating(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		LoanID   string `json:"loan_id" binding:"required"`
		ToUserID string `json:"to_user_id" binding:"required"`
		Rating   int32  `json:"rating" binding:"required"`
		Comment  string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	out, err := h.ratingService.Create(c.Request.Context(), ratingdomain.CreateInput{
		LoanID:     strings.TrimSpace(req.LoanID),
		FromUserID: uid,
		ToUserID:   strings.TrimSpace(req.ToUserID),
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderRating(out))
}

func (h *RatingHandler) ListUserRatings(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_user_id"})
		return
	}
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.ratingService.ListForUser(c.Request.Context(), userID, int32(limit), int32(offset))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, renderRating(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *RatingHandler) GetUserRatingSummary(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_user_id"})
		return
	}
	summary, err := h.ratingService.UserSummary(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
