package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"betman-backend/internal/models"
	"betman-backend/internal/services"
	"betman-backend/internal/store"
)

const maxProfileImageBytes = 1 << 20 // 1 MiB

type UserHandler struct {
	store       *store.Store
	stats       *services.Stats
	leaderboard *services.Leaderboard
	market      *services.Market
}

func NewUserHandler(st *store.Store, stats *services.Stats, lb *services.Leaderboard, market *services.Market) *UserHandler {
	return &UserHandler{store: st, stats: stats, leaderboard: lb, market: market}
}

func (h *UserHandler) Me(c *gin.Context) {
	userID := c.GetInt64("user_id")

	user, err := h.store.Users().GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"balance":      user.Balance,
		"country_code": user.CountryCode,
		"has_image":    len(user.ProfileImage) > 0,
	})
}

func (h *UserHandler) Stats(c *gin.Context) {
	userID := c.GetInt64("user_id")

	stats, err := h.stats.ForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *UserHandler) Ranking(c *gin.Context) {
	n := parseLimit(c, services.LeaderboardSize, 50)

	rankings, err := h.leaderboard.TopN(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rankings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rankings": rankings})
}

func (h *UserHandler) RecentBets(c *gin.Context) {
	n := parseLimit(c, 20, 100)

	bets, err := h.store.Bets().Latest(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load bets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bets": bets})
}

func (h *UserHandler) TopUp(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	balance, err := h.market.TopUp(c.Request.Context(), userID, req.Pack)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	userID := c.GetInt64("user_id")

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxProfileImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image"})
		return
	}
	if len(data) == 0 || len(data) > maxProfileImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image must be between 1 byte and 1 MiB"})
		return
	}

	if err := h.store.Users().UpdateProfileImage(c.Request.Context(), userID, data); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile image updated"})
}

func (h *UserHandler) ProfileImage(c *gin.Context) {
	userID := c.GetInt64("user_id")

	user, err := h.store.Users().GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	if len(user.ProfileImage) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	c.Data(http.StatusOK, http.DetectContentType(user.ProfileImage), user.ProfileImage)
}
