package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"betman-backend/internal/ledger"
	"betman-backend/internal/models"
	"betman-backend/internal/services"
)

type GameHandler struct {
	casino *services.Casino
	ledger *ledger.Ledger
}

func NewGameHandler(casino *services.Casino, l *ledger.Ledger) *GameHandler {
	return &GameHandler{casino: casino, ledger: l}
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.casino.PlaceBet(c.Request.Context(), userID, &req)
	if err != nil {
		h.roundError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Reveal uncovers a cell in an open mines round.
func (h *GameHandler) Reveal(c *gin.Context) {
	userID := c.GetInt64("user_id")
	roundID := c.Param("id")

	var req struct {
		Cell *int `json:"cell" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cell is required"})
		return
	}

	resp, err := h.casino.RevealMine(c.Request.Context(), userID, roundID, *req.Cell)
	if err != nil {
		h.roundError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CashOut banks the accumulated winnings of an open mines round.
func (h *GameHandler) CashOut(c *gin.Context) {
	userID := c.GetInt64("user_id")
	roundID := c.Param("id")

	resp, err := h.casino.CashOutMines(c.Request.Context(), userID, roundID)
	if err != nil {
		h.roundError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Pick chooses a column on the current dragon tower row.
func (h *GameHandler) Pick(c *gin.Context) {
	userID := c.GetInt64("user_id")
	roundID := c.Param("id")

	var req struct {
		Column *int `json:"column" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "column is required"})
		return
	}

	resp, err := h.casino.PickTower(c.Request.Context(), userID, roundID, *req.Column)
	if err != nil {
		h.roundError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GameHandler) Hit(c *gin.Context) {
	userID := c.GetInt64("user_id")
	roundID := c.Param("id")

	resp, err := h.casino.Hit(c.Request.Context(), userID, roundID)
	if err != nil {
		h.roundError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GameHandler) Stand(c *gin.Context) {
	userID := c.GetInt64("user_id")
	roundID := c.Param("id")

	resp, err := h.casino.Stand(c.Request.Context(), userID, roundID)
	if err != nil {
		h.roundError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GameHandler) ActiveRound(c *gin.Context) {
	userID := c.GetInt64("user_id")

	roundID, ok := h.casino.ActiveRound(userID)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"active": true, "round_id": roundID})
}

func (h *GameHandler) Balance(c *gin.Context) {
	userID := c.GetInt64("user_id")

	balance, err := h.ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *GameHandler) roundError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient balance"})
	case errors.Is(err, services.ErrRoundInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "Finish your current round first"})
	case errors.Is(err, services.ErrRoundNotFound), errors.Is(err, services.ErrNotYourRound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Round not found"})
	case errors.Is(err, ledger.ErrSettleFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to settle round"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func parseLimit(c *gin.Context, fallback, max int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
