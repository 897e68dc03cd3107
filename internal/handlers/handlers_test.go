package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betman-backend/internal/config"
	"betman-backend/internal/ledger"
	"betman-backend/internal/middleware"
	"betman-backend/internal/models"
	"betman-backend/internal/rng"
	"betman-backend/internal/services"
	"betman-backend/internal/store"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	jwtService := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})
	auth := services.NewAuth(st, jwtService, 1000)
	bank := ledger.New(st)
	casino := services.NewCasino(bank, &rng.Fixed{Ints: []int{75}}, nil, nil)
	leaderboard := services.NewLeaderboard(st, nil)
	stats := services.NewStats(st, leaderboard)
	market := services.NewMarket(bank)

	authHandler := NewAuthHandler(auth)
	gameHandler := NewGameHandler(casino, bank)
	userHandler := NewUserHandler(st, stats, leaderboard, market)

	router := gin.New()
	router.POST("/auth/signup", authHandler.Signup)
	router.POST("/auth/login", authHandler.Login)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", userHandler.Me)
		protected.GET("/balance", gameHandler.Balance)
		protected.GET("/ranking", userHandler.Ranking)
		protected.POST("/rounds", gameHandler.PlaceBet)
		protected.POST("/market/topup", userHandler.TopUp)
		protected.DELETE("/account", authHandler.DeleteAccount)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signup(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/signup", "", gin.H{
		"username": username, "password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSignupLoginFlow(t *testing.T) {
	router := newTestRouter(t)

	signup(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/auth/signup", "", gin.H{
		"username": "alice", "password": "other1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice", "password": "hunter2",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/balance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/balance", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBalanceAndMe(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "bob")

	rec := doJSON(t, router, http.MethodGet, "/api/balance", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"balance": 1000}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Username string `json:"username"`
		Balance  int    `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "bob", me.Username)
	assert.Equal(t, 1000, me.Balance)
}

func TestPlaceBetOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "carol")

	// scripted roll 75 against threshold 50 doubles the stake
	rec := doJSON(t, router, http.MethodPost, "/api/rounds", token, gin.H{
		"game": "dice", "amount": 100, "threshold": 50,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.RoundResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Win)
	assert.Equal(t, 200, resp.Payout)
	require.NotNil(t, resp.Balance)
	assert.Equal(t, 1100, *resp.Balance)
}

func TestPlaceBetValidation(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "dana")

	rec := doJSON(t, router, http.MethodPost, "/api/rounds", token, gin.H{
		"game": "dice", "amount": 50, "threshold": 50,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/rounds", token, gin.H{
		"game": "dice", "amount": 100000, "threshold": 50,
	})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestTopUpAndRanking(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "erin")

	rec := doJSON(t, router, http.MethodPost, "/api/market/topup", token, gin.H{"pack": "small"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"balance": 2000}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/market/topup", token, gin.H{"pack": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/ranking", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ranking struct {
		Rankings []models.UserRanking `json:"rankings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranking))
	require.Len(t, ranking.Rankings, 1)
	assert.Equal(t, 2000, ranking.Rankings[0].Balance)
}

func TestRoundErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &GameHandler{}

	cases := []struct {
		err  error
		code int
	}{
		{ledger.ErrInsufficientFunds, http.StatusPaymentRequired},
		{services.ErrRoundInFlight, http.StatusConflict},
		{services.ErrRoundNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: disk I/O error", ledger.ErrSettleFailed), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		h.roundError(c, tc.err)
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}

	// a settlement failure must not leak its cause to the client
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	h.roundError(c, fmt.Errorf("%w: disk I/O error", ledger.ErrSettleFailed))
	assert.NotContains(t, rec.Body.String(), "disk I/O error")
}

func TestDeleteAccount(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "frank")

	rec := doJSON(t, router, http.MethodDelete, "/api/account", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
