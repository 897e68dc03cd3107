package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"betman-backend/internal/config"
	"betman-backend/internal/handlers"
	"betman-backend/internal/ledger"
	"betman-backend/internal/middleware"
	"betman-backend/internal/rng"
	"betman-backend/internal/services"
	"betman-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	if cfg.Env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open database")
	}
	defer st.Close()

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, continuing without cache")
		redisService = nil
	} else {
		defer redisService.Close()
	}

	jwtService := services.NewJWTService(cfg)
	auth := services.NewAuth(st, jwtService, cfg.StartingBalance)

	bank := ledger.New(st)
	hub := handlers.NewHub()
	casino := services.NewCasino(bank, rng.New(), hub, redisService)
	leaderboard := services.NewLeaderboard(st, redisService)
	stats := services.NewStats(st, leaderboard)
	market := services.NewMarket(bank)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			casino.CleanupStaleRounds(context.Background(), 10*time.Minute)
		}
	}()

	authHandler := handlers.NewAuthHandler(auth)
	gameHandler := handlers.NewGameHandler(casino, bank)
	userHandler := handlers.NewUserHandler(st, stats, leaderboard, market)

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/signup", authHandler.Signup)
	router.POST("/auth/login", authHandler.Login)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisService))
	{
		protected.GET("/me", userHandler.Me)
		protected.GET("/balance", gameHandler.Balance)
		protected.GET("/stats", userHandler.Stats)
		protected.GET("/ranking", userHandler.Ranking)
		protected.GET("/bets", userHandler.RecentBets)
		protected.DELETE("/account", authHandler.DeleteAccount)

		protected.GET("/profile/image", userHandler.ProfileImage)
		protected.PUT("/profile/image", userHandler.UploadProfileImage)

		protected.GET("/ws", hub.ServeWS)

		rounds := protected.Group("/rounds")
		{
			rounds.POST("", gameHandler.PlaceBet)
			rounds.GET("/active", gameHandler.ActiveRound)
			rounds.POST("/:id/reveal", gameHandler.Reveal)
			rounds.POST("/:id/cashout", gameHandler.CashOut)
			rounds.POST("/:id/pick", gameHandler.Pick)
			rounds.POST("/:id/hit", gameHandler.Hit)
			rounds.POST("/:id/stand", gameHandler.Stand)
		}

		shop := protected.Group("/market")
		{
			shop.POST("/topup", userHandler.TopUp)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logrus.WithField("port", port).Info("Server starting")
	if err := router.Run(":" + port); err != nil {
		logrus.WithError(err).Fatal("Failed to start server")
	}
}
