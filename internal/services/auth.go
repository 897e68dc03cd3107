package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"betman-backend/internal/config"
	"betman-backend/internal/models"
	"betman-backend/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{
		secret: []byte(cfg.JWTSecret),
		ttl:    24 * time.Hour,
	}
}

func (s *JWTService) GenerateToken(userID int64, username string) (string, error) {
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Auth covers signup, login and account deletion. New accounts start with
// the configured balance, the way the original casino seeded every player.
type Auth struct {
	store           *store.Store
	jwt             *JWTService
	startingBalance int
}

func NewAuth(st *store.Store, jwtService *JWTService, startingBalance int) *Auth {
	return &Auth{store: st, jwt: jwtService, startingBalance: startingBalance}
}

func (a *Auth) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:    req.Username,
		Password:    string(hash),
		Balance:     a.startingBalance,
		CountryCode: req.CountryCode,
	}
	if err := a.store.Users().Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := a.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user signed up")
	return user, token, nil
}

func (a *Auth) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	user, err := a.store.Users().GetByUsername(ctx, req.Username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := a.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// DeleteAccount removes the user and their bet history in one cascade.
func (a *Auth) DeleteAccount(ctx context.Context, userID int64) error {
	return a.store.Users().Delete(ctx, userID)
}
