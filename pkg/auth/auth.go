// Package auth implements user registration, credential verification and
// bearer token issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"library-api/pkg/models"
)

var (
	// ErrInvalidCredentials covers both unknown username and wrong
	// password so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSigningKeyMissing means the service is misconfigured. Login must
	// fail outright rather than issue an unsigned or weakly signed token.
	ErrSigningKeyMissing = errors.New("jwt signing key missing from configuration")
)

const DefaultRole = "User"

// TokenConfig is the signing configuration handed to the service at
// construction. Secret has no default.
type TokenConfig struct {
	Secret         string
	Issuer         string
	Audience       string
	ExpiresMinutes int
}

// Claims is the payload of every issued token.
type Claims struct {
	UniqueName string `json:"unique_name"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Credentials is returned on successful login.
type Credentials struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
	Username         string `json:"username"`
	Role             string `json:"role"`
}

type Service struct {
	db     *gorm.DB
	tokens TokenConfig
}

func NewService(db *gorm.DB, tokens TokenConfig) *Service {
	if tokens.ExpiresMinutes <= 0 {
		tokens.ExpiresMinutes = 60
	}
	return &Service{db: db, tokens: tokens}
}

// Register creates a new user. It returns false when the username is
// already taken (case-sensitive exact match); that is a normal outcome,
// not an error. The raw password never leaves this function.
func (s *Service) Register(ctx context.Context, username, password, role string) (bool, error) {
	username = strings.TrimSpace(username)

	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check username %s: %w", username, err)
	}
	if count > 0 {
		return false, nil
	}

	role = strings.TrimSpace(role)
	if role == "" {
		role = DefaultRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		UserUid:      uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Racing registration for the same username lands on the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create user: %w", err)
	}

	return true, nil
}

// Login verifies the credentials and mints a signed token. Unknown user
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*Credentials, error) {
	username = strings.TrimSpace(username)

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user %s: %w", username, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.mintToken(&user)
}

func (s *Service) mintToken(user *models.User) (*Credentials, error) {
	if strings.TrimSpace(s.tokens.Secret) == "" {
		return nil, ErrSigningKeyMissing
	}

	now := time.Now()
	claims := Claims{
		UniqueName: user.Username,
		Name:       user.Username,
		Role:       user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserUid,
			Issuer:    s.tokens.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.tokens.ExpiresMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if s.tokens.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.tokens.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.tokens.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Credentials{
		AccessToken:      signed,
		TokenType:        "Bearer",
		ExpiresInSeconds: s.tokens.ExpiresMinutes * 60,
		Username:         user.Username,
		Role:             user.Role,
	}, nil
}

// ValidateToken parses and verifies a token issued by Login.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.tokens.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
