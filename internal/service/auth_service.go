package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/config"
	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenType = "access"

// Claims полезная нагрузка access-токена
type Claims struct {
	Role models.Role `json:"role"`
	Type string      `json:"type"`
	jwt.RegisteredClaims
}

// UserID достаёт id пользователя из subject
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// GoogleProfile данные пользователя из Google userinfo
type GoogleProfile struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

type AuthService interface {
	Register(ctx context.Context, input *models.RegisterInput) (*models.AuthTokens, error)
	Login(ctx context.Context, input *models.LoginInput) (*models.AuthTokens, error)
	LoginWithGoogle(ctx context.Context, profile *GoogleProfile) (*models.AuthTokens, error)
	ParseToken(token string) (*Claims, error)
	Me(ctx context.Context, userID int64) (*models.User, error)
	CreateAdmin(ctx context.Context, email, name, password string) (*models.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	secret   []byte
	ttl      time.Duration
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, cfg config.AuthConfig, logger *zap.Logger) AuthService {
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		userRepo: userRepo,
		secret:   []byte(cfg.JWTSecret),
		ttl:      ttl,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, input *models.RegisterInput) (*models.AuthTokens, error) {
	user, err := s.createUser(ctx, input.Email, input.Name, input.Password, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, input *models.LoginInput) (*models.AuthTokens, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// у пользователей Google пароля нет
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// LoginWithGoogle находит пользователя по email или создаёт нового
func (s *authService) LoginWithGoogle(ctx context.Context, profile *GoogleProfile) (*models.AuthTokens, error) {
	email := normalizeEmail(profile.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: google не вернул email", ErrUnauthorized)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUserNotFound):
		user = &models.User{
			Email:           email,
			Name:            profile.Name,
			Role:            models.RoleUser,
			Provider:        models.ProviderGoogle,
			IsEmailVerified: profile.VerifiedEmail,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("Создан пользователь через Google", zap.Int64("user_id", user.ID))
	default:
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Type != accessTokenType {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) CreateAdmin(ctx context.Context, email, name, password string) (*models.User, error) {
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: пароль короче 8 символов", ErrInvalidArgument)
	}
	return s.createUser(ctx, email, name, password, models.RoleAdmin)
}

func (s *authService) createUser(ctx context.Context, email, name, password string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        normalizeEmail(email),
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		Provider:     models.ProviderLocal,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) issue(user *models.User) (*models.AuthTokens, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		Role: user.Role,
		Type: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &models.AuthTokens{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
