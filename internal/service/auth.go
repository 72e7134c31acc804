package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"

	"github.com/lmstore/backend/internal/hash"
	"github.com/lmstore/backend/internal/logging"
	"github.com/lmstore/backend/internal/models"
	"github.com/lmstore/backend/internal/repo"
	"github.com/lmstore/backend/internal/tokens"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 30 * 24 * time.Hour

	refreshTokenBytes = 64
)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
}

type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// ValidatePassword returns the list of policy violations; an empty list
// means the password is acceptable.
func (s *AuthService) ValidatePassword(password string) []string {
	var violations []string
	if len(password) < 8 {
		violations = append(violations, "password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		}
	}
	if !hasUpper {
		violations = append(violations, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain at least one number")
	}
	return violations
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if username == "" {
		return nil, fmt.Errorf("%w: username required", ErrValidation)
	}
	if violations := s.ValidatePassword(password); len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(violations, "; "))
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("hash password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         "user",
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExists) {
			return nil, fmt.Errorf("%w: user already exists", ErrValidation)
		}
		l.Error("create user", "error", err)
		return nil, err
	}

	l.Info("user registered", "user_id", user.ID, "username", user.Username)
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password, device string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	if err := s.Repo.DeleteExpiredRefreshTokens(ctx, time.Now()); err != nil {
		l.Warn("purge expired refresh tokens", "error", err)
	}

	return s.issueTokens(ctx, user, device)
}

// Refresh rotates the presented refresh token. The old token never validates
// again after the first successful rotation, even under concurrent replay.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, device string) (*LoginResult, error) {
	userID, err := s.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
		}
		return nil, err
	}

	opaque, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	refreshExp := time.Now().Add(RefreshTokenTTL)
	fresh := models.RefreshToken{
		UserID:     user.ID,
		TokenHash:  HashToken(opaque),
		DeviceInfo: device,
		ExpiresAt:  refreshExp,
	}
	if err := s.Repo.RotateRefreshToken(ctx, HashToken(refreshToken), &fresh); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost the race: someone already rotated this token.
			return nil, fmt.Errorf("%w: refresh token already used", ErrUnauthorized)
		}
		return nil, err
	}

	accessExp := time.Now().Add(AccessTokenTTL)
	accessToken, err := tokens.NewAccessToken(s.JWTSecret, user.ID, user.Role, accessExp)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: opaque,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// VerifyRefreshToken resolves an opaque refresh token to its owner. Unknown
// and expired tokens both fail unauthorized.
func (s *AuthService) VerifyRefreshToken(ctx context.Context, refreshToken string) (uint, error) {
	record, err := s.Repo.FindRefreshByHash(ctx, HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
		}
		return 0, err
	}
	if time.Now().After(record.ExpiresAt) {
		return 0, fmt.Errorf("%w: refresh token expired", ErrUnauthorized)
	}
	return record.UserID, nil
}

func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.DeleteRefreshByHash(ctx, HashToken(refreshToken))
}

// ResolveUser validates a bearer access token and loads its subject.
func (s *AuthService) ResolveUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := tokens.AccessClaimsFromToken(accessToken, s.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid access token", ErrUnauthorized)
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject claim", ErrUnauthorized)
	}

	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User, device string) (*LoginResult, error) {
	accessExp := time.Now().Add(AccessTokenTTL)
	accessToken, err := tokens.NewAccessToken(s.JWTSecret, user.ID, user.Role, accessExp)
	if err != nil {
		return nil, err
	}

	opaque, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	refreshExp := time.Now().Add(RefreshTokenTTL)
	record := models.RefreshToken{
		UserID:     user.ID,
		TokenHash:  HashToken(opaque),
		DeviceInfo: device,
		ExpiresAt:  refreshExp,
	}
	if err := s.Repo.CreateRefreshToken(ctx, &record); err != nil {
		return nil, err
	}

	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: opaque,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// HashToken is the at-rest form of a refresh token; raw tokens are never
// stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
