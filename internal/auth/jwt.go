package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/models"
)

// AccessTokenType is the token_type claim value accepted by the verifier
const AccessTokenType = "access"

// UserLookup loads a user with its profile
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// JWTConfig holds the access token verification settings
type JWTConfig struct {
	Secret string
	Issuer string
	Leeway time.Duration
}

// JWTVerifier verifies HS256 access tokens and loads the token's user
type JWTVerifier struct {
	config JWTConfig
	users  UserLookup
}

// NewJWTVerifier creates a new JWT verifier
func NewJWTVerifier(cfg JWTConfig, users UserLookup) *JWTVerifier {
	return &JWTVerifier{
		config: cfg,
		users:  users,
	}
}

// Verify validates the token and returns the principal of its user. Token
// problems and unknown or inactive users wrap ErrInvalid; user store failures
// are returned as-is.
func (v *JWTVerifier) Verify(ctx context.Context, raw string) (*models.Principal, error) {
	if raw == "" {
		return nil, ErrAbsent
	}

	claims := &models.AccessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.config.Secret), nil
	}, v.parserOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if claims.TokenType != AccessTokenType {
		return nil, fmt.Errorf("%w: token has wrong type %q", ErrInvalid, claims.TokenType)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: token contained no recognizable user identification", ErrInvalid)
	}

	user, err := v.users.GetByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrInvalid)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user is inactive", ErrInvalid)
	}

	return models.PrincipalFromUser(user), nil
}

func (v *JWTVerifier) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(v.config.Leeway))
	}
	return opts
}
