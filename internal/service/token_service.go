package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arka-widjaja/timetable-engine/internal/models"
	appErrors "github.com/arka-widjaja/timetable-engine/pkg/errors"
	"github.com/arka-widjaja/timetable-engine/pkg/config"
)

// TokenService issues and validates the stateless bearer tokens that gate
// the HTTP collaborator layer. It holds no user store: callers present an
// operator id and role out of band (an operator provisioning step outside
// this module's scope) and are handed a signed token back.
type TokenService struct {
	secret     []byte
	expiration time.Duration
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{secret: []byte(cfg.Secret), expiration: cfg.Expiration}
}

// Issue mints a signed token for the given operator identity and role.
func (s *TokenService) Issue(operatorID string, role models.OperatorRole) (string, error) {
	now := time.Now().UTC()
	claims := models.OperatorClaims{
		OperatorID: operatorID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token, returning its claims.
func (s *TokenService) ValidateToken(raw string) (*models.OperatorClaims, error) {
	claims := &models.OperatorClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}
