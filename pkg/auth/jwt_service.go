package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "devconnector-api"

var (
	// ErrTokenInvalid covers bad signatures, expiry and malformed tokens.
	ErrTokenInvalid = errors.New("token is not valid")
	// ErrVerifierMisconfigured means the service cannot verify anything, whatever the token.
	ErrVerifierMisconfigured = errors.New("token verifier misconfigured")
)

type JWTService struct {
	secretKey     []byte
	tokenLifespan time.Duration
}

type CustomClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey string, tokenLifespan time.Duration) *JWTService {
	return &JWTService{
		secretKey:     []byte(secretKey),
		tokenLifespan: tokenLifespan,
	}
}

func (s *JWTService) TokenLifespan() time.Duration {
	return s.tokenLifespan
}

func (s *JWTService) GenerateToken(userID uuid.UUID) (string, error) {
	if len(s.secretKey) == 0 {
		return "", ErrVerifierMisconfigured
	}

	now := time.Now()
	claims := CustomClaims{
		userID,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenLifespan)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   userID.String(),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("cannot sign token: %w", err)
	}

	return signedString, nil
}

// ValidateToken returns ErrVerifierMisconfigured when no secret is set and
// ErrTokenInvalid for any token the secret does not accept.
func (s *JWTService) ValidateToken(tokenString string) (*CustomClaims, error) {
	if len(s.secretKey) == 0 {
		return nil, ErrVerifierMisconfigured
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signature algorithm: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
