package jwt

import (
	"time"

	"parking-booking/internal/domain/user"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errs.New("invalid token")
	ErrExpiredToken = errs.New("token expired")
)

// Claims is the token layout issued by the identity service.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	secretKey     []byte
	tokenDuration time.Duration
	clock         clock.Clock
}

func NewService(secretKey string, tokenDuration time.Duration, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Service{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		clock:         clk,
	}
}

// Issue signs a token for the actor. The service itself only verifies;
// issuing exists for local tooling and tests.
func (s *Service) Issue(actor user.Actor) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		UserID: actor.ID,
		Role:   actor.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", errs.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the asserted actor.
func (s *Service) Verify(tokenString string) (user.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(*jwt.Token) (any, error) { return s.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errs.Is(err, jwt.ErrTokenExpired) {
			return user.Actor{}, ErrExpiredToken
		}
		return user.Actor{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return user.Actor{}, ErrInvalidToken
	}
	role, err := user.NewRole(claims.Role)
	if err != nil {
		return user.Actor{}, ErrInvalidToken
	}
	return user.NewActor(claims.UserID, role), nil
}
