//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"parking-booking/internal/domain/user"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/config"
	"parking-booking/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// JWTHelper mints tokens the way the identity service would.
type JWTHelper struct {
	cfg config.JWTConfig
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{cfg: cfg}
}

func (h *JWTHelper) GenerateToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	service := jwt.NewService(h.cfg.Secret, h.cfg.Duration, clock.NewRealClock())
	token, err := service.Issue(user.NewActor(userID, role))
	require.NoError(t, err)
	return token
}

// CreateExpiredToken issues a token whose expiry is already an hour in the past.
func (h *JWTHelper) CreateExpiredToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	past := clock.NewMockClock(time.Now().Add(-2 * time.Hour))
	service := jwt.NewService(h.cfg.Secret, time.Hour, past)
	token, err := service.Issue(user.NewActor(userID, role))
	require.NoError(t, err)
	return token
}
