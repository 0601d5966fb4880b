//go:build unit

package api_test

import (
	"time"

	"parking-booking/internal/domain/user"
	"parking-booking/internal/handler/middleware"
	"parking-booking/internal/pkg/clock"
	"parking-booking/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const testSecret = "handler-test-secret"

// authFixture issues tokens for a driver and an admin and installs the real
// bearer middleware, so handlers see actors exactly as in production.
type authFixture struct {
	jwt    *jwt.Service
	mw     *middleware.AuthMiddleware
	driver user.Actor
	admin  user.Actor
}

func newAuthFixture() authFixture {
	svc := jwt.NewService(testSecret, time.Hour, clock.NewRealClock())
	return authFixture{
		jwt:    svc,
		mw:     middleware.NewAuthMiddleware(svc),
		driver: user.NewActor(uuid.New(), user.RoleUser),
		admin:  user.NewActor(uuid.New(), user.RoleAdmin),
	}
}

func (f authFixture) token(a user.Actor) string {
	tok, err := f.jwt.Issue(a)
	if err != nil {
		panic(err)
	}
	return tok
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}
