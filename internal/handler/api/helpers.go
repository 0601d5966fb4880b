package api

import (
	"net/http"

	"parking-booking/internal/domain/user"
	"parking-booking/internal/handler/httperr"
	"parking-booking/internal/handler/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func actorOrAbort(c *gin.Context) (user.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
	}
	return actor, ok
}

func idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
