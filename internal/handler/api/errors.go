package api

import (
	"log/slog"
	"net/http"

	"parking-booking/internal/handler/httperr"
	"parking-booking/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

var (
	errUnauthenticated = errs.New("no authenticated actor")
	errInvalidID       = errs.Kind("invalid id", errs.ErrValidation)
)

// statusFor maps an error category to its HTTP status.
func statusFor(err error) int {
	switch errs.CategoryOf(err) {
	case errs.ErrValidation, errs.ErrSignature:
		return http.StatusBadRequest
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrForbidden:
		return http.StatusForbidden
	case errs.ErrConflict:
		return http.StatusConflict
	case errs.ErrGatewayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the public part of err. Internal detail is only
// attached in debug mode.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := "Internal server error"
	if status != http.StatusInternalServerError {
		if m, ok := errs.PublicMessage(err); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	} else {
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err.Error(),
			"stack", errs.ExtractStackLines(err, 5))
	}

	var detail any
	if gin.Mode() == gin.DebugMode {
		detail = err.Error()
	}
	httperr.AbortWithError(c, status, err, msg, detail)
}

// bindError reports a malformed request body.
func bindError(c *gin.Context, err error) {
	var detail any
	if gin.Mode() == gin.DebugMode {
		detail = err.Error()
	}
	httperr.AbortWithError(c, http.StatusBadRequest, errs.Mark(err, errs.ErrValidation), "Invalid request", detail)
}
