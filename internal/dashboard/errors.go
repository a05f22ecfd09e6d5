// internal/dashboard/errors.go
package dashboard

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tamzrod/uniform-watch/internal/logger"
	"github.com/tamzrod/uniform-watch/internal/roster"
	"github.com/tamzrod/uniform-watch/internal/session"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
	errRosterMissing = echo.NewHTTPError(http.StatusServiceUnavailable, "roster not configured")
)

// appHTTPErrorHandler maps domain errors to JSON responses.
func appHTTPErrorHandler(err error, ctx echo.Context) {
	var code int
	var message interface{}

	var herr *echo.HTTPError
	var verr *roster.ValidationError

	switch {
	case errors.As(err, &herr):
		if inner, ok := herr.Internal.(*echo.HTTPError); ok {
			herr = inner
		}
		code = herr.Code
		message = herr.Message
	case errors.As(err, &verr):
		fldErrs := make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			fldErrs[f.Field] = f.Error
		}
		code = http.StatusBadRequest
		message = fldErrs
	case errors.Is(err, roster.ErrNotFound):
		code = http.StatusNotFound
		message = errHttpNotFound.Message
	case errors.Is(err, session.ErrNoSession):
		code = http.StatusUnauthorized
		message = errUnauthorized.Message
	default: // any other error is a server error
		code = http.StatusInternalServerError
		message = http.StatusText(http.StatusInternalServerError)
		logger.Error(logModule, "%s %s: %v", ctx.Request().Method, ctx.Request().URL.Path, err)
	}

	if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}

	if !ctx.Response().Committed {
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			logger.Debug(logModule, "write error response: %v", err)
		}
	}
}
