package server

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"fora/internal/models"
	"fora/internal/social"
	"fora/internal/store"
)

// sentinelCodes maps domain errors to HTTP status codes.
var sentinelCodes = []struct {
	err  error
	code int
}{
	{store.ErrEventNotFound, http.StatusNotFound},
	{store.ErrNotLoggedIn, http.StatusUnauthorized},
	{store.ErrUnknownTab, http.StatusBadRequest},
	{social.ErrProfileNotFound, http.StatusNotFound},
	{social.ErrRequestNotFound, http.StatusNotFound},
	{social.ErrChatNotFound, http.StatusNotFound},
	{social.ErrCalendarNotFound, http.StatusNotFound},
	{social.ErrRequestExists, http.StatusConflict},
	{social.ErrAlreadyFriends, http.StatusConflict},
	{social.ErrSelfRequest, http.StatusBadRequest},
	{social.ErrNotFriends, http.StatusBadRequest},
	{social.ErrInvalidStatus, http.StatusBadRequest},
	{social.ErrNotChatMember, http.StatusForbidden},
	{social.ErrNotImplemented, http.StatusNotImplemented},
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := translateError(err)
		if code == http.StatusInternalServerError {
			logger.Error("Request failed with an internal error.", "method", ctx.Request().Method, "path", ctx.Path(), "error", err)
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				logger.Error("Failed to send error response.", "error", err)
			}
		}
	}
}

// translateError returns the status code and the message body of err.
// Validation errors become a field -> message map.
func translateError(err error) (int, any) {
	var (
		httpErr *echo.HTTPError
		vErrs   validator.ValidationErrors
		appErr  *models.ValidationError
	)
	switch {
	case errors.As(err, &httpErr):
		if inner, ok := httpErr.Internal.(*echo.HTTPError); ok {
			httpErr = inner
		}
		return httpErr.Code, httpErr.Message
	case errors.As(err, &vErrs):
		fldErrs := make(map[string]string, len(vErrs))
		for _, vErr := range vErrs {
			fldErrs[vErr.Field()] = vErr.Translate(models.Translator)
		}
		return http.StatusBadRequest, fldErrs
	case errors.As(err, &appErr):
		if appErr.Fields != nil {
			fldErrs := make(map[string]string, len(appErr.Fields))
			for _, fErr := range appErr.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			return http.StatusBadRequest, fldErrs
		}
		return http.StatusBadRequest, appErr.Error()
	}

	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code, s.err.Error()
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// badRequest wraps a parameter error as a 400.
func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
