package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cart-service/internal/dto"
	"cart-service/internal/service"

	"github.com/labstack/echo/v4"
)

// httpStatusFromError maps the service error taxonomy to a status, a stable
// code and a message safe to show the caller.
func httpStatusFromError(err error) (int, string, string) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "UNAUTHENTICATED", "token expired"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "UNAUTHENTICATED", "incorrect username or password"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid token"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "cart belongs to another user"
	case errors.Is(err, service.ErrItemNotFound):
		return http.StatusNotFound, "ITEM_NOT_FOUND", err.Error()
	case errors.Is(err, service.ErrCartNotFound):
		return http.StatusNotFound, "CART_NOT_FOUND", err.Error()
	case errors.Is(err, service.ErrConcurrentModification):
		return http.StatusConflict, "CONCURRENT_MODIFICATION", "cart was modified concurrently, retry the request"
	case errors.Is(err, service.ErrQuantityLimit):
		return http.StatusUnprocessableEntity, "QUANTITY_LIMIT", err.Error()
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error()
	case errors.As(err, &he):
		code := strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
		return he.Code, code, fmt.Sprint(he.Message)
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal server error"
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code, msg := httpStatusFromError(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, &dto.ErrorResponse{
			Code:      code,
			Message:   msg,
			Retryable: status == http.StatusConflict,
		})
	}
	if err != nil {
		s.logger.ErrorContext(c.Request().Context(), "write error response", "error", err)
	}
}
