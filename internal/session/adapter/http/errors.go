package http

import (
	"errors"

	"melodiapp-web/internal/session/domain/model"
	sharederrors "melodiapp-web/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func toAppError(err error) *sharederrors.AppError {
	var appErr *sharederrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, model.ErrTabIDRequired), errors.Is(err, model.ErrInvalidTabID):
		return sharederrors.NewValidationError(err.Error()).WithCode("invalid_tab").WithCause(err)
	default:
		return sharederrors.NewInfrastructureError("session storage unavailable").
			WithCode("storage_unavailable").
			WithCause(err)
	}
}

func writeError(c *fiber.Ctx, err error) error {
	appErr := toAppError(err)
	return c.Status(appErr.HTTPCode).JSON(ErrorResponse{
		Error:   appErr.Code,
		Message: appErr.Message,
	})
}
