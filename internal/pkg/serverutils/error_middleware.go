package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"mesh-adventure-be/internal/entity"
)

// ErrorHandlerMiddleware maps domain errors escaping the controllers to
// the response envelope. Session errors are user mistakes, not server
// faults, so they come back as 4xx with a short message.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		case errors.Is(err, entity.ErrNoActiveSession):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse("no active adventure for this session"))
		case errors.Is(err, entity.ErrInvalidChoice):
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse("choice must be one of the offered options"))
		case errors.Is(err, entity.ErrUnauthorized):
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse("not authorized"))
		case errors.Is(err, entity.ErrStoryInProgress):
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse("a story is already in progress"))
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal error"))
		}
	}
}
