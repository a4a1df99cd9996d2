package utils

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/xtayzy/uniCrew/services"
)

// ErrorResponse creates a standardized error response
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"success": false,
		"error":   message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	return c.Status(status).JSON(response)
}

// SuccessResponse creates a standardized success response
func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    data,
	}
}

// ParseUint safely parses a string to uint, returning 0 on bad input
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}

// ParamID reads a positive numeric route parameter
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id := ParseUint(c.Params(name))
	if id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// PaginatedResponse structure for paginated results
type PaginatedResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// HandleServiceError writes the response matching a service error kind.
// Unknown errors are logged and reported as 500.
func HandleServiceError(c *fiber.Ctx, op string, err error) error {
	var svcErr *services.Error
	message := err.Error()
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return ErrorResponse(c, fiber.StatusNotFound, message, nil)
	case errors.Is(err, services.ErrConflict):
		return ErrorResponse(c, fiber.StatusConflict, message, nil)
	case errors.Is(err, services.ErrForbidden):
		return ErrorResponse(c, fiber.StatusForbidden, message, nil)
	case errors.Is(err, services.ErrValidation):
		return ErrorResponse(c, fiber.StatusBadRequest, message, nil)
	}

	LogError(op, err, map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
	})
	return ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error", nil)
}

// FiberErrorHandler renders errors returned from handlers in the same
// envelope as ErrorResponse
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ErrorResponse(c, fe.Code, fe.Message, nil)
	}
	LogError("unhandled", err, map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
	})
	return ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error", nil)
}
