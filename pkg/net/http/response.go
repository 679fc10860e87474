// Package http provides shared HTTP helpers on top of fiber: typed response
// writers, structured error rendering, and request middleware.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Grindin247/decision-system/pkg/apperr"
	"github.com/Grindin247/decision-system/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

// OK sends an HTTP 200 OK response with a custom body.
func OK(c *fiber.Ctx, s any) error {
	return c.Status(http.StatusOK).JSON(s)
}

// Created sends an HTTP 201 Created response with a custom body.
func Created(c *fiber.Ctx, s any) error {
	return c.Status(http.StatusCreated).JSON(s)
}

// NoContent sends an HTTP 204 No Content response without a body.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(http.StatusNoContent)
}

// JSONResponse sends a custom status code and body as a JSON response.
func JSONResponse(c *fiber.Ctx, status int, s any) error {
	return c.Status(status).JSON(s)
}

// BadRequest sends an HTTP 400 Bad Request response with a custom code,
// title and message.
func BadRequest(c *fiber.Ctx, code, title, message string) error {
	return c.Status(http.StatusBadRequest).JSON(apperr.Response{
		Code:    code,
		Title:   title,
		Message: message,
	})
}

// NotFound sends an HTTP 404 Not Found response with a custom code, title
// and message.
func NotFound(c *fiber.Ctx, code, title, message string) error {
	return c.Status(http.StatusNotFound).JSON(apperr.Response{
		Code:    code,
		Title:   title,
		Message: message,
	})
}

// UnprocessableEntity sends an HTTP 422 Unprocessable Entity response with a
// custom code, title and message.
func UnprocessableEntity(c *fiber.Ctx, code, title, message string) error {
	return c.Status(http.StatusUnprocessableEntity).JSON(apperr.Response{
		Code:    code,
		Title:   title,
		Message: message,
	})
}

// InternalServerError sends an HTTP 500 Internal Server Error response.
// It always returns a generic message to avoid leaking internal details.
func InternalServerError(c *fiber.Ctx) error {
	return c.Status(http.StatusInternalServerError).JSON(apperr.Response{
		Code:    strconv.Itoa(http.StatusInternalServerError),
		Title:   "Internal Server Error",
		Message: "internal server error",
	})
}

// RenderError maps a service error onto the HTTP response. Business errors
// carry their code and title; validation failures become 400s; everything
// else is a generic 500.
func RenderError(c *fiber.Ctx, err error) error {
	var business apperr.Response
	if errors.As(err, &business) {
		return c.Status(statusForCode(business.Err)).JSON(business)
	}

	if errors.Is(err, ErrBodyParseFailed) || errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrUnsupportedContentType) {
		return BadRequest(c, "validation_error", "Validation Error", err.Error())
	}

	return InternalServerError(c)
}

// statusForCode picks the HTTP status for a business error sentinel.
func statusForCode(sentinel error) int {
	switch {
	case errors.Is(sentinel, constant.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(sentinel, constant.ErrBudgetExhausted):
		return http.StatusUnprocessableEntity
	case errors.Is(sentinel, constant.ErrRetryable):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
