package engine

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"tableview/internal/metadata"
	"tableview/internal/store"
	"tableview/internal/table"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func UnknownTableError(appName, tableID string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_TABLE",
		Status:  404,
		Message: fmt.Sprintf("Unknown table: %s/%s", appName, tableID),
	}
}

func InvalidPayloadError(err error) *AppError {
	return &AppError{
		Code:    "INVALID_PAYLOAD",
		Status:  400,
		Message: fmt.Sprintf("Invalid request body: %v", err),
	}
}

// FromError maps domain errors to an AppError. Errors without a mapping are
// returned unchanged so the server's error handler reports them as internal.
func FromError(err error) error {
	var appErr *AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, metadata.ErrColumnNotFound), errors.Is(err, table.ErrUnknownColumn):
		return NewAppError("UNKNOWN_COLUMN", 404, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return NewAppError("NOT_FOUND", 404, err.Error())
	case errors.Is(err, metadata.ErrInvalidArgument), errors.Is(err, store.ErrInvalidName):
		return NewAppError("INVALID_ARGUMENT", 400, err.Error())
	case errors.Is(err, metadata.ErrUnknownChildKey), errors.Is(err, metadata.ErrDuplicateKey):
		return NewAppError("INVALID_SCHEMA", 422, err.Error())
	case errors.Is(err, store.ErrUniqueViolation):
		return NewAppError("CONFLICT", 409, err.Error())
	}
	return err
}

// ErrorHandler renders AppErrors with their status and everything else as a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *AppError
	if errors.As(FromError(err), &appErr) {
		return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(ErrorResponse{
		Error: &AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
