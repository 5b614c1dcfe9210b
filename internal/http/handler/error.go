package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
	// detail exposes the sentinel text as the error field.
	detail bool
}

// serviceErrors is checked in order; the first match wins.
var serviceErrors = []errorMapping{
	{service.ErrNoFileProvided, fiber.StatusBadRequest, "FILE_REQUIRED", "No file uploaded", true},
	{service.ErrInvalidFileType, fiber.StatusBadRequest, "INVALID_FILE_TYPE", "Only PDF files are allowed", true},
	{service.ErrFileTooLarge, fiber.StatusBadRequest, "FILE_TOO_LARGE", "File is too large", true},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "Document not found", false},
	{service.ErrFileNotFound, fiber.StatusNotFound, "FILE_NOT_FOUND", "File not found on server", false},
	{service.ErrStorageWriteFailed, fiber.StatusInternalServerError, "STORAGE_WRITE_FAILED", "Error uploading file", false},
	{service.ErrMetadataWriteFailed, fiber.StatusInternalServerError, "METADATA_WRITE_FAILED", "Error saving file metadata", false},
}

// writeServiceError maps a service error onto the envelope. Unknown errors become
// 500 INTERNAL_ERROR with fallback as the message.
func writeServiceError(c *fiber.Ctx, err error, fallback string) error {
	for _, m := range serviceErrors {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.status >= fiber.StatusInternalServerError {
			c.Locals(middleware.ErrorLocalKey, err)
		}
		detail := ""
		if m.detail {
			detail = m.target.Error()
		}
		return writeErrorDetail(c, m.status, m.code, m.message, detail)
	}

	c.Locals(middleware.ErrorLocalKey, err)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// It renders errors returned by handlers and middleware, and bodies rejected by the
// server body limit before any handler ran.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusRequestEntityTooLarge:
			return writeErrorDetail(c, fiber.StatusBadRequest, "FILE_TOO_LARGE", "File is too large", service.ErrFileTooLarge.Error())
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
