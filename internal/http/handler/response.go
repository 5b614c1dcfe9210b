package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
)

// Response is the envelope of every JSON response.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// ErrorResponse is the envelope of every failed JSON response.
// Error carries a safe detail string and is only set for client mistakes.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeOK(c *fiber.Ctx, status int, res Response) error {
	res.Success = true
	return c.Status(status).JSON(res)
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorDetail(c, status, code, message, "")
}

func writeErrorDetail(c *fiber.Ctx, status int, code, message, detail string) error {
	return c.Status(status).JSON(ErrorResponse{
		Code:      code,
		Message:   message,
		Error:     detail,
		RequestID: middleware.RequestIDFrom(c),
	})
}
