// Package httputil provides HTTP response helpers and shared middleware.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Every response body is a single JSON object carrying a "status" field:
// {"status":"success", ...} or {"status":"error","message":"..."}.
// Content-Type is declared on every path, including errors.

// Success writes a success envelope merged with the given fields.
func Success(w http.ResponseWriter, statusCode int, fields map[string]interface{}) {
	body := map[string]interface{}{"status": "success"}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, statusCode, body)
}

// Error writes an error envelope with the given message.
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}

// JSON writes a raw JSON response without envelope.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// ValidationError writes an error envelope describing the first failed field.
// Non-validator errors fall back to a generic message.
func ValidationError(w http.ResponseWriter, err error) {
	message := "invalid request body"
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		message = "validation failed on field " + validationErrors[0].Field()
	}
	Error(w, http.StatusBadRequest, message)
}
