package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/competitor"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/repository"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/service"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	ProductID string `json:"product_id,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	WriteJSON(w, status, ErrorResponse{Error: message}, logger)
}

// WriteServiceError maps a service error to its HTTP status and writes it
func WriteServiceError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}
	WriteJSON(w, status, body, logger)
}

func errorResponse(err error) (int, ErrorResponse) {
	var inputErr *models.InputError
	var collabErr *service.CollaboratorError
	var maxBytesErr *http.MaxBytesError
	var decodeErr *decodeError

	switch {
	case errors.Is(err, errEmptyBody):
		return http.StatusBadRequest, ErrorResponse{Error: "No data provided"}
	case errors.As(err, &decodeErr):
		return http.StatusBadRequest, ErrorResponse{Error: decodeErr.Error(), Field: decodeErr.field}
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, ErrorResponse{
			Error:     inputErr.Error(),
			Field:     inputErr.Field,
			ProductID: inputErr.ProductID,
		}
	case errors.Is(err, service.ErrEmptyBatch):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, service.ErrBatchTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()}
	case errors.Is(err, repository.ErrProductNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Product not found"}
	case errors.Is(err, competitor.ErrListUnsupported):
		return http.StatusNotImplemented, ErrorResponse{Error: err.Error()}
	case errors.As(err, &collabErr):
		return http.StatusBadGateway, ErrorResponse{Error: collabErr.Error(), ProductID: collabErr.ProductID}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"}
	}
}
