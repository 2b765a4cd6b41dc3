package app

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// messageRequest is the inbound payload from the connector.
type messageRequest struct {
	TelegramID string `json:"telegram_id" validate:"required"`
	Username   string `json:"username"`
	Message    string `json:"message" validate:"required"`
}

// messageResponse is the reply sent back to the connector.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleHealth returns a static liveness payload.
func (a *Application) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "bot-service",
	})
}

// handleProcessMessage runs the full pipeline for one inbound message.
func (a *Application) handleProcessMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	result := a.Processor.Process(r.Context(), req.TelegramID, req.Message)

	writeJSON(w, result.Status, messageResponse{
		Success: result.OK,
		Message: result.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
