package response

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// PagedResponse is the envelope for list endpoints.
type PagedResponse struct {
	Status     string      `json:"status"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int64       `json:"page"`
	TotalPages int64       `json:"totalPages"`
}

func JSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func Error(w http.ResponseWriter, statusCode int, message string, errDetail string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if errDetail != "" {
		resp.Error = errDetail
	}
	JSON(w, statusCode, resp)
}

// ValidationError reports field-level detail for a 400.
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, APIResponse{
		Status:  "error",
		Message: "Validation failed",
		Error:   fields,
	})
}

func Paginated(w http.ResponseWriter, message string, data interface{}, total, page, limit int64) {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	JSON(w, http.StatusOK, PagedResponse{
		Status:     "success",
		Message:    message,
		Data:       data,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	})
}

// TotalPages is exposed for callers that build their own envelopes.
func TotalPages(total, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
