package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// JSON writes data as a JSON response with the given status
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[HTTP] encode response failed: %v", err)
	}
}

// ErrorBody is the shape of every error response
type ErrorBody struct {
	Error  string      `json:"error"`
	Field  string      `json:"field,omitempty"`
	Prompt string      `json:"prompt,omitempty"`
	Detail interface{} `json:"detail,omitempty"`
}

func Error(w http.ResponseWriter, status int, body ErrorBody) {
	JSON(w, status, body)
}

// PDF writes an inline PDF document
func PDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
