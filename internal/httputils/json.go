package httputils

import (
	"encoding/json"
	"net/http"
)

// Message is the error envelope shared by the proxy routes
type Message struct {
	Message string `json:"message"`
}

// WriteJSON writes v as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg}
func WriteMessage(w http.ResponseWriter, status int, msg string) error {
	return WriteJSON(w, status, Message{Message: msg})
}
