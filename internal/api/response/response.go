package response

import (
	"encoding/json"
	"net/http"
)

// Message is the body shape every error response uses.
type Message struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Raw writes an already-encoded JSON payload, used by the movie proxy to
// pass upstream bodies through untouched.
func Raw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Message{Message: message})
}
