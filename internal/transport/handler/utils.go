package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	use_case "github.com/unfoldingWord/tx-enqueue-job/internal/use-case"
)

type rejectionResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("handler: encode response: %v", err)
	}
}

// writeRejection is the 400 shape every validation failure gets.
func writeRejection(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, rejectionResponse{
		Error:  message,
		Status: "invalid",
	})
}

// writeFailure reports an unavailable collaborator so operators can tell
// "dependency down" from "bad request".
func writeFailure(w http.ResponseWriter, err error) {
	log.Printf("handler: %v", err)

	message := "internal error"
	switch {
	case errors.Is(err, use_case.ErrBrokerUnavailable):
		message = "job broker unavailable"
	case errors.Is(err, use_case.ErrIdentityUnavailable):
		message = "identity service unavailable"
	}

	writeJSON(w, http.StatusServiceUnavailable, rejectionResponse{
		Error:  message,
		Status: "failed",
	})
}
