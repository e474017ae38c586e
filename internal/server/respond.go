package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/api"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
)

// respondJSON sends an envelope with the given status
func respondJSON(w http.ResponseWriter, status int, env api.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("⚠️ Failed to encode response: %v", err)
	}
}

func respondData(w http.ResponseWriter, status int, message string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		respondError(w, apperr.Wrap(apperr.KindUnknown, "encode payload", err))
		return
	}
	respondJSON(w, status, api.Envelope{Success: true, Message: message, Data: raw})
}

func respondPage(w http.ResponseWriter, data interface{}, meta *api.Meta) {
	raw, err := json.Marshal(data)
	if err != nil {
		respondError(w, apperr.Wrap(apperr.KindUnknown, "encode payload", err))
		return
	}
	respondJSON(w, http.StatusOK, api.Envelope{Success: true, Data: raw, Meta: meta})
}

// respondError maps error kinds onto HTTP statuses. Anything outside
// the known kinds is a 500 with a generic message so internals never
// leak to clients.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
		message = err.Error()
	case apperr.KindNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case apperr.KindConflict:
		status = http.StatusConflict
		message = err.Error()
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
		message = err.Error()
	default:
		log.Printf("❌ Internal error: %v", err)
	}

	respondJSON(w, status, api.Envelope{Success: false, Message: message})
}
