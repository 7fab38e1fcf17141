package utils

import (
	"encoding/json"
	"net/http"

	"farm2market/errs"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"success": false, "message": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithFailure maps a taxonomy error onto the JSON envelope.
func RespondWithFailure(w http.ResponseWriter, err error) {
	RespondWithError(w, errs.Status(err), err.Error())
}

type M map[string]interface{}
