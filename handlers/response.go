package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"yumyumCoachAPI/internal/types/challenge"
	"yumyumCoachAPI/middleware"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error", "code": "INTERNAL_SERVER_ERROR"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, map[string]string{"error": message, "code": code})
}

// respondWithServiceError maps a service error onto its code and status.
// Internal failures are logged and hidden from the client.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := challenge.CodeOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error [request %s]: %v", middleware.GetRequestID(r.Context()), err)
		respondWithError(w, status, code, "Internal server error")
		return
	}
	respondWithError(w, status, code, userMessage(err))
}

// userMessage is the outermost sentinel's text, without wrapped detail.
func userMessage(err error) string {
	for _, sentinel := range []error{
		challenge.ErrJoinNotAllowed,
		challenge.ErrInvalidMonth,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
