package api

import (
	"encoding/json"
	"log"
	"net/http"

	apperrors "github.com/pvaldez/taskstack/internal/platform/errors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// writeError translates a domain error to its HTTP shape. Unknown errors
// collapse to a generic 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		code = apperrors.CodeInternal
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:    string(code),
		Message: message,
	}})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidBody, "invalid request body", err)
	}
	return nil
}
