package http

import (
	"encoding/json"
	"net/http"

	"github.com/Esraa-27/flash-sale-api/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
}

type validationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{Error: msg})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeValidationError(w http.ResponseWriter, fields map[string][]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)

	payload, err := json.Marshal(validationErrorResponse{Message: "Validation failed", Errors: fields})
	if err != nil {
		_, _ = w.Write([]byte(`{"message":"Validation failed","errors":{}}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeAppErr renders any error returned by the app layer, mapping
// apperr.Kind to its HTTP status per the taxonomy in section 7.
func writeAppErr(w http.ResponseWriter, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch appErr.Kind {
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, appErr.Message)
	case apperr.KindBadRequest:
		writeError(w, http.StatusBadRequest, appErr.Message)
	case apperr.KindValidation:
		writeValidationError(w, appErr.Fields)
	case apperr.KindContention:
		writeError(w, http.StatusInternalServerError, appErr.Message)
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
