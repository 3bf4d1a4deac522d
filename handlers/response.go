package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/logger"
	"habitsAPI/middleware"
)

const (
	requestTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to encode response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

// respondWithDomainError maps coded errors to their HTTP status. Anything else is a 500
// and its message stays in the logs.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *apperrors.Error
	if apperrors.As(err, &domainErr) && domainErr.Code != apperrors.CodeInternal {
		respondWithJSON(w, domainErr.HTTPStatus(), errorResponse{
			Error:   domainErr.Message,
			Code:    string(domainErr.Code),
			Details: domainErr.Details,
		})
		return
	}

	logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	respondWithJSON(w, http.StatusInternalServerError, errorResponse{
		Error: "Internal server error",
		Code:  string(apperrors.CodeInternal),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{
			Error: "Invalid request body",
			Code:  string(apperrors.CodeValidation),
		})
		return false
	}
	return true
}

// currentUser returns the internal id set by middleware.UserResolver.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
	}
	return id, ok
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{
			Error: "Invalid " + name,
			Code:  string(apperrors.CodeValidation),
		})
		return uuid.Nil, false
	}
	return id, true
}
