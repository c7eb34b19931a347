package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"delivery-backend/internal/models"
	"delivery-backend/pkg/utils"
)

// writeError maps domain errors to HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *models.ValidationError
		notFound   *models.NotFoundError
		transition *models.TransitionError
		confirm    *models.ConfirmationError
	)

	switch {
	case errors.As(err, &validation):
		utils.Error(w, http.StatusBadRequest, utils.ErrorBody{Error: validation.Message, Field: validation.Field})
	case errors.As(err, &confirm):
		utils.Error(w, http.StatusConflict, utils.ErrorBody{Error: "confirmation required", Prompt: confirm.Prompt})
	case errors.As(err, &transition):
		utils.Error(w, http.StatusConflict, utils.ErrorBody{Error: transition.Error()})
	case errors.As(err, &notFound):
		utils.Error(w, http.StatusNotFound, utils.ErrorBody{Error: notFound.Error()})
	case errors.Is(err, models.ErrMalformedHandoff):
		utils.Error(w, http.StatusBadRequest, utils.ErrorBody{Error: models.ErrMalformedHandoff.Error()})
	default:
		log.Printf("[HTTP] internal error: %v", err)
		utils.Error(w, http.StatusInternalServerError, utils.ErrorBody{Error: "Internal server error"})
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.NewValidationError("", "Invalid request body")
	}
	return nil
}

// confirmed reads the ?confirm=true answer to a destructive action's prompt
func confirmed(r *http.Request) bool {
	v := r.URL.Query().Get("confirm")
	return v == "true" || v == "1" || v == "yes"
}
