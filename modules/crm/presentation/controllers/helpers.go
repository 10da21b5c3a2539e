package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/apolice/crm/modules/crm/domain/aggregates/client"
	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
	"github.com/apolice/crm/modules/crm/domain/aggregates/policy"
	"github.com/apolice/crm/modules/crm/domain/aggregates/renewal"
	"github.com/apolice/crm/modules/crm/domain/entities/funnel"
	"github.com/apolice/crm/modules/crm/domain/entities/task"
	"github.com/apolice/crm/pkg/composables"
	"github.com/apolice/crm/pkg/configuration"
	"github.com/apolice/crm/pkg/ordering"
	"github.com/apolice/crm/pkg/serrors"
)

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func requestIDFrom(r *http.Request) string {
	return r.Header.Get(configuration.Use().RequestIDHeader)
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	writeJSON(w, status, apiError{Code: code, Message: message, Meta: meta})
}

// writeServiceError maps domain and pipeline errors onto the API error
// contract.
func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	var base *serrors.BaseError
	if errors.As(err, &base) {
		status := http.StatusInternalServerError
		switch base.Code {
		case "CRM_VALIDATION_FAILED":
			status = http.StatusBadRequest
		case "CRM_STAGE_GATE":
			status = http.StatusUnprocessableEntity
		case "CRM_DUPLICATE_SUBMIT":
			status = http.StatusConflict
		}
		writeJSON(w, status, apiError{
			Code:    base.Code,
			Message: base.Message,
			Meta:    mergeMeta(requestID, base.TemplateData),
		})
		return
	}

	switch {
	case errors.Is(err, composables.ErrNoUser):
		writeAPIError(w, http.StatusUnauthorized, requestID, "CRM_UNAUTHORIZED", "authentication required")
	case errors.Is(err, client.ErrNotFound),
		errors.Is(err, policy.ErrNotFound),
		errors.Is(err, renewal.ErrNotFound),
		errors.Is(err, task.ErrNotFound),
		errors.Is(err, opportunity.ErrNotFound),
		errors.Is(err, opportunity.ErrActivityNotFound),
		errors.Is(err, funnel.ErrFunnelNotFound),
		errors.Is(err, funnel.ErrStageNotFound),
		errors.Is(err, funnel.ErrTemplateNotFound):
		writeAPIError(w, http.StatusNotFound, requestID, "CRM_NOT_FOUND", err.Error())
	case errors.Is(err, client.ErrDuplicate),
		errors.Is(err, policy.ErrDuplicate),
		errors.Is(err, funnel.ErrKeyTaken):
		writeAPIError(w, http.StatusConflict, requestID, "CRM_CONFLICT", err.Error())
	case errors.Is(err, opportunity.ErrUnknownStage):
		writeAPIError(w, http.StatusUnprocessableEntity, requestID, "CRM_UNKNOWN_STAGE", err.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, requestID, "CRM_INTERNAL", err.Error())
	}
}

func mergeMeta(requestID string, data map[string]string) map[string]string {
	meta := map[string]string{}
	for k, v := range data {
		meta[k] = v
	}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	return meta
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	return id, err == nil
}

func parseDirection(s string) (ordering.Direction, bool) {
	switch s {
	case "up":
		return ordering.Up, true
	case "down":
		return ordering.Down, true
	}
	return ordering.Up, false
}
