package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"inventoryrecord/pkg/domain"
)

func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"entries": h.ctrl.Entries()})
	case http.MethodPost:
		fields, ok := decodeFields(w, r)
		if !ok {
			return
		}
		created, err := h.ctrl.Create(r.Context(), fields)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"entry": created})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleEntry(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		entry, ok := h.ctrl.Entry(id)
		if !ok {
			writeError(w, http.StatusNotFound, domain.NotFoundError{ID: id}.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
	case http.MethodPut:
		fields, ok := decodeFields(w, r)
		if !ok {
			return
		}
		updated, err := h.ctrl.Update(r.Context(), id, fields)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entry": updated})
	case http.MethodDelete:
		if err := h.ctrl.Delete(r.Context(), id); err != nil {
			h.writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func decodeFields(w http.ResponseWriter, r *http.Request) (domain.EntryFormData, bool) {
	var fields domain.EntryFormData
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&fields)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid entry payload")
		return nil, false
	}
	if fields == nil {
		fields = domain.EntryFormData{}
	}
	return fields, true
}

// statusFor maps store error kinds onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrWriteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("api request failed", "status", status, "err", err)
	}
	var verr domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, status, map[string]any{"error": err.Error(), "missing": verr.Missing})
		return
	}
	writeError(w, status, err.Error())
}
