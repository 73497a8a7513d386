// Package web serves the entry views, CSV exports and the JSON API over
// net/http. All state lives in the controller; the handler only translates
// requests into intents and renders the resulting state.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"inventoryrecord/internal/controller"
	"inventoryrecord/internal/export"
	"inventoryrecord/pkg/domain"
)

// DefaultBasePath is the mount point of the UI and API.
const DefaultBasePath = "/inventory-record"

const maxBodyBytes = 1 << 20

// Handler provides HTTP access to one controller.
type Handler struct {
	ctrl     *controller.Controller
	basePath string
	csv      export.Writer
	logger   *slog.Logger
}

// Option customizes a Handler.
type Option func(*Handler)

// WithBasePath mounts the handler under base. "" and "/" mount at the root.
func WithBasePath(base string) Option {
	return func(h *Handler) { h.basePath = normalizeBase(base) }
}

// WithQuoting selects the CSV quoting mode for exports.
func WithQuoting(q export.Quoting) Option {
	return func(h *Handler) { h.csv = export.NewWriter(q) }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a handler for ctrl.
func NewHandler(ctrl *controller.Controller, opts ...Option) *Handler {
	h := &Handler{
		ctrl:     ctrl,
		basePath: DefaultBasePath,
		csv:      export.NewWriter(export.QuotingRFC4180),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// BasePath returns the normalized mount point.
func (h *Handler) BasePath() string { return h.basePath }

func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	base = strings.TrimRight(base, "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return base
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("http request", slog.String("method", r.Method), slog.String("path", r.URL.Path))
	if h.ctrl == nil {
		writeError(w, http.StatusInternalServerError, "controller not configured")
		return
	}

	path, ok := strings.CutPrefix(r.URL.Path, h.basePath)
	if !ok {
		http.NotFound(w, r)
		return
	}
	path = strings.TrimSuffix(path, "/")
	switch {
	case path == "":
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			h.handlePage(w, r)
		case http.MethodPost:
			h.handleIntent(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case path == "/export/all.csv":
		if !allowGet(w, r) {
			return
		}
		h.handleExportAll(w, r)
	case path == "/export/entry.csv":
		if !allowGet(w, r) {
			return
		}
		h.handleExportEntry(w, r)
	case path == "/api/v1/entries":
		h.handleCollection(w, r)
	case strings.HasPrefix(path, "/api/v1/entries/"):
		h.handleEntry(w, r, strings.TrimPrefix(path, "/api/v1/entries/"))
	default:
		http.NotFound(w, r)
	}
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func (h *Handler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.basePath+"/", http.StatusSeeOther)
}

// handleIntent applies one posted intent and redirects back to the page.
// Store failures are already recorded for the banner.
func (h *Handler) handleIntent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	name := r.PostForm.Get("intent")
	if name == "dismiss" {
		h.ctrl.DismissError()
		h.redirectHome(w, r)
		return
	}
	intent, err := controller.ParseIntent(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := controller.Request{
		Intent: intent,
		ID:     r.PostForm.Get("id"),
		Fields: formFields(r),
	}
	if err := h.ctrl.Dispatch(r.Context(), req); err != nil {
		if errors.Is(err, controller.ErrInvalidTransition) {
			h.logger.Warn("rejected intent", slog.String("intent", string(intent)), slog.Any("err", err))
		}
	}
	h.redirectHome(w, r)
}

// formFields collects the posted values of the fixed fields.
func formFields(r *http.Request) domain.EntryFormData {
	fields := domain.EntryFormData{}
	for _, f := range domain.FieldNames() {
		if values, ok := r.PostForm[f]; ok && len(values) > 0 {
			fields[f] = values[0]
		}
	}
	return fields
}

func (h *Handler) handleExportAll(w http.ResponseWriter, _ *http.Request) {
	entries := h.ctrl.Entries()
	setAttachment(w, export.AllFilename)
	if err := h.csv.WriteCollection(w, entries); err != nil {
		h.logger.Error("export all failed", slog.Any("err", err))
	}
}

func (h *Handler) handleExportEntry(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id query parameter required")
		return
	}
	entry, ok := h.ctrl.Entry(id)
	if !ok {
		writeError(w, http.StatusNotFound, domain.NotFoundError{ID: id}.Error())
		return
	}
	setAttachment(w, export.EntryFilename(entry))
	if err := h.csv.WriteEntry(w, entry); err != nil {
		h.logger.Error("export entry failed", slog.String("id", id), slog.Any("err", err))
	}
}

func setAttachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", export.Disposition(filename))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
