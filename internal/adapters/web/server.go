package web

import (
	"expvar"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MuxOptions selects the auxiliary endpoints mounted next to the handler.
type MuxOptions struct {
	// Gatherer serves /metrics when non-nil.
	Gatherer prometheus.Gatherer
	// Expvar serves /debug/vars.
	Expvar bool
}

// NewMux mounts h under its base path, redirects "/" to it, and adds the
// metrics endpoints selected in opts.
func NewMux(h *Handler, opts MuxOptions) *http.ServeMux {
	mux := http.NewServeMux()
	base := h.BasePath()
	mux.Handle(base+"/", h)
	if base != "" {
		mux.Handle(base, http.RedirectHandler(base+"/", http.StatusMovedPermanently))
		mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, base+"/", http.StatusFound)
		})
	}
	if opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.Expvar {
		mux.Handle("/debug/vars", expvar.Handler())
	}
	return mux
}
