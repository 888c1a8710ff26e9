package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes are the handlers mounted by NewServer. Nil handlers are not mounted.
type Routes struct {
	Payments http.Handler
	// TelegramPath is where Telegram pushes updates in webhook mode, usually "/<token>".
	TelegramPath string
	Telegram     http.Handler
	Gatherer     prometheus.Gatherer
}

// NewServer wires health, metrics and webhook routes.
func NewServer(addr string, routes Routes) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if routes.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(routes.Gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}

	if routes.Payments != nil {
		mux.Handle("/bmc_webhook", routes.Payments)
	}
	if routes.Telegram != nil && routes.TelegramPath != "" {
		mux.Handle(routes.TelegramPath, routes.Telegram)
	}

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}
