package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arvarik/withings-go/withings"
)

// newRouter serves the metrics endpoint and the subscription callback.
// Accepted notifications request a refresh on trigger without blocking.
func newRouter(gatherer prometheus.Gatherer, trigger chan<- struct{}, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Withings probes the callback with HEAD or GET before subscribing.
	probe := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	r.Head("/notify", probe)
	r.Get("/notify", probe)

	r.Post("/notify", func(w http.ResponseWriter, r *http.Request) {
		event, err := withings.ParseNotification(r)
		if err != nil {
			logger.Warn("rejected notification", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		logger.Info("received notification",
			zap.String("userid", event.UserID),
			zap.Int("appli", int(event.Appli)),
		)

		switch event.Appli {
		case withings.AppliWeight, withings.AppliHeart:
			select {
			case trigger <- struct{}{}:
			default:
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	return r
}
