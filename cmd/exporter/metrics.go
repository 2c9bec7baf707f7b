package main

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	currentWeight prometheus.Gauge
	currentPulse  prometheus.Gauge
	lastScrape    prometheus.Gauge
	scrapeErrors  *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		currentWeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "withings_current_weight",
			Help: "Shows the latest weight measurement (assumed in kg)",
		}),
		currentPulse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "withings_current_pulse",
			Help: "Shows the latest heart pulse measurement in bpm",
		}),
		lastScrape: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "withings_last_scrape_timestamp_seconds",
			Help: "Unix time of the last successful refresh",
		}),
		scrapeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "withings_scrape_errors_total",
			Help: "Number of failed Withings API calls by measure",
		}, []string{"measure"}),
	}
}

func (m *metrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.currentWeight, m.currentPulse, m.lastScrape, m.scrapeErrors)
}
