package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rutos_sms_polls_total", Help: "Device list polls by result"},
		[]string{"result"},
	)
	ReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "rutos_sms_received_total", Help: "Newly observed inbound messages"},
	)
	SendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rutos_sms_sends_total", Help: "Send requests by kind and result"},
		[]string{"kind", "result"},
	)
	DeletesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rutos_sms_deletes_total", Help: "Delete requests by trigger"},
		[]string{"trigger"},
	)
)

// Init registers all bridge collectors with the default registry.
// Call once at startup.
func Init() {
	prometheus.MustRegister(PollsTotal)
	prometheus.MustRegister(ReceivedTotal)
	prometheus.MustRegister(SendsTotal)
	prometheus.MustRegister(DeletesTotal)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
