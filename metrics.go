package main

import (
	"net/http"
	"strconv"

	"github.com/bemasher/ash500/ash500"
	"github.com/bemasher/ash500/parse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/xerrors"
)

// Metrics holds the receiver's collectors in a registry of its own.
type Metrics struct {
	registry *prometheus.Registry

	captures     prometheus.Counter
	decodeErrors *prometheus.CounterVec
	readings     prometheus.Counter

	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	rssi        *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		captures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ash500_captures_total",
			Help: "Captures received from the radio",
		}),
		decodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ash500_decode_errors_total",
			Help: "Captures discarded, by reason",
		}, []string{"kind"}),
		readings: factory.NewCounter(prometheus.CounterOpts{
			Name: "ash500_readings_total",
			Help: "Readings accepted by the filter chain",
		}),
		temperature: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ash500_temperature_celsius",
			Help: "Last reported temperature",
		}, []string{"serial"}),
		humidity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ash500_humidity_percent",
			Help: "Last reported relative humidity",
		}, []string{"serial"}),
		rssi: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ash500_rssi_dbm",
			Help: "Signal strength of the last reading",
		}, []string{"serial"}),
	}
}

func (m *Metrics) Capture() {
	m.captures.Inc()
}

func (m *Metrics) DecodeError(err error) {
	kind := "other"

	var decErr ash500.DecodeError
	if xerrors.As(err, &decErr) {
		kind = decErr.Kind.String()
	}

	m.decodeErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Reading(msg parse.LogMessage) {
	m.readings.Inc()

	serial := strconv.Itoa(int(msg.SensorID()))
	m.rssi.WithLabelValues(serial).Set(float64(msg.RSSI))

	if r, ok := msg.Message.(ash500.Reading); ok {
		m.temperature.WithLabelValues(serial).Set(float64(r.Temperature) / 10)
		m.humidity.WithLabelValues(serial).Set(float64(r.Humidity))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
