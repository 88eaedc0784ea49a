package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CartMetrics records cart mutations and the current cart shape.
type CartMetrics struct {
	Mutations *prometheus.CounterVec
	Lines     prometheus.Gauge
	Units     prometheus.Gauge

	// classify maps a mutation error to a result label
	classify func(error) string
}

func NewCartMetrics(reg prometheus.Registerer, classify func(error) string) *CartMetrics {
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gomarketplace",
		Subsystem: "cart",
		Name:      "mutations_total",
		Help:      "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	lines := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gomarketplace",
		Subsystem: "cart",
		Name:      "lines",
		Help:      "Distinct items currently in the cart.",
	})
	units := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gomarketplace",
		Subsystem: "cart",
		Name:      "units",
		Help:      "Sum of item quantities currently in the cart.",
	})

	reg.MustRegister(mutations, lines, units)
	if classify == nil {
		classify = defaultClassify
	}
	return &CartMetrics{Mutations: mutations, Lines: lines, Units: units, classify: classify}
}

func (m *CartMetrics) ObserveMutation(op string, err error) {
	m.Mutations.WithLabelValues(op, m.classify(err)).Inc()
}

func (m *CartMetrics) ObserveCart(lines, units int) {
	m.Lines.Set(float64(lines))
	m.Units.Set(float64(units))
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func defaultClassify(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
