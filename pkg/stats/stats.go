package stats

import (
	"bufio"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOk    = "ok"
	ResultError = "error"
)

var (
	// PocketsLoaded is the number of pockets held in memory, per kind.
	PocketsLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pockets",
		Subsystem: "registry",
		Name:      "loaded",
		Help:      "Pockets currently loaded in memory",
	}, []string{"kind"})

	// PocketOperations counts registry operations by outcome.
	PocketOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pockets",
		Subsystem: "registry",
		Name:      "operations_total",
		Help:      "Registry operations by outcome",
	}, []string{"op", "result"})
)

// ObserveOperation counts an operation, labelling it by whether err is nil.
func ObserveOperation(op string, err error) {
	result := ResultOk
	if err != nil {
		result = ResultError
	}
	PocketOperations.WithLabelValues(op, result).Inc()
}

// DumpPrometheusDefaults appends the metrics of the default Prometheus
// registry to the file at path.
func DumpPrometheusDefaults(path string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	metricFamily, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)
	for _, v := range metricFamily {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}
