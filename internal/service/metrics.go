package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts document operations by outcome. A nil *Metrics records nothing.
type Metrics struct {
	operations    *prometheus.CounterVec
	uploadedBytes prometheus.Counter
	orphans       *prometheus.CounterVec
}

// NewMetrics registers the document collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_document_operations_total",
				Help: "Document operations by operation and result.",
			},
			[]string{"operation", "result"},
		),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docvault_uploaded_bytes_total",
			Help: "Bytes accepted by successful uploads.",
		}),
		orphans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_orphans_total",
				Help: "Orphans found by reconciliation, by kind (blob, metadata).",
			},
			[]string{"kind"},
		),
	}
	for _, c := range []prometheus.Collector{m.operations, m.uploadedBytes, m.orphans} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	result := "success"
	switch {
	case err == nil:
	case IsValidation(err):
		result = "rejected"
	case IsNotFound(err):
		result = "not_found"
	default:
		result = "error"
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) warn(operation string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, "warning").Inc()
}

func (m *Metrics) uploaded(n int64) {
	if m == nil {
		return
	}
	m.uploadedBytes.Add(float64(n))
}

func (m *Metrics) orphan(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.orphans.WithLabelValues(kind).Add(float64(n))
}
