package utils

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metricser .
type Metricser interface {
	EmitCounter(name string, count int, tags map[string]string)
	EmitStore(name string, value float64, tags map[string]string)
	EmitTimer(name string, costMs int, tags map[string]string)
}

// DefaultMetricser exposes counters, gauges and timers through a prometheus
// registry. Metric vectors are created lazily on first emit; the label set of
// a metric is fixed by that first emit.
type DefaultMetricser struct {
	prefix   string
	registry *prometheus.Registry

	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	lock       sync.Mutex
}

// NewMetricser .
func NewMetricser(prefix string, registry *prometheus.Registry) *DefaultMetricser {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &DefaultMetricser{
		prefix:     prefix,
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Registry .
func (m *DefaultMetricser) Registry() *prometheus.Registry {
	return m.registry
}

func (m *DefaultMetricser) metricName(name string) string {
	full := m.prefix + "_" + name
	return strings.NewReplacer(".", "_", "-", "_").Replace(full)
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// EmitCounter .
func (m *DefaultMetricser) EmitCounter(name string, count int, tags map[string]string) {
	m.lock.Lock()
	defer m.lock.Unlock()

	key := m.metricName(name)
	vec, ok := m.counters[key]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: key}, labelNames(tags))
		m.registry.MustRegister(vec)
		m.counters[key] = vec
	}
	vec.With(prometheus.Labels(tags)).Add(float64(count))
}

// EmitStore .
func (m *DefaultMetricser) EmitStore(name string, value float64, tags map[string]string) {
	m.lock.Lock()
	defer m.lock.Unlock()

	key := m.metricName(name)
	vec, ok := m.gauges[key]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: key}, labelNames(tags))
		m.registry.MustRegister(vec)
		m.gauges[key] = vec
	}
	vec.With(prometheus.Labels(tags)).Set(value)
}

// EmitTimer .
func (m *DefaultMetricser) EmitTimer(name string, costMs int, tags map[string]string) {
	m.lock.Lock()
	defer m.lock.Unlock()

	key := m.metricName(name) + "_ms"
	vec, ok := m.histograms[key]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    key,
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}, labelNames(tags))
		m.registry.MustRegister(vec)
		m.histograms[key] = vec
	}
	vec.With(prometheus.Labels(tags)).Observe(float64(costMs))
}

var defaultMetricser = NewMetricser("rtinfer", prometheus.NewRegistry())

// DefaultRegistry .
func DefaultRegistry() *prometheus.Registry {
	return defaultMetricser.Registry()
}

// NewDefaultMetricser .
func NewDefaultMetricser() Metricser {
	return defaultMetricser
}

// EmitCounter .
func EmitCounter(name string, count int, tags map[string]string) {
	defaultMetricser.EmitCounter(name, count, tags)
}

// EmitStore .
func EmitStore(name string, value float64, tags map[string]string) {
	defaultMetricser.EmitStore(name, value, tags)
}

// EmitTimer .
func EmitTimer(name string, costMs int, tags map[string]string) {
	defaultMetricser.EmitTimer(name, costMs, tags)
}
