package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var defaultBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Prometheus registers a vector per metric name on first use.
// The label set of a name is fixed by its first observation.
type Prometheus struct {
	namespace  string
	registry   *prometheus.Registry
	logger     logrus.FieldLogger
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	labels     map[string][]string
}

// NewPrometheus creates a sink backed by its own registry, with Go and process collectors
func NewPrometheus(namespace string, logger logrus.FieldLogger) *Prometheus {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Prometheus{
		namespace:  namespace,
		registry:   registry,
		logger:     logger,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labels:     make(map[string][]string),
	}
}

// Registry exposes the underlying registry
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) Inc(name string, tags Tags) {
	p.Add(name, 1, tags)
}

func (p *Prometheus) Add(name string, value float64, tags Tags) {
	counter, ok := p.counter(name, tags)
	if !ok {
		return
	}
	counter.With(prometheus.Labels(tags)).Add(value)
}

func (p *Prometheus) Observe(name string, seconds float64, tags Tags) {
	histogram, ok := p.histogram(name, tags)
	if !ok {
		return
	}
	histogram.With(prometheus.Labels(tags)).Observe(seconds)
}

func (p *Prometheus) counter(name string, tags Tags) (*prometheus.CounterVec, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if vec, ok := p.counters[name]; ok {
		return vec, p.sameLabels(name, tags)
	}

	labels := tags.keys()
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: p.namespace,
		Name:      name,
		Help:      name,
	}, labels)
	if err := p.registry.Register(vec); err != nil {
		p.logger.WithError(err).WithField("metric", name).Warn("failed to register counter")
		return nil, false
	}
	p.counters[name] = vec
	p.labels[name] = labels
	return vec, true
}

func (p *Prometheus) histogram(name string, tags Tags) (*prometheus.HistogramVec, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if vec, ok := p.histograms[name]; ok {
		return vec, p.sameLabels(name, tags)
	}

	labels := tags.keys()
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: p.namespace,
		Name:      name,
		Help:      name,
		Buckets:   defaultBuckets,
	}, labels)
	if err := p.registry.Register(vec); err != nil {
		p.logger.WithError(err).WithField("metric", name).Warn("failed to register histogram")
		return nil, false
	}
	p.histograms[name] = vec
	p.labels[name] = labels
	return vec, true
}

// caller holds p.mu
func (p *Prometheus) sameLabels(name string, tags Tags) bool {
	want := p.labels[name]
	if len(want) != len(tags) {
		p.logger.WithField("metric", name).Warn("label set mismatch, observation dropped")
		return false
	}
	for _, l := range want {
		if _, ok := tags[l]; !ok {
			p.logger.WithField("metric", name).Warn("label set mismatch, observation dropped")
			return false
		}
	}
	return true
}
