// Package metrics is a process-wide metrics facade over a private prometheus
// registry. Families are created lazily on first use; label keys are fixed by
// that first use. Reset drops everything, which keeps tests independent.
package metrics

import (
	"bytes"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

type registry struct {
	mu        sync.Mutex
	reg       *prometheus.Registry
	counters  map[string]*prometheus.CounterVec
	gauges    map[string]*prometheus.GaugeVec
	summaries map[string]*prometheus.SummaryVec
	labelKeys map[string][]string
}

var r = newRegistry()

func newRegistry() *registry {
	return &registry{
		reg:       prometheus.NewRegistry(),
		counters:  map[string]*prometheus.CounterVec{},
		gauges:    map[string]*prometheus.GaugeVec{},
		summaries: map[string]*prometheus.SummaryVec{},
		labelKeys: map[string][]string{},
	}
}

func sortedKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// complete fills any label key the family knows about that the caller omitted.
func (reg *registry) complete(name string, labels map[string]string) prometheus.Labels {
	out := prometheus.Labels{}
	for _, k := range reg.labelKeys[name] {
		out[k] = labels[k]
	}
	return out
}

// Inc increments a counter family by one.
func Inc(name string, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.counters[name]
	if c == nil {
		keys := sortedKeys(labels)
		c = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, keys)
		if err := r.reg.Register(c); err != nil {
			return
		}
		r.counters[name] = c
		r.labelKeys[name] = keys
	}
	c.With(r.complete(name, labels)).Inc()
}

// SetGauge sets a gauge family to an absolute value.
func SetGauge(name string, labels map[string]string, v int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.gauge(name, labels)
	if g != nil {
		g.With(r.complete(name, labels)).Set(float64(v))
	}
}

// AddGauge adds a delta to a gauge family.
func AddGauge(name string, labels map[string]string, v int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.gauge(name, labels)
	if g != nil {
		g.With(r.complete(name, labels)).Add(float64(v))
	}
}

func (reg *registry) gauge(name string, labels map[string]string) *prometheus.GaugeVec {
	g := reg.gauges[name]
	if g == nil {
		keys := sortedKeys(labels)
		g = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, keys)
		if err := reg.reg.Register(g); err != nil {
			return nil
		}
		reg.gauges[name] = g
		reg.labelKeys[name] = keys
	}
	return g
}

// ObserveSummary records an observation in a summary family.
func ObserveSummary(name string, labels map[string]string, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summaries[name]
	if s == nil {
		keys := sortedKeys(labels)
		s = prometheus.NewSummaryVec(prometheus.SummaryOpts{Name: name}, keys)
		if err := r.reg.Register(s); err != nil {
			return
		}
		r.summaries[name] = s
		r.labelKeys[name] = keys
	}
	s.With(r.complete(name, labels)).Observe(v)
}

// Reset drops all families. Intended for tests.
func Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fresh := newRegistry()
	r.reg = fresh.reg
	r.counters = fresh.counters
	r.gauges = fresh.gauges
	r.summaries = fresh.summaries
	r.labelKeys = fresh.labelKeys
}

// CounterValue returns the current value of one counter series, or 0 when the
// family or series does not exist. Exact label match.
func CounterValue(name string, labels map[string]string) float64 {
	r.mu.Lock()
	reg := r.reg
	r.mu.Unlock()
	mfs, err := reg.Gather()
	if err != nil {
		return 0
	}
	for _, mf := range mfs {
		if mf.GetName() != name || mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m.GetLabel(), labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(pairs []*dto.LabelPair, labels map[string]string) bool {
	if len(pairs) != len(labels) {
		return false
	}
	for _, p := range pairs {
		if labels[p.GetName()] != p.GetValue() {
			return false
		}
	}
	return true
}

// DumpProm renders the registry in the prometheus text exposition format.
func DumpProm() string {
	r.mu.Lock()
	reg := r.reg
	r.mu.Unlock()
	mfs, err := reg.Gather()
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}
