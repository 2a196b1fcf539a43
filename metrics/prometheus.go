// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vechain/stakepool/log"
)

const namespace = "stakepool"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the package to prometheus. Calling it
// again keeps the meters already created.
func InitializePrometheusMetrics() {
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = &prometheusMetrics{}
	}
}

// prometheusMetrics keeps one meter per kind and name.
type prometheusMetrics struct {
	meters sync.Map
}

// getOrCreate returns the meter stored under kind and name, registering the
// collector built by create on first use.
func getOrCreate[T any](o *prometheusMetrics, kind, name string, create func() (prometheus.Collector, T)) T {
	key := kind + "/" + name
	if item, ok := o.meters.Load(key); ok {
		return item.(T)
	}
	collector, meter := create()
	if err := prometheus.Register(collector); err != nil {
		logger.Warn("unable to register metric", "name", name, "err", err)
	}
	actual, _ := o.meters.LoadOrStore(key, meter)
	return actual.(T)
}

func (o *prometheusMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (o *prometheusMetrics) CounterVec(name string, labels []string) CounterVecMeter {
	return getOrCreate(o, "counter", name, func() (prometheus.Collector, CounterVecMeter) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return c, promCounterVec{c}
	})
}

func (o *prometheusMetrics) GaugeVec(name string, labels []string) GaugeVecMeter {
	return getOrCreate(o, "gauge", name, func() (prometheus.Collector, GaugeVecMeter) {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
		return g, promGaugeVec{g}
	})
}

func (o *prometheusMetrics) HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return getOrCreate(o, "histogram", name, func() (prometheus.Collector, HistogramVecMeter) {
		floats := make([]float64, 0, len(buckets))
		for _, b := range buckets {
			floats = append(floats, float64(b))
		}
		if len(floats) == 0 {
			floats = nil
		}
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floats,
		}, labels)
		return h, promHistogramVec{h}
	})
}

type promCounterVec struct{ *prometheus.CounterVec }

func (c promCounterVec) Add(v int64, labels Labels) {
	c.With(prometheus.Labels(labels)).Add(float64(v))
}

type promGaugeVec struct{ *prometheus.GaugeVec }

func (g promGaugeVec) Add(v int64, labels Labels) {
	g.With(prometheus.Labels(labels)).Add(float64(v))
}

func (g promGaugeVec) Set(v int64, labels Labels) {
	g.With(prometheus.Labels(labels)).Set(float64(v))
}

type promHistogramVec struct{ *prometheus.HistogramVec }

func (h promHistogramVec) Observe(v int64, labels Labels) {
	h.With(prometheus.Labels(labels)).Observe(float64(v))
}
