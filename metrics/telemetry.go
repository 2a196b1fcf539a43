// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics exposes labelled meters backed by a noop service until
// prometheus is initialized.
package metrics

import (
	"net/http"
	"sync"
)

var metrics = defaultNoopMetrics()

// Labels binds label names to values for one observation.
type Labels map[string]string

// Metrics is implemented by the noop and prometheus services.
type Metrics interface {
	CounterVec(name string, labels []string) CounterVecMeter
	GaugeVec(name string, labels []string) GaugeVecMeter
	HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter
	Handler() http.Handler
}

// HTTPHandler serves the current meters in the exposition format.
func HTTPHandler() http.Handler {
	return metrics.Handler()
}

// BucketHTTPReqs are request latency buckets in milliseconds.
var BucketHTTPReqs = []int64{
	0, 1, 2, 5, 10, 20, 30, 50, 75, 100,
	150, 200, 300, 400, 500, 750, 1000,
	1500, 2000, 3000, 4000, 5000, 10000,
}

// CounterVecMeter only ever grows, per label set.
type CounterVecMeter interface {
	Add(v int64, labels Labels)
}

// GaugeVecMeter holds a value per label set.
type GaugeVecMeter interface {
	Add(v int64, labels Labels)
	Set(v int64, labels Labels)
}

// HistogramVecMeter buckets observations per label set.
type HistogramVecMeter interface {
	Observe(v int64, labels Labels)
}

func CounterVec(name string, labels []string) CounterVecMeter {
	return metrics.CounterVec(name, labels)
}

func GaugeVec(name string, labels []string) GaugeVecMeter {
	return metrics.GaugeVec(name, labels)
}

func HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return metrics.HistogramVec(name, labels, buckets)
}

// LazyLoad defers creating a meter to its first use, so package level meters
// pick up the service initialized at startup.
func LazyLoad[T any](f func() T) func() T {
	var (
		result T
		once   sync.Once
	)
	return func() T {
		once.Do(func() { result = f() })
		return result
	}
}

func LazyLoadCounterVec(name string, labels []string) func() CounterVecMeter {
	return LazyLoad(func() CounterVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGaugeVec(name string, labels []string) func() GaugeVecMeter {
	return LazyLoad(func() GaugeVecMeter { return GaugeVec(name, labels) })
}

func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return LazyLoad(func() HistogramVecMeter { return HistogramVec(name, labels, buckets) })
}
