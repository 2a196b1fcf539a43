// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

type noopMetrics struct{}

func defaultNoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) CounterVec(string, []string) CounterVecMeter { return noopMeter{} }

func (noopMetrics) GaugeVec(string, []string) GaugeVecMeter { return noopMeter{} }

func (noopMetrics) HistogramVec(string, []string, []int64) HistogramVecMeter { return noopMeter{} }

// Handler answers 404 while metrics are disabled.
func (noopMetrics) Handler() http.Handler { return http.NotFoundHandler() }

type noopMeter struct{}

func (noopMeter) Add(int64, Labels)     {}
func (noopMeter) Set(int64, Labels)     {}
func (noopMeter) Observe(int64, Labels) {}
