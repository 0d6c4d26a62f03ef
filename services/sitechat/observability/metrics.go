// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the chat
// service: request counters, streaming latency histograms, retrieval
// volumes, and turn-log activity. Metrics are exposed on /metrics.
//
// All operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "sitechat"

const chatSubsystem = "chat"

// ChatMetrics holds every Prometheus metric the service records.
// Initialize once at startup via InitMetrics().
type ChatMetrics struct {
	// RequestsTotal counts chat requests by outcome.
	// Labels: outcome (answered, greeting, refused, error)
	RequestsTotal *prometheus.CounterVec

	// InjectionAttemptsTotal counts requests flagged by the injection
	// scan.
	InjectionAttemptsTotal prometheus.Counter

	// RetrievedPassagesTotal counts passages by stage.
	// Labels: stage (raw, merged)
	RetrievedPassagesTotal *prometheus.CounterVec

	// TimeToFirstChunkSeconds measures latency to the first streamed
	// chunk.
	TimeToFirstChunkSeconds prometheus.Histogram

	// StreamDurationSeconds measures total stream duration by outcome.
	// Labels: status (success, error)
	StreamDurationSeconds *prometheus.HistogramVec

	// ActiveStreams tracks in-flight streaming responses.
	ActiveStreams prometheus.Gauge

	// ErrorsTotal counts failures by component.
	// Labels: component (retrieval, llm, store)
	ErrorsTotal *prometheus.CounterVec

	// TurnsLoggedTotal counts persisted chat turns by kind.
	// Labels: kind (qa, greeting)
	TurnsLoggedTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *ChatMetrics

// InitMetrics creates and registers all metrics. Call once at startup;
// a second call panics on duplicate registration.
func InitMetrics() *ChatMetrics {
	DefaultMetrics = &ChatMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "requests_total",
				Help:      "Total chat requests by outcome",
			},
			[]string{"outcome"},
		),

		InjectionAttemptsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "injection_attempts_total",
				Help:      "Requests flagged by the prompt-injection scan",
			},
		),

		RetrievedPassagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "retrieved_passages_total",
				Help:      "Passages retrieved, before and after filtering",
			},
			[]string{"stage"},
		),

		TimeToFirstChunkSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "time_to_first_chunk_seconds",
				Help:      "Time from request to first streamed chunk in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),

		StreamDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "stream_duration_seconds",
				Help:      "Total stream duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),

		ActiveStreams: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "active_streams",
				Help:      "Number of in-flight streaming responses",
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "errors_total",
				Help:      "Failures by component",
			},
			[]string{"component"},
		),

		TurnsLoggedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "turns_logged_total",
				Help:      "Persisted chat turns by kind",
			},
			[]string{"kind"},
		),
	}
	return DefaultMetrics
}

// Outcome labels for RequestsTotal.
const (
	OutcomeAnswered = "answered"
	OutcomeGreeting = "greeting"
	OutcomeRefused  = "refused"
	OutcomeError    = "error"
)

// RecordRequest records a completed chat request.
func (m *ChatMetrics) RecordRequest(outcome string) {
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordRetrieval records passage counts before and after filtering.
func (m *ChatMetrics) RecordRetrieval(raw, merged int) {
	m.RetrievedPassagesTotal.WithLabelValues("raw").Add(float64(raw))
	m.RetrievedPassagesTotal.WithLabelValues("merged").Add(float64(merged))
}

// RecordError records a component failure.
func (m *ChatMetrics) RecordError(component string) {
	m.ErrorsTotal.WithLabelValues(component).Inc()
}

// RecordStreamDuration records how long a stream ran.
func (m *ChatMetrics) RecordStreamDuration(seconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.StreamDurationSeconds.WithLabelValues(status).Observe(seconds)
}

// RecordTurnLogged records a persisted chat turn.
func (m *ChatMetrics) RecordTurnLogged(kind string) {
	m.TurnsLoggedTotal.WithLabelValues(kind).Inc()
}
