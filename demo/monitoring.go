// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package demo

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	framesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "demoinfocs_frames_read",
		Help: "Count of demo frames read.",
	})

	frameBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "demoinfocs_frame_bytes",
		Help: "Count of frame body bytes read, before decompression.",
	})

	decompressedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "demoinfocs_decompressed_bytes",
		Help: "Count of bytes produced by frame decompression.",
	})

	embeddedMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "demoinfocs_embedded_messages",
		Help: "Count of embedded packet messages, by disposition.",
	}, []string{"disposition"})

	entityEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "demoinfocs_entity_events",
		Help: "Count of entity lifecycle events.",
	}, []string{"type"})

	gameEventsDecoded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "demoinfocs_game_events_decoded",
		Help: "Count of game-event instances decoded.",
	})

	stringTableDropped = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "demoinfocs_stringtable_dropped_entries",
		Help: "Count of string table entries dropped for unresolvable keys.",
	})

	parseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "demoinfocs_parse_errors",
		Help: "Count of fatal parse errors.",
	})
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		framesRead,
		frameBytes,
		decompressedBytes,
		embeddedMessages,
		entityEvents,
		gameEventsDecoded,
		stringTableDropped,
		parseErrors,
	)
}
