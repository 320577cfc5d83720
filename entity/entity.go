// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package entity maintains the networked entity table across a demo's
// update stream.
//
// Entities are addressed by wire index and identified by (class, serial).
// Each update command carries a delta against the previous state: entities
// enter with a class id and a baseline, change through field-path deltas,
// leave the visible set, or are deleted outright.
//
// The store materializes selectively: callers subscribe to the class fields
// they care about, and only those values are retained. Everything else is
// still decoded off the shared bitstream, because value widths are
// data-dependent and skipping at the bit level would desynchronize every
// later field, then discarded.
package entity

import (
	"github.com/hax0r31337/demoinfocs2-lite/fieldpath"
	"github.com/hax0r31337/demoinfocs2-lite/sendtable"
)

// Entity is one live slot of the entity table.
type Entity struct {
	index  int32
	serial uint32

	classID   int32
	className string

	serializer *sendtable.Serializer

	dormant bool

	// values holds the materialized subscribed paths.
	values map[fieldpath.Path]interface{}
	// variants holds the pinned polymorphic variant per field path. Pins
	// are tracked regardless of subscription; later deltas need them to
	// stay aligned.
	variants map[fieldpath.Path]int
}

// Index returns the entity's wire index.
func (e *Entity) Index() int32 { return e.index }

// Serial returns the entity's serial number.
func (e *Entity) Serial() uint32 { return e.serial }

// ClassID returns the entity's class id.
func (e *Entity) ClassID() int32 { return e.classID }

// ClassName returns the entity's network class name.
func (e *Entity) ClassName() string { return e.className }

// Dormant reports whether the entity has left the visible set. State is
// retained while dormant, but iteration skips the entity.
func (e *Entity) Dormant() bool { return e.dormant }

// Value returns the materialized value at path, if the path is subscribed
// and has been decoded.
func (e *Entity) Value(p fieldpath.Path) (interface{}, bool) {
	v, ok := e.values[p]
	return v, ok
}

// Snapshot returns a copy of every materialized path and value.
func (e *Entity) Snapshot() map[fieldpath.Path]interface{} {
	out := make(map[fieldpath.Path]interface{}, len(e.values))
	for p, v := range e.values {
		out[p] = v
	}
	return out
}

func copyValues(m map[fieldpath.Path]interface{}) map[fieldpath.Path]interface{} {
	out := make(map[fieldpath.Path]interface{}, len(m))
	for p, v := range m {
		out[p] = v
	}
	return out
}

func copyVariants(m map[fieldpath.Path]int) map[fieldpath.Path]int {
	out := make(map[fieldpath.Path]int, len(m))
	for p, v := range m {
		out[p] = v
	}
	return out
}

// pathSink routes one field path's decode results into an entity.
type pathSink struct {
	ent         *Entity
	path        fieldpath.Path
	materialize bool
	changed     bool
}

func (s *pathSink) Materialize() bool { return s.materialize }

func (s *pathSink) SetValue(v interface{}) {
	s.ent.values[s.path] = v
	s.changed = true
}

func (s *pathSink) Resize(n int) {
	if s.materialize {
		s.ent.values[s.path] = n
		s.changed = true
	}
}

func (s *pathSink) SetPresence(present bool) {
	if s.materialize {
		s.ent.values[s.path] = present
		s.changed = true
	}
}

func (s *pathSink) PinVariant(idx int) {
	s.ent.variants[s.path] = idx
	if s.materialize {
		s.changed = true
	}
}

func (s *pathSink) VariantAt(prefixLen int) (int, bool) {
	v, ok := s.ent.variants[s.path.Prefix(prefixLen)]
	return v, ok
}
