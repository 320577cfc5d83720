// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package gameevent decodes the legacy game-event stream.
//
// A one-time descriptor list maps event ids to an ordered key schema;
// event instances then carry one typed value per schema key. The package
// hands (event name, typed values) tuples to caller handlers and assigns
// no meaning to either; interpreting "player_death" is the caller's
// business.
package gameevent

import (
	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/demo/demopb"
	"github.com/hax0r31337/demoinfocs2-lite/support/logging"
)

// Kind is a value's wire type, numbered as the protocol numbers them.
type Kind int32

const (
	KindString Kind = 1
	KindFloat  Kind = 2
	KindLong   Kind = 3
	KindShort  Kind = 4
	KindByte   Kind = 5
	KindBool   Kind = 6
	KindUint64 Kind = 7
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindLong:
		return "long"
	case KindShort:
		return "short"
	case KindByte:
		return "byte"
	case KindBool:
		return "bool"
	case KindUint64:
		return "uint64"
	default:
		return "unknown"
	}
}

// Value is one decoded event field. Exactly the member matching Kind is
// meaningful.
type Value struct {
	Kind Kind

	Str    string
	Float  float32
	Int    int32
	Bool   bool
	Uint64 uint64
}

// KeySchema is one slot of an event's descriptor.
type KeySchema struct {
	Name string
	Type Kind
}

// Descriptor maps an event id to its name and ordered key schema.
type Descriptor struct {
	ID   int32
	Name string
	Keys []KeySchema
}

// Event is one decoded instance, with values in descriptor key order.
type Event struct {
	desc   *Descriptor
	values []Value
}

// ID returns the event's id.
func (e *Event) ID() int32 { return e.desc.ID }

// Name returns the event's name.
func (e *Event) Name() string { return e.desc.Name }

// Len returns the number of values.
func (e *Event) Len() int { return len(e.values) }

// At returns the i'th value.
func (e *Event) At(i int) Value { return e.values[i] }

// Value returns the value of the named key.
func (e *Event) Value(key string) (Value, bool) {
	for i, k := range e.desc.Keys {
		if k.Name == key {
			return e.values[i], true
		}
	}
	return Value{}, false
}

// Handler consumes decoded instances of one event name.
type Handler func(e *Event) error

// Registry holds one parse session's descriptor catalog and handlers. It
// is not safe for concurrent use.
type Registry struct {
	logger logging.L

	handlers map[string]Handler
	byID     map[int32]*Descriptor

	// sealed is set once the descriptor list arrives; handler registration
	// is a pre-parse operation.
	sealed bool
}

// NewRegistry builds an empty event registry.
func NewRegistry(logger logging.L) *Registry {
	return &Registry{
		logger:   logging.Must(logger),
		handlers: make(map[string]Handler),
		byID:     make(map[int32]*Descriptor),
	}
}

// Handle registers a handler for an event name. Registration closes when
// the descriptor list arrives.
func (r *Registry) Handle(name string, h Handler) error {
	if r.sealed {
		return errors.Errorf("gameevent: handler for %s registered after the descriptor list", name)
	}
	if _, exists := r.handlers[name]; exists {
		return errors.Errorf("gameevent: handler for %s already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// Descriptor returns the catalog entry for an event id.
func (r *Registry) Descriptor(id int32) (*Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// ApplyDescriptorList installs the event catalog, replacing any prior one.
func (r *Registry) ApplyDescriptorList(msg *demopb.CMsgSource1LegacyGameEventList) error {
	r.byID = make(map[int32]*Descriptor, len(msg.GetDescriptors()))

	handled := 0
	for _, dpb := range msg.GetDescriptors() {
		if dpb.Eventid == nil || dpb.Name == nil {
			r.logger.Warn("Skipping event descriptor without id or name.")
			continue
		}

		d := &Descriptor{
			ID:   dpb.GetEventid(),
			Name: dpb.GetName(),
			Keys: make([]KeySchema, 0, len(dpb.GetKeys())),
		}
		for _, kpb := range dpb.GetKeys() {
			d.Keys = append(d.Keys, KeySchema{
				Name: kpb.GetName(),
				Type: Kind(kpb.GetType()),
			})
		}
		r.byID[d.ID] = d

		if _, ok := r.handlers[d.Name]; ok {
			handled++
		}
	}

	if handled != len(r.handlers) {
		r.logger.Warnf("%d of %d handled event names are absent from the descriptor list.",
			len(r.handlers)-handled, len(r.handlers))
	}
	r.sealed = true
	return nil
}

// Dispatch decodes one event instance and invokes its handler. Events
// without a handler, and events whose id predates the catalog, are
// skipped.
func (r *Registry) Dispatch(msg *demopb.CMsgSource1LegacyGameEvent) error {
	if msg.Eventid == nil {
		r.logger.Warn("Skipping game event without an id.")
		return nil
	}

	desc, ok := r.byID[msg.GetEventid()]
	if !ok {
		r.logger.Warnf("Skipping game event with unknown id %d.", msg.GetEventid())
		return nil
	}
	h, ok := r.handlers[desc.Name]
	if !ok {
		return nil
	}

	keys := msg.GetKeys()
	if len(keys) != len(desc.Keys) {
		return errors.Errorf("gameevent: event %s carries %d values, descriptor has %d keys",
			desc.Name, len(keys), len(desc.Keys))
	}

	ev := &Event{
		desc:   desc,
		values: make([]Value, len(keys)),
	}
	for i, kpb := range keys {
		v, err := decodeValue(kpb)
		if err != nil {
			return errors.Wrapf(err, "gameevent: event %s key %s", desc.Name, desc.Keys[i].Name)
		}
		ev.values[i] = v
	}

	return errors.Wrapf(h(ev), "gameevent: handler for %s", desc.Name)
}

func decodeValue(kpb *demopb.CMsgSource1LegacyGameEventKeyT) (Value, error) {
	kind := Kind(kpb.GetType())
	v := Value{Kind: kind}
	switch kind {
	case KindString:
		v.Str = kpb.GetValString()
	case KindFloat:
		v.Float = kpb.GetValFloat()
	case KindLong:
		v.Int = kpb.GetValLong()
	case KindShort:
		v.Int = kpb.GetValShort()
	case KindByte:
		v.Int = kpb.GetValByte()
	case KindBool:
		v.Bool = kpb.GetValBool()
	case KindUint64:
		v.Uint64 = kpb.GetValUint64()
	default:
		return Value{}, errors.Errorf("unknown value type %d", kpb.GetType())
	}
	return v, nil
}
