// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package entity

import (
	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/demo/demopb"
	"github.com/hax0r31337/demoinfocs2-lite/fieldpath"
	"github.com/hax0r31337/demoinfocs2-lite/sendtable"
	"github.com/hax0r31337/demoinfocs2-lite/support/bitreader"
	"github.com/hax0r31337/demoinfocs2-lite/support/logging"
)

const serialBits = 17

// A Listener receives entity lifecycle notifications, in command order.
// Nil callbacks are skipped.
type Listener struct {
	// Created fires after an entity entered and its full update applied.
	Created func(e *Entity)
	// Updated fires after a delta update, with the subscribed paths that
	// changed. It does not fire when no subscribed path changed.
	Updated func(e *Entity, changed []fieldpath.Path)
	// Left fires when an entity goes dormant.
	Left func(e *Entity)
	// Destroyed fires when an entity's slot is freed.
	Destroyed func(e *Entity)
}

type subscription struct {
	className string
	field     string
}

// cachedBaseline is a decoded instance baseline for one class, holding only
// subscribed values. It is copied into each entity seeded from it.
type cachedBaseline struct {
	values   map[fieldpath.Path]interface{}
	variants map[fieldpath.Path]int
}

// State is one parse session's entity table. It is owned by the session
// and is not safe for concurrent use.
type State struct {
	reg    *sendtable.Registry
	logger logging.L

	entities list

	pending  []subscription
	resolved map[string][][]int32

	rawBaselines     map[int32][]byte
	decodedBaselines map[int32]*cachedBaseline

	listeners []Listener

	// Scratch reused across updates.
	paths   []fieldpath.Path
	changed []fieldpath.Path
}

// NewState builds an empty entity table over the session's registry.
func NewState(reg *sendtable.Registry, logger logging.L) *State {
	return &State{
		reg:              reg,
		logger:           logging.Must(logger),
		resolved:         make(map[string][][]int32),
		rawBaselines:     make(map[int32][]byte),
		decodedBaselines: make(map[int32]*cachedBaseline),
	}
}

// Subscribe registers interest in a class field, named by its dotted path.
// Subscriptions registered before the schema arrives are resolved when it
// does; everything under the named field is materialized.
func (s *State) Subscribe(className string, fields ...string) {
	for _, f := range fields {
		s.pending = append(s.pending, subscription{className, f})
	}
}

// AddListener attaches lifecycle callbacks.
func (s *State) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// ResolveSubscriptions binds pending subscriptions against the built
// schema. Unresolvable subscriptions fail: a silently dropped subscription
// would surface as mysteriously missing data much later.
func (s *State) ResolveSubscriptions() error {
	for _, sub := range s.pending {
		ser, ok := s.reg.Serializer(sub.className)
		if !ok {
			return errors.Errorf("entity: subscription to unknown class %s", sub.className)
		}
		prefix, err := ser.PathOf(sub.field)
		if err != nil {
			return errors.Wrapf(err, "subscription %s.%s", sub.className, sub.field)
		}
		s.resolved[sub.className] = append(s.resolved[sub.className], prefix)
	}
	s.pending = nil
	return nil
}

// SetBaseline stores the raw instance baseline for a class and drops any
// decoded form of the previous one.
func (s *State) SetBaseline(classID int32, raw []byte) {
	s.rawBaselines[classID] = raw
	delete(s.decodedBaselines, classID)
}

// InvalidateBaselines drops every decoded baseline. Called when a new
// schema block arrives, since decoded values are schema-relative.
func (s *State) InvalidateBaselines() {
	s.decodedBaselines = make(map[int32]*cachedBaseline)
}

// Find returns the live entity at idx. Dormant entities are returned too;
// callers that only want visible ones check Dormant.
func (s *State) Find(idx int32) (*Entity, bool) {
	e := s.entities.get(idx)
	return e, e != nil
}

// Each visits every visible entity in index order.
func (s *State) Each(fn func(*Entity)) {
	s.entities.each(func(e *Entity) {
		if !e.dormant {
			fn(e)
		}
	})
}

// Snapshot returns the subscribed values of the entity at idx.
func (s *State) Snapshot(idx int32) (map[fieldpath.Path]interface{}, bool) {
	e := s.entities.get(idx)
	if e == nil {
		return nil, false
	}
	return e.Snapshot(), true
}

func (s *State) subscribed(className string, p fieldpath.Path) bool {
	for _, prefix := range s.resolved[className] {
		if len(prefix) > p.Depth() {
			continue
		}
		match := true
		for i, idx := range prefix {
			if p.At(i) != idx {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// ApplyPacket applies one entity update command.
func (s *State) ApplyPacket(msg *demopb.CSVCMsg_PacketEntities) error {
	data := msg.GetEntityData()
	if data == nil {
		return errors.New("entity: update carries no entity data")
	}

	hasPvsVisBits := msg.GetHasPvsVisBits() > 0

	r := bitreader.New(data)
	idx := int32(-1)

	for entry := int32(0); entry < msg.GetUpdatedEntries(); entry++ {
		delta, err := r.ReadUBitVar()
		if err != nil {
			return errors.Wrap(err, "entity index delta")
		}
		idx += int32(delta) + 1

		cmd, err := r.ReadBits(2)
		if err != nil {
			return errors.Wrap(err, "entity update flags")
		}

		if cmd&1 != 0 {
			if cmd&2 != 0 {
				s.destroy(idx)
			} else {
				s.leave(idx)
			}
			continue
		}

		created := cmd&2 != 0
		var ent *Entity
		if created {
			if ent, err = s.create(r, idx); err != nil {
				return err
			}
		} else {
			if hasPvsVisBits {
				vis, err := r.ReadBits(2)
				if err != nil {
					return errors.Wrap(err, "entity visibility bits")
				}
				if vis&1 != 0 {
					continue
				}
			}

			if ent = s.entities.get(idx); ent == nil {
				return errors.Errorf("entity: delta update for vacant index %d", idx)
			}
		}

		if err := s.applyFields(r, ent); err != nil {
			return errors.Wrapf(err, "entity %d (%s)", idx, ent.className)
		}

		for _, l := range s.listeners {
			if created {
				if l.Created != nil {
					l.Created(ent)
				}
			} else if len(s.changed) > 0 && l.Updated != nil {
				l.Updated(ent, s.changed)
			}
		}
	}

	return nil
}

func (s *State) create(r *bitreader.R, idx int32) (*Entity, error) {
	classBits := s.reg.ClassIDBits()
	if classBits == 0 {
		return nil, errors.New("entity: class-id width unknown, no server info seen")
	}

	classID, err := r.ReadBits(classBits)
	if err != nil {
		return nil, errors.Wrap(err, "class id")
	}
	serial, err := r.ReadBits(serialBits)
	if err != nil {
		return nil, errors.Wrap(err, "serial")
	}
	if err := r.SkipVarint(); err != nil {
		return nil, errors.Wrap(err, "creation varint")
	}

	className, ok := s.reg.ClassName(int32(classID))
	if !ok {
		return nil, errors.Errorf("entity: unknown class id %d", classID)
	}
	serializer, err := s.reg.SerializerForClass(int32(classID))
	if err != nil {
		return nil, err
	}

	ent := &Entity{
		index:      idx,
		serial:     uint32(serial),
		classID:    int32(classID),
		className:  className,
		serializer: serializer,
	}

	baseline, err := s.baselineFor(int32(classID), className, serializer)
	if err != nil {
		return nil, errors.Wrapf(err, "baseline for class %s", className)
	}
	if baseline != nil {
		ent.values = copyValues(baseline.values)
		ent.variants = copyVariants(baseline.variants)
	} else {
		ent.values = make(map[fieldpath.Path]interface{})
		ent.variants = make(map[fieldpath.Path]int)
	}

	// Entering an occupied slot is a semantic replace of the previous
	// entity, not an error.
	if old := s.entities.insert(idx, ent); old != nil {
		for _, l := range s.listeners {
			if l.Destroyed != nil {
				l.Destroyed(old)
			}
		}
	}
	return ent, nil
}

func (s *State) leave(idx int32) {
	ent := s.entities.get(idx)
	if ent == nil {
		s.logger.Warnf("No entity at index %d to mark dormant.", idx)
		return
	}
	if ent.dormant {
		return
	}
	ent.dormant = true
	for _, l := range s.listeners {
		if l.Left != nil {
			l.Left(ent)
		}
	}
}

func (s *State) destroy(idx int32) {
	ent := s.entities.remove(idx)
	if ent == nil {
		s.logger.Warnf("No entity at index %d to destroy.", idx)
		return
	}
	for _, l := range s.listeners {
		if l.Destroyed != nil {
			l.Destroyed(ent)
		}
	}
}

// applyFields decodes one update's field-path list and values into ent.
// s.changed holds the subscribed paths that changed, valid until the next
// call.
func (s *State) applyFields(r *bitreader.R, ent *Entity) error {
	s.paths = s.paths[:0]
	s.changed = s.changed[:0]

	if err := fieldpath.Read(r, &s.paths); err != nil {
		return err
	}

	ent.dormant = false

	for _, p := range s.paths {
		sink := pathSink{
			ent:         ent,
			path:        p,
			materialize: s.subscribed(ent.className, p),
		}
		if err := ent.serializer.DecodeField(r, p, &sink); err != nil {
			return err
		}
		if sink.changed {
			s.changed = append(s.changed, p)
		}
	}
	return nil
}

// baselineFor returns the decoded instance baseline for a class, decoding
// and caching it on first use.
func (s *State) baselineFor(classID int32, className string, serializer *sendtable.Serializer) (*cachedBaseline, error) {
	if cached, ok := s.decodedBaselines[classID]; ok {
		return cached, nil
	}

	raw, ok := s.rawBaselines[classID]
	if !ok {
		return nil, nil
	}

	ent := &Entity{
		className:  className,
		serializer: serializer,
		values:     make(map[fieldpath.Path]interface{}),
		variants:   make(map[fieldpath.Path]int),
	}

	r := bitreader.New(raw)
	if err := s.applyFields(r, ent); err != nil {
		return nil, err
	}
	if left := r.BitsRemaining(); left >= 8 {
		s.logger.Warnf("Baseline for class %s left %d bits unconsumed.", className, left)
	}

	cached := &cachedBaseline{values: ent.values, variants: ent.variants}
	s.decodedBaselines[classID] = cached
	return cached, nil
}
