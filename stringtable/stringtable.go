// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package stringtable maintains the demo's named key/value tables.
//
// String tables arrive as a creation command carrying the table's decode
// parameters plus its initial entries, then incremental updates addressed
// by table id. A full-dump command may also appear, overwriting entries
// wholesale. Entries map a string key to an optional byte value and are
// versioned by the tick that last touched them.
//
// The tables resolve identifiers for other decode stages; most notably,
// the "instancebaseline" table keys raw entity baselines by class id.
package stringtable

import (
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/demo/demopb"
	"github.com/hax0r31337/demoinfocs2-lite/support/bitreader"
	"github.com/hax0r31337/demoinfocs2-lite/support/logging"
)

// InstanceBaseline is the table feeding entity baselines.
const InstanceBaseline = "instancebaseline"

// ErrUnknownTableKey is surfaced when an update addresses an entry by index
// and no key is known at that index. The entry is dropped and the table
// keeps its prior state; the parse continues.
var ErrUnknownTableKey = errors.New("stringtable: update entry has no resolvable key")

// keyHistorySize is the sliding window of recent keys an update's
// prefix-reuse coding can reference.
const keyHistorySize = 32

// Entry is one key/value pair of a table.
type Entry struct {
	Key   string
	Index int32
	// Value is the entry's raw payload; nil when the entry carries none.
	Value []byte
	// Tick is the demo tick that last wrote the entry.
	Tick int32
	// Revision counts writes to the entry: a keyed write is a full replace
	// and resets it to 1, a keyless delta increments it.
	Revision int32
}

// Table is one named string table.
type Table struct {
	name string
	id   int32

	fixedUserDataSize bool
	userDataSizeBits  uint
	flags             int32
	varintBitCounts   bool

	byKey   map[string]*Entry
	byIndex map[int32]string
}

// Name returns the table's name.
func (t *Table) Name() string { return t.name }

// ID returns the table's creation-order id.
func (t *Table) ID() int32 { return t.id }

// Entry returns the entry stored under key.
func (t *Table) Entry(key string) (*Entry, bool) {
	e, ok := t.byKey[key]
	return e, ok
}

// KeyAt resolves an entry index to its key.
func (t *Table) KeyAt(idx int32) (string, bool) {
	key, ok := t.byIndex[idx]
	return key, ok
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.byKey) }

// Each visits every entry. Order is unspecified.
func (t *Table) Each(fn func(*Entry)) {
	for _, e := range t.byKey {
		fn(e)
	}
}

// Manager owns every string table of one parse session. It is not safe for
// concurrent use.
type Manager struct {
	logger logging.L

	// tables is ordered by creation; updates address tables by position.
	tables []*Table
	byName map[string]*Table

	onEntry []func(table string, e *Entry)

	dropped int64
}

// NewManager builds an empty table set.
func NewManager(logger logging.L) *Manager {
	return &Manager{
		logger: logging.Must(logger),
		byName: make(map[string]*Table),
	}
}

// OnEntry registers a callback invoked for every entry write, after the
// write is applied.
func (m *Manager) OnEntry(fn func(table string, e *Entry)) {
	m.onEntry = append(m.onEntry, fn)
}

// Table returns the named table.
func (m *Manager) Table(name string) (*Table, bool) {
	t, ok := m.byName[name]
	return t, ok
}

// DroppedEntries returns the count of update entries discarded because
// their key could not be resolved.
func (m *Manager) DroppedEntries() int64 { return m.dropped }

// Create registers a new table from its creation command and applies the
// initial entries it carries.
func (m *Manager) Create(msg *demopb.CSVCMsg_CreateStringTable, tick int32) error {
	name := msg.GetName()
	if name == "" {
		return errors.New("stringtable: create command without a table name")
	}
	if _, exists := m.byName[name]; exists {
		return errors.Errorf("stringtable: table %s created twice", name)
	}

	t := &Table{
		name:              name,
		id:                int32(len(m.tables)),
		fixedUserDataSize: msg.GetUserDataFixedSize(),
		userDataSizeBits:  uint(msg.GetUserDataSizeBits()),
		flags:             msg.GetFlags(),
		varintBitCounts:   msg.GetUsingVarintBitcounts(),
		byKey:             make(map[string]*Entry),
		byIndex:           make(map[int32]string),
	}
	m.tables = append(m.tables, t)
	m.byName[name] = t

	data := msg.GetStringData()
	if msg.GetDataCompressed() {
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return errors.Wrapf(err, "stringtable: decompressing table %s", name)
		}
		data = decoded
	}

	return m.apply(t, msg.GetNumEntries(), data, tick)
}

// Update applies an incremental update addressed by table id. Updates for
// ids never created are logged and skipped, matching how unknown embedded
// messages are treated.
func (m *Manager) Update(msg *demopb.CSVCMsg_UpdateStringTable, tick int32) error {
	id := msg.GetTableId()
	if id < 0 || int(id) >= len(m.tables) {
		m.logger.Warnf("Update for unknown string table id %d.", id)
		return nil
	}
	t := m.tables[id]
	return errors.Wrapf(
		m.apply(t, msg.GetNumChangedEntries(), msg.GetStringData(), tick),
		"stringtable: table %s", t.name)
}

// ApplyFullDump overwrites entries from a demo-level string table dump.
// Tables the dump names but the session never created are skipped.
func (m *Manager) ApplyFullDump(msg *demopb.CDemoStringTables, tick int32) error {
	for _, dump := range msg.GetTables() {
		name := dump.GetTableName()
		t, ok := m.byName[name]
		if !ok {
			m.logger.Debugf("Skipping dump for unknown string table %s.", name)
			continue
		}

		for i, item := range dump.GetItems() {
			key := item.GetStr()
			if key == "" {
				m.logger.Warnf("Dump entry %d of table %s has no key.", i, name)
				continue
			}
			m.set(t, key, int32(i), item.Data, tick, true)
		}
	}
	return nil
}

// set writes one entry. replace marks a keyed full write; a keyless delta
// bumps the revision instead of resetting it.
func (m *Manager) set(t *Table, key string, idx int32, value []byte, tick int32, replace bool) {
	e, ok := t.byKey[key]
	if !ok {
		e = &Entry{Key: key}
		t.byKey[key] = e
	}

	e.Index = idx
	e.Value = value
	e.Tick = tick
	if replace {
		e.Revision = 1
	} else {
		e.Revision++
	}
	t.byIndex[idx] = key

	for _, fn := range m.onEntry {
		fn(t.name, e)
	}
}

// apply decodes one update's entry stream into t.
func (m *Manager) apply(t *Table, entries int32, data []byte, tick int32) error {
	if entries == 0 {
		return nil
	}

	r := bitreader.New(data)
	history := make([]string, 0, keyHistorySize)
	idx := int32(0)

	for i := int32(0); i < entries; i++ {
		incr, err := r.ReadBit()
		if err != nil {
			return errors.Wrapf(err, "entry %d index", i)
		}
		if incr {
			idx++
		} else {
			explicit, err := r.ReadVarUint32()
			if err != nil {
				return errors.Wrapf(err, "entry %d index", i)
			}
			idx = int32(explicit) + 1
		}

		key, hasKey, err := readKey(r, history)
		if err != nil {
			return errors.Wrapf(err, "entry %d key", i)
		}
		if hasKey {
			history = append(history, key)
			if len(history) > keyHistorySize {
				history = history[1:]
			}
		}

		value, _, err := t.readValue(r)
		if err != nil {
			return errors.Wrapf(err, "entry %d value", i)
		}

		if !hasKey {
			resolved, ok := t.byIndex[idx]
			if !ok {
				m.dropped++
				m.logger.Warnf("Dropping entry at index %d in table %s: %v.", idx, t.name, ErrUnknownTableKey)
				continue
			}
			key = resolved
		}

		// The wire is authoritative: an entry without a payload clears the
		// stored value.
		m.set(t, key, idx, value, tick, hasKey)
	}

	if left := r.BitsRemaining(); left >= 8 {
		m.logger.Warnf("String table %s update left %d bits unconsumed.", t.name, left)
	}
	return nil
}

// readKey decodes an entry's key: absent, a literal string, or a prefix of
// a recent key plus a literal suffix.
func readKey(r *bitreader.R, history []string) (string, bool, error) {
	hasKey, err := r.ReadBit()
	if err != nil {
		return "", false, err
	}
	if !hasKey {
		return "", false, nil
	}

	useHistory, err := r.ReadBit()
	if err != nil {
		return "", false, err
	}
	if !useHistory {
		key, err := r.ReadString()
		if err != nil {
			return "", false, err
		}
		return key, true, nil
	}

	pos, err := r.ReadBits(5)
	if err != nil {
		return "", false, err
	}
	size, err := r.ReadBits(5)
	if err != nil {
		return "", false, err
	}
	suffix, err := r.ReadString()
	if err != nil {
		return "", false, err
	}

	// A position past the window degrades to a literal key.
	if int(pos) >= len(history) {
		return suffix, true, nil
	}
	base := history[pos]
	if int(size) < len(base) {
		base = base[:size]
	}
	return base + suffix, true, nil
}

// readValue decodes an entry's optional payload per the table's parameters.
func (t *Table) readValue(r *bitreader.R) ([]byte, bool, error) {
	hasValue, err := r.ReadBit()
	if err != nil {
		return nil, false, err
	}
	if !hasValue {
		return nil, false, nil
	}

	if t.fixedUserDataSize {
		bits := t.userDataSizeBits
		buf := make([]byte, (bits+7)/8)
		whole := bits / 8
		if whole > 0 {
			if err := r.ReadBytes(buf[:whole]); err != nil {
				return nil, false, err
			}
		}
		if rem := bits % 8; rem > 0 {
			tail, err := r.ReadBits(rem)
			if err != nil {
				return nil, false, err
			}
			buf[whole] = byte(tail)
		}
		return buf, true, nil
	}

	compressed := false
	if t.flags&1 != 0 {
		if compressed, err = r.ReadBit(); err != nil {
			return nil, false, err
		}
	}

	var size uint64
	if t.varintBitCounts {
		v, err := r.ReadUBitVar()
		if err != nil {
			return nil, false, err
		}
		size = uint64(v)
	} else {
		if size, err = r.ReadBits(17); err != nil {
			return nil, false, err
		}
	}

	buf := make([]byte, size)
	if err := r.ReadBytes(buf); err != nil {
		return nil, false, err
	}
	if compressed {
		decoded, err := snappy.Decode(nil, buf)
		if err != nil {
			return nil, false, errors.Wrap(err, "decompressing entry value")
		}
		buf = decoded
	}
	return buf, true, nil
}
