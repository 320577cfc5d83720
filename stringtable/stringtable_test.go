// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package stringtable

import (
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"

	"github.com/hax0r31337/demoinfocs2-lite/demo/demopb"
	"github.com/hax0r31337/demoinfocs2-lite/support/bitreader"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestStringTable(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "StringTable Tests")
}

// entrySpec describes one wire entry for stream synthesis.
type entrySpec struct {
	// incr advances the running index by one; otherwise explicitIndex is
	// written as idx-1 in varint form.
	incr          bool
	explicitIndex int32

	hasKey      bool
	key         string
	historyPos  int32
	historySize int32
	useHistory  bool

	hasValue bool
	value    []byte
	// compress snappy-encodes the value and sets the per-value bit. Only
	// meaningful for tables with the compressed-values flag.
	compress bool
}

// streamFor synthesizes an update stream against a table's parameters.
func streamFor(fixedBits uint, flags int32, varintCounts bool, specs []entrySpec) []byte {
	var w bitreader.W
	for _, e := range specs {
		if e.incr {
			w.WriteBit(true)
		} else {
			w.WriteBit(false)
			w.WriteVarUint64(uint64(e.explicitIndex - 1))
		}

		w.WriteBit(e.hasKey)
		if e.hasKey {
			w.WriteBit(e.useHistory)
			if e.useHistory {
				w.WriteBits(uint64(e.historyPos), 5)
				w.WriteBits(uint64(e.historySize), 5)
			}
			w.WriteString(e.key)
		}

		w.WriteBit(e.hasValue)
		if e.hasValue {
			value := e.value
			if fixedBits > 0 {
				w.WriteBits(uint64(value[0]), fixedBits)
				continue
			}
			if e.compress {
				value = snappy.Encode(nil, value)
			}
			if flags&1 != 0 {
				w.WriteBit(e.compress)
			}
			if varintCounts {
				w.WriteUBitVar(uint32(len(value)))
			} else {
				w.WriteBits(uint64(len(value)), 17)
			}
			w.WriteBytes(value)
		}
	}
	return w.Bytes()
}

func createMsg(name string, entries int32, data []byte) *demopb.CSVCMsg_CreateStringTable {
	return &demopb.CSVCMsg_CreateStringTable{
		Name:                 proto.String(name),
		NumEntries:           proto.Int32(entries),
		UserDataFixedSize:    proto.Bool(false),
		UserDataSizeBits:     proto.Int32(0),
		Flags:                proto.Int32(0),
		StringData:           data,
		DataCompressed:       proto.Bool(false),
		UsingVarintBitcounts: proto.Bool(false),
	}
}

func updateMsg(id, entries int32, data []byte) *demopb.CSVCMsg_UpdateStringTable {
	return &demopb.CSVCMsg_UpdateStringTable{
		TableId:           proto.Int32(id),
		NumChangedEntries: proto.Int32(entries),
		StringData:        data,
	}
}

var _ = Describe("Manager", func() {
	var m *Manager

	BeforeEach(func() {
		m = NewManager(nil)
	})

	Context("creation", func() {
		It("decodes literal keys and values", func() {
			data := streamFor(0, 0, false, []entrySpec{
				{incr: true, hasKey: true, key: "alpha", hasValue: true, value: []byte{1, 2}},
				{incr: true, hasKey: true, key: "beta"},
			})
			Expect(m.Create(createMsg("t", 2, data), 10)).To(Succeed())

			t, ok := m.Table("t")
			Expect(ok).To(BeTrue())
			Expect(t.Len()).To(Equal(2))

			e, ok := t.Entry("alpha")
			Expect(ok).To(BeTrue())
			Expect(e.Index).To(Equal(int32(1)))
			Expect(e.Value).To(Equal([]byte{1, 2}))
			Expect(e.Tick).To(Equal(int32(10)))

			e, ok = t.Entry("beta")
			Expect(ok).To(BeTrue())
			Expect(e.Index).To(Equal(int32(2)))
			Expect(e.Value).To(BeNil())

			key, ok := t.KeyAt(2)
			Expect(ok).To(BeTrue())
			Expect(key).To(Equal("beta"))
		})

		It("assembles keys from the history window", func() {
			data := streamFor(0, 0, false, []entrySpec{
				{incr: true, hasKey: true, key: "models/weapons/ak47"},
				{incr: true, hasKey: true, useHistory: true, historyPos: 0, historySize: 15, key: "m4a1"},
			})
			Expect(m.Create(createMsg("t", 2, data), 0)).To(Succeed())

			t, _ := m.Table("t")
			_, ok := t.Entry("models/weapons/m4a1")
			Expect(ok).To(BeTrue())
		})

		It("treats an out-of-window history reference as a literal", func() {
			data := streamFor(0, 0, false, []entrySpec{
				{incr: true, hasKey: true, useHistory: true, historyPos: 9, historySize: 3, key: "solo"},
			})
			Expect(m.Create(createMsg("t", 1, data), 0)).To(Succeed())

			t, _ := m.Table("t")
			_, ok := t.Entry("solo")
			Expect(ok).To(BeTrue())
		})

		It("decompresses a snappy table payload", func() {
			data := streamFor(0, 0, false, []entrySpec{
				{incr: true, hasKey: true, key: "alpha", hasValue: true, value: []byte{9}},
			})
			msg := createMsg("t", 1, snappy.Encode(nil, data))
			msg.DataCompressed = proto.Bool(true)
			Expect(m.Create(msg, 0)).To(Succeed())

			t, _ := m.Table("t")
			e, ok := t.Entry("alpha")
			Expect(ok).To(BeTrue())
			Expect(e.Value).To(Equal([]byte{9}))
		})

		It("rejects creating the same table twice", func() {
			Expect(m.Create(createMsg("t", 0, nil), 0)).To(Succeed())
			Expect(m.Create(createMsg("t", 0, nil), 0)).To(HaveOccurred())
		})
	})

	Context("value encodings", func() {
		It("reads fixed-width values", func() {
			data := streamFor(4, 0, false, []entrySpec{
				{incr: true, hasKey: true, key: "nibble", hasValue: true, value: []byte{0xB}},
			})
			msg := createMsg("t", 1, data)
			msg.UserDataFixedSize = proto.Bool(true)
			msg.UserDataSizeBits = proto.Int32(4)
			Expect(m.Create(msg, 0)).To(Succeed())

			t, _ := m.Table("t")
			e, _ := t.Entry("nibble")
			Expect(e.Value).To(Equal([]byte{0xB}))
		})

		It("reads varint-counted values", func() {
			data := streamFor(0, 0, true, []entrySpec{
				{incr: true, hasKey: true, key: "k", hasValue: true, value: []byte("payload")},
			})
			msg := createMsg("t", 1, data)
			msg.UsingVarintBitcounts = proto.Bool(true)
			Expect(m.Create(msg, 0)).To(Succeed())

			t, _ := m.Table("t")
			e, _ := t.Entry("k")
			Expect(e.Value).To(Equal([]byte("payload")))
		})

		It("decompresses per-value snappy when flagged", func() {
			long := []byte("instance baseline payload, long enough to be worth packing")
			data := streamFor(0, 1, false, []entrySpec{
				{incr: true, hasKey: true, key: "k", hasValue: true, value: long, compress: true},
			})
			msg := createMsg("t", 1, data)
			msg.Flags = proto.Int32(1)
			Expect(m.Create(msg, 0)).To(Succeed())

			t, _ := m.Table("t")
			e, _ := t.Entry("k")
			Expect(e.Value).To(Equal(long))
		})
	})

	Context("updates", func() {
		BeforeEach(func() {
			data := streamFor(0, 0, false, []entrySpec{
				{incr: true, hasKey: true, key: "alpha", hasValue: true, value: []byte{1}},
			})
			Expect(m.Create(createMsg("t", 1, data), 5)).To(Succeed())
		})

		It("resolves keyless entries through the index", func() {
			data := streamFor(0, 0, false, []entrySpec{
				{explicitIndex: 1, hasValue: true, value: []byte{2}},
			})
			Expect(m.Update(updateMsg(0, 1, data), 6)).To(Succeed())

			t, _ := m.Table("t")
			e, _ := t.Entry("alpha")
			Expect(e.Value).To(Equal([]byte{2}))
			Expect(e.Tick).To(Equal(int32(6)))
		})

		It("drops entries whose key cannot be resolved, keeping prior state", func() {
			data := streamFor(0, 0, false, []entrySpec{
				{explicitIndex: 40, hasValue: true, value: []byte{7}},
			})
			Expect(m.Update(updateMsg(0, 1, data), 6)).To(Succeed())
			Expect(m.DroppedEntries()).To(Equal(int64(1)))

			t, _ := m.Table("t")
			Expect(t.Len()).To(Equal(1))
			e, _ := t.Entry("alpha")
			Expect(e.Value).To(Equal([]byte{1}))
		})

		It("clears the stored value when a delta carries none", func() {
			data := streamFor(0, 0, false, []entrySpec{
				{explicitIndex: 1},
			})
			Expect(m.Update(updateMsg(0, 1, data), 6)).To(Succeed())

			t, _ := m.Table("t")
			e, _ := t.Entry("alpha")
			Expect(e.Value).To(BeNil())
			Expect(e.Tick).To(Equal(int32(6)))
			Expect(e.Revision).To(Equal(int32(2)))
		})

		It("tolerates updates for table ids never created", func() {
			Expect(m.Update(updateMsg(5, 1, nil), 0)).To(Succeed())
		})

		It("notifies entry listeners", func() {
			var got []string
			m.OnEntry(func(table string, e *Entry) {
				got = append(got, table+"/"+e.Key)
			})

			data := streamFor(0, 0, false, []entrySpec{
				{explicitIndex: 1, hasValue: true, value: []byte{2}},
			})
			Expect(m.Update(updateMsg(0, 1, data), 6)).To(Succeed())
			Expect(got).To(Equal([]string{"t/alpha"}))
		})
	})

	Context("replay asymmetry", func() {
		BeforeEach(func() {
			data := streamFor(0, 0, false, []entrySpec{
				{incr: true, hasKey: true, key: "alpha", hasValue: true, value: []byte{1}},
			})
			Expect(m.Create(createMsg("t", 1, data), 5)).To(Succeed())
		})

		It("keyed replaces are idempotent", func() {
			data := streamFor(0, 0, false, []entrySpec{
				{explicitIndex: 1, hasKey: true, key: "alpha", hasValue: true, value: []byte{3}},
			})
			Expect(m.Update(updateMsg(0, 1, data), 6)).To(Succeed())
			t, _ := m.Table("t")
			e, _ := t.Entry("alpha")
			first := *e

			Expect(m.Update(updateMsg(0, 1, data), 6)).To(Succeed())
			e, _ = t.Entry("alpha")
			Expect(*e).To(Equal(first))
			Expect(e.Revision).To(Equal(int32(1)))
		})

		It("keyless deltas are not", func() {
			data := streamFor(0, 0, false, []entrySpec{
				{explicitIndex: 1, hasValue: true, value: []byte{3}},
			})
			Expect(m.Update(updateMsg(0, 1, data), 6)).To(Succeed())
			t, _ := m.Table("t")
			e, _ := t.Entry("alpha")
			Expect(e.Revision).To(Equal(int32(2)))

			Expect(m.Update(updateMsg(0, 1, data), 6)).To(Succeed())
			e, _ = t.Entry("alpha")
			Expect(e.Revision).To(Equal(int32(3)))
		})
	})

	Context("full dumps", func() {
		It("overwrites entries for known tables and skips unknown ones", func() {
			data := streamFor(0, 0, false, []entrySpec{
				{incr: true, hasKey: true, key: "alpha", hasValue: true, value: []byte{1}},
			})
			Expect(m.Create(createMsg("t", 1, data), 5)).To(Succeed())

			dump := &demopb.CDemoStringTables{
				Tables: []*demopb.CDemoStringTablesTableT{
					{
						TableName: proto.String("t"),
						Items: []*demopb.CDemoStringTablesItemsT{
							{Str: proto.String("alpha"), Data: []byte{9, 9}},
							{Str: proto.String("gamma")},
						},
					},
					{TableName: proto.String("never_created")},
				},
			}
			Expect(m.ApplyFullDump(dump, 30)).To(Succeed())

			t, _ := m.Table("t")
			Expect(t.Len()).To(Equal(2))
			e, _ := t.Entry("alpha")
			Expect(e.Value).To(Equal([]byte{9, 9}))
			Expect(e.Tick).To(Equal(int32(30)))
			Expect(e.Revision).To(Equal(int32(1)))
			_, ok := t.Entry("gamma")
			Expect(ok).To(BeTrue())

			_, ok = m.Table("never_created")
			Expect(ok).To(BeFalse())
		})
	})
})
