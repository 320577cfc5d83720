// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package entity

import (
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/demo/demopb"
	"github.com/hax0r31337/demoinfocs2-lite/fieldpath"
	"github.com/hax0r31337/demoinfocs2-lite/sendtable"
	"github.com/hax0r31337/demoinfocs2-lite/support/bitreader"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestEntity(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Entity Tests")
}

var pathCodes = fieldpath.Codebook()

func writeOp(w *bitreader.W, name string) {
	code, ok := pathCodes[name]
	Expect(ok).To(BeTrue(), "unknown path op %s", name)
	for _, c := range code {
		w.WriteBit(c == '1')
	}
}

// testSchema registers:
//
//	CItem       { m_name CUtlString }
//	CBodySimple { m_nLevel int32 }
//	CBodyFull   { m_nLevel int32, m_name CUtlString }
//	CTestEnt    { m_iHealth int32, m_vecAmmo CUtlVector<int32>,
//	              m_item CItem, m_pBody CBodyComponent* (polymorphic),
//	              m_bAlive bool }
func testSchema() *demopb.CSVCMsg_FlattenedSerializer {
	msg := &demopb.CSVCMsg_FlattenedSerializer{}
	symbols := map[string]int32{}
	sym := func(s string) *int32 {
		idx, ok := symbols[s]
		if !ok {
			idx = int32(len(msg.Symbols))
			symbols[s] = idx
			msg.Symbols = append(msg.Symbols, s)
		}
		return proto.Int32(idx)
	}
	field := func(f *demopb.ProtoFlattenedSerializerFieldT) int32 {
		msg.Fields = append(msg.Fields, f)
		return int32(len(msg.Fields) - 1)
	}
	serializer := func(name string, fields ...int32) {
		msg.Serializers = append(msg.Serializers, &demopb.ProtoFlattenedSerializerT{
			SerializerNameSym: sym(name),
			SerializerVersion: proto.Int32(0),
			FieldsIndex:       fields,
		})
	}

	nameField := field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: sym("CUtlString"),
		VarNameSym: sym("m_name"),
	})
	levelField := field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: sym("int32"),
		VarNameSym: sym("m_nLevel"),
	})

	serializer("CItem", nameField)
	serializer("CBodySimple", levelField)
	serializer("CBodyFull", levelField, nameField)

	healthField := field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: sym("int32"),
		VarNameSym: sym("m_iHealth"),
	})
	ammoField := field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: sym("CUtlVector< int32 >"),
		VarNameSym: sym("m_vecAmmo"),
	})
	itemField := field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym:             sym("CItem"),
		VarNameSym:             sym("m_item"),
		FieldSerializerNameSym: sym("CItem"),
	})
	bodyField := field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: sym("CBodyComponent*"),
		VarNameSym: sym("m_pBody"),
		PolymorphicTypes: []*demopb.ProtoFlattenedSerializerFieldPolymorphicT{
			{PolymorphicFieldSerializerNameSym: sym("CBodySimple")},
			{PolymorphicFieldSerializerNameSym: sym("CBodyFull")},
		},
	})
	aliveField := field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: sym("bool"),
		VarNameSym: sym("m_bAlive"),
	})

	serializer("CTestEnt", healthField, ammoField, itemField, bodyField, aliveField)
	return msg
}

func testRegistry() *sendtable.Registry {
	reg := sendtable.NewRegistry()
	Expect(reg.Build(testSchema())).To(Succeed())
	reg.SetMaxClasses(2)
	Expect(reg.ApplyClassInfo(&demopb.CDemoClassInfo{
		Classes: []*demopb.CDemoClassInfoClassT{
			{ClassId: proto.Int32(0), NetworkName: proto.String("CTestEnt")},
		},
	})).To(Succeed())
	return reg
}

// writeCreateHeader appends an enter command for class 0 at an index delta.
func writeCreateHeader(w *bitreader.W, delta uint32, serial uint64) {
	w.WriteUBitVar(delta)
	w.WriteBits(2, 2)
	w.WriteBits(0, 2) // class id, 2 bits for 2 classes
	w.WriteBits(serial, 17)
	w.WriteVarUint64(0)
}

func packet(entries int32, data []byte) *demopb.CSVCMsg_PacketEntities {
	return &demopb.CSVCMsg_PacketEntities{
		UpdatedEntries: proto.Int32(entries),
		EntityData:     data,
	}
}

var _ = Describe("State", func() {
	var (
		reg *sendtable.Registry
		st  *State
	)

	BeforeEach(func() {
		reg = testRegistry()
		st = NewState(reg, nil)
	})

	createWithHealth := func(health int64) {
		var w bitreader.W
		writeCreateHeader(&w, 0, 7)
		writeOp(&w, "PlusOne")
		writeOp(&w, "FieldPathEncodeFinish")
		w.WriteVarInt64(health)
		Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())
	}

	Context("creation", func() {
		It("materializes subscribed fields and notifies", func() {
			st.Subscribe("CTestEnt", "m_iHealth")
			Expect(st.ResolveSubscriptions()).To(Succeed())

			var created []*Entity
			st.AddListener(Listener{Created: func(e *Entity) { created = append(created, e) }})

			createWithHealth(100)

			Expect(created).To(HaveLen(1))
			e, ok := st.Find(0)
			Expect(ok).To(BeTrue())
			Expect(e.ClassName()).To(Equal("CTestEnt"))
			Expect(e.Serial()).To(Equal(uint32(7)))
			v, ok := e.Value(fieldpath.Make(0))
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(int64(100)))
		})

		It("decodes unsubscribed fields without retaining them", func() {
			st.Subscribe("CTestEnt", "m_bAlive")
			Expect(st.ResolveSubscriptions()).To(Succeed())

			// Health precedes the subscribed flag on the wire. Its varint
			// must be consumed for the flag bit to land correctly.
			var w bitreader.W
			writeCreateHeader(&w, 0, 1)
			writeOp(&w, "PlusOne")
			writeOp(&w, "PlusFour")
			writeOp(&w, "FieldPathEncodeFinish")
			w.WriteVarInt64(7777)
			w.WriteBit(true)
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())

			e, _ := st.Find(0)
			_, ok := e.Value(fieldpath.Make(0))
			Expect(ok).To(BeFalse())
			v, ok := e.Value(fieldpath.Make(4))
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(true))
		})

		It("rejects creation before server info fixes the class width", func() {
			bare := NewState(sendtable.NewRegistry(), nil)
			var w bitreader.W
			writeCreateHeader(&w, 0, 1)
			err := bare.ApplyPacket(packet(1, w.Bytes()))
			Expect(err).To(HaveOccurred())
		})
	})

	Context("delta updates", func() {
		BeforeEach(func() {
			st.Subscribe("CTestEnt", "m_iHealth")
			Expect(st.ResolveSubscriptions()).To(Succeed())
			createWithHealth(100)
		})

		It("applies changes and reports changed paths", func() {
			var gotChanged []fieldpath.Path
			st.AddListener(Listener{Updated: func(e *Entity, changed []fieldpath.Path) {
				gotChanged = append([]fieldpath.Path(nil), changed...)
			}})

			var w bitreader.W
			w.WriteUBitVar(0)
			w.WriteBits(0, 2)
			writeOp(&w, "PlusOne")
			writeOp(&w, "FieldPathEncodeFinish")
			w.WriteVarInt64(55)
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())

			e, _ := st.Find(0)
			v, _ := e.Value(fieldpath.Make(0))
			Expect(v).To(Equal(int64(55)))
			Expect(gotChanged).To(Equal([]fieldpath.Path{fieldpath.Make(0)}))
		})

		It("does not notify when only unsubscribed paths changed", func() {
			updates := 0
			st.AddListener(Listener{Updated: func(*Entity, []fieldpath.Path) { updates++ }})

			var w bitreader.W
			w.WriteUBitVar(0)
			w.WriteBits(0, 2)
			writeOp(&w, "PlusFour")
			writeOp(&w, "FieldPathEncodeFinish")
			w.WriteBit(false) // m_bAlive
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())
			Expect(updates).To(BeZero())
		})

		It("fails on a delta for a vacant index", func() {
			var w bitreader.W
			w.WriteUBitVar(4) // index 5
			w.WriteBits(0, 2)
			err := st.ApplyPacket(packet(1, w.Bytes()))
			Expect(err).To(HaveOccurred())
		})

		It("skips entities culled by visibility bits", func() {
			var w bitreader.W
			w.WriteUBitVar(0)
			w.WriteBits(0, 2)
			w.WriteBits(1, 2)
			msg := packet(1, w.Bytes())
			msg.HasPvsVisBits = proto.Int32(1)
			Expect(st.ApplyPacket(msg)).To(Succeed())

			e, _ := st.Find(0)
			v, _ := e.Value(fieldpath.Make(0))
			Expect(v).To(Equal(int64(100)))
		})
	})

	Context("leave and delete", func() {
		BeforeEach(func() {
			st.Subscribe("CTestEnt", "m_iHealth")
			Expect(st.ResolveSubscriptions()).To(Succeed())
			createWithHealth(100)
		})

		It("marks leavers dormant but keeps their state", func() {
			left := 0
			st.AddListener(Listener{Left: func(*Entity) { left++ }})

			var w bitreader.W
			w.WriteUBitVar(0)
			w.WriteBits(1, 2)
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())
			Expect(left).To(Equal(1))

			e, ok := st.Find(0)
			Expect(ok).To(BeTrue())
			Expect(e.Dormant()).To(BeTrue())
			v, ok := e.Value(fieldpath.Make(0))
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(int64(100)))

			visited := 0
			st.Each(func(*Entity) { visited++ })
			Expect(visited).To(BeZero())
		})

		It("wakes a dormant entity on its next delta", func() {
			var w bitreader.W
			w.WriteUBitVar(0)
			w.WriteBits(1, 2)
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())

			var w2 bitreader.W
			w2.WriteUBitVar(0)
			w2.WriteBits(0, 2)
			writeOp(&w2, "PlusOne")
			writeOp(&w2, "FieldPathEncodeFinish")
			w2.WriteVarInt64(1)
			Expect(st.ApplyPacket(packet(1, w2.Bytes()))).To(Succeed())

			e, _ := st.Find(0)
			Expect(e.Dormant()).To(BeFalse())
		})

		It("frees the slot on delete", func() {
			destroyed := 0
			st.AddListener(Listener{Destroyed: func(*Entity) { destroyed++ }})

			var w bitreader.W
			w.WriteUBitVar(0)
			w.WriteBits(3, 2)
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())
			Expect(destroyed).To(Equal(1))

			_, ok := st.Find(0)
			Expect(ok).To(BeFalse())
		})

		It("tolerates lifecycle commands for vacant slots", func() {
			var w bitreader.W
			w.WriteUBitVar(9) // index 10, never created
			w.WriteBits(3, 2)
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())
		})
	})

	Context("slot reuse", func() {
		It("does not leak state from a replaced entity", func() {
			st.Subscribe("CTestEnt", "m_iHealth")
			Expect(st.ResolveSubscriptions()).To(Succeed())
			createWithHealth(100)

			destroyed := 0
			st.AddListener(Listener{Destroyed: func(*Entity) { destroyed++ }})

			// A fresh enter in an occupied slot, carrying no fields.
			var w bitreader.W
			writeCreateHeader(&w, 0, 8)
			writeOp(&w, "FieldPathEncodeFinish")
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())
			Expect(destroyed).To(Equal(1))

			e, _ := st.Find(0)
			Expect(e.Serial()).To(Equal(uint32(8)))
			_, ok := e.Value(fieldpath.Make(0))
			Expect(ok).To(BeFalse())
		})
	})

	Context("baselines", func() {
		baselineRaw := func(health int64) []byte {
			var w bitreader.W
			writeOp(&w, "PlusOne")
			writeOp(&w, "FieldPathEncodeFinish")
			w.WriteVarInt64(health)
			return w.Bytes()
		}

		It("seeds new entities from the class baseline", func() {
			st.Subscribe("CTestEnt", "m_iHealth")
			Expect(st.ResolveSubscriptions()).To(Succeed())
			st.SetBaseline(0, baselineRaw(42))

			var w bitreader.W
			writeCreateHeader(&w, 0, 1)
			writeOp(&w, "FieldPathEncodeFinish")
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())

			e, _ := st.Find(0)
			v, ok := e.Value(fieldpath.Make(0))
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(int64(42)))
		})

		It("isolates entities from the shared baseline", func() {
			st.Subscribe("CTestEnt", "m_iHealth")
			Expect(st.ResolveSubscriptions()).To(Succeed())
			st.SetBaseline(0, baselineRaw(42))

			var w bitreader.W
			writeCreateHeader(&w, 0, 1)
			writeOp(&w, "PlusOne")
			writeOp(&w, "FieldPathEncodeFinish")
			w.WriteVarInt64(1)          // overrides the seeded value
			writeCreateHeader(&w, 1, 2) // index 2, fields untouched
			writeOp(&w, "FieldPathEncodeFinish")
			Expect(st.ApplyPacket(packet(2, w.Bytes()))).To(Succeed())

			first, _ := st.Find(0)
			second, _ := st.Find(2)
			v, _ := first.Value(fieldpath.Make(0))
			Expect(v).To(Equal(int64(1)))
			v, _ = second.Value(fieldpath.Make(0))
			Expect(v).To(Equal(int64(42)))
		})
	})

	Context("polymorphic fields", func() {
		bodyUpdate := func() []byte {
			var w bitreader.W
			w.WriteUBitVar(0)
			w.WriteBits(0, 2)
			writeOp(&w, "PlusFour")                      // m_pBody selector
			writeOp(&w, "PushOneLeftDeltaZeroRightZero") // m_pBody.m_nLevel
			writeOp(&w, "FieldPathEncodeFinish")
			w.WriteBit(true)   // present
			w.WriteUBitVar(1)  // pin CBodyFull
			w.WriteVarInt64(5) // m_nLevel through the pinned variant
			return w.Bytes()
		}

		BeforeEach(func() {
			st.Subscribe("CTestEnt", "m_pBody")
			Expect(st.ResolveSubscriptions()).To(Succeed())

			var w bitreader.W
			writeCreateHeader(&w, 0, 1)
			writeOp(&w, "FieldPathEncodeFinish")
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())
		})

		It("fails hard when the field was never bound", func() {
			err := st.ApplyPacket(packet(1, bodyUpdate()))
			Expect(err).To(HaveOccurred())
			Expect(errors.Cause(err)).To(Equal(sendtable.ErrUnregisteredPolymorphicField))
		})

		It("decodes through the pinned variant once bound", func() {
			Expect(reg.BindPolymorphic("CTestEnt", "m_pBody")).To(Succeed())
			Expect(st.ApplyPacket(packet(1, bodyUpdate()))).To(Succeed())

			e, _ := st.Find(0)
			v, ok := e.Value(fieldpath.Make(3, 0))
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(int64(5)))
		})
	})

	Context("subscriptions", func() {
		It("rejects a subscription to an unknown class", func() {
			st.Subscribe("CMissing", "m_iHealth")
			Expect(st.ResolveSubscriptions()).To(HaveOccurred())
		})

		It("rejects a subscription to an unknown field", func() {
			st.Subscribe("CTestEnt", "m_bogus")
			Expect(st.ResolveSubscriptions()).To(HaveOccurred())
		})

		It("covers nested paths under the subscribed prefix", func() {
			st.Subscribe("CTestEnt", "m_item")
			Expect(st.ResolveSubscriptions()).To(Succeed())

			var w bitreader.W
			writeCreateHeader(&w, 0, 1)
			// One op lands directly on m_item.m_name: the bare m_item path
			// addresses a serializer, not a value.
			writeOp(&w, "PushOneLeftDeltaNRightZero")
			w.WriteUBitVarFP(3)
			writeOp(&w, "FieldPathEncodeFinish")
			w.WriteString("knife")
			Expect(st.ApplyPacket(packet(1, w.Bytes()))).To(Succeed())

			e, _ := st.Find(0)
			v, ok := e.Value(fieldpath.Make(2, 0))
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal("knife"))
		})
	})
})
