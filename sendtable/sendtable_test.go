// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package sendtable

import (
	"math"
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/demo/demopb"
	"github.com/hax0r31337/demoinfocs2-lite/fieldpath"
	"github.com/hax0r31337/demoinfocs2-lite/support/bitreader"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestSendTable(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SendTable Tests")
}

// recordingSink captures everything the decode walk reports.
type recordingSink struct {
	materialize bool

	values    []interface{}
	resizes   []int
	presences []bool
	pins      []int
	variants  map[int]int
}

func newRecordingSink(materialize bool) *recordingSink {
	return &recordingSink{materialize: materialize, variants: map[int]int{}}
}

func (s *recordingSink) Materialize() bool        { return s.materialize }
func (s *recordingSink) SetValue(v interface{})   { s.values = append(s.values, v) }
func (s *recordingSink) Resize(n int)             { s.resizes = append(s.resizes, n) }
func (s *recordingSink) SetPresence(present bool) { s.presences = append(s.presences, present) }
func (s *recordingSink) PinVariant(idx int)       { s.pins = append(s.pins, idx) }

func (s *recordingSink) VariantAt(prefixLen int) (int, bool) {
	v, ok := s.variants[prefixLen]
	return v, ok
}

// schemaBuilder assembles a flattened serializer message for tests.
type schemaBuilder struct {
	msg     demopb.CSVCMsg_FlattenedSerializer
	symbols map[string]int32
}

func newSchemaBuilder() *schemaBuilder {
	return &schemaBuilder{symbols: map[string]int32{}}
}

func (b *schemaBuilder) sym(s string) *int32 {
	idx, ok := b.symbols[s]
	if !ok {
		idx = int32(len(b.msg.Symbols))
		b.symbols[s] = idx
		b.msg.Symbols = append(b.msg.Symbols, s)
	}
	return proto.Int32(idx)
}

func (b *schemaBuilder) field(f *demopb.ProtoFlattenedSerializerFieldT) int32 {
	b.msg.Fields = append(b.msg.Fields, f)
	return int32(len(b.msg.Fields) - 1)
}

func (b *schemaBuilder) serializer(name string, version int32, fields ...int32) {
	b.msg.Serializers = append(b.msg.Serializers, &demopb.ProtoFlattenedSerializerT{
		SerializerNameSym: b.sym(name),
		SerializerVersion: proto.Int32(version),
		FieldsIndex:       fields,
	})
}

// buildTestSchema registers:
//
//	CItem       { m_name CUtlString }
//	CBodySimple { m_nLevel int32 }
//	CBodyFull   { m_nLevel int32, m_name CUtlString }
//	CTestEnt    { m_iHealth int32, m_vecAmmo CUtlVector<int32>,
//	              m_item CItem, m_pBody CBodyComponent* (polymorphic),
//	              m_bAlive bool }
func buildTestSchema() *schemaBuilder {
	b := newSchemaBuilder()

	nameField := b.field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: b.sym("CUtlString"),
		VarNameSym: b.sym("m_name"),
	})
	levelField := b.field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: b.sym("int32"),
		VarNameSym: b.sym("m_nLevel"),
	})

	b.serializer("CItem", 0, nameField)
	b.serializer("CBodySimple", 0, levelField)
	b.serializer("CBodyFull", 0, levelField, nameField)

	healthField := b.field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: b.sym("int32"),
		VarNameSym: b.sym("m_iHealth"),
	})
	ammoField := b.field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: b.sym("CUtlVector< int32 >"),
		VarNameSym: b.sym("m_vecAmmo"),
	})
	itemField := b.field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym:             b.sym("CItem"),
		VarNameSym:             b.sym("m_item"),
		FieldSerializerNameSym: b.sym("CItem"),
	})
	bodyField := b.field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: b.sym("CBodyComponent*"),
		VarNameSym: b.sym("m_pBody"),
		PolymorphicTypes: []*demopb.ProtoFlattenedSerializerFieldPolymorphicT{
			{PolymorphicFieldSerializerNameSym: b.sym("CBodySimple")},
			{PolymorphicFieldSerializerNameSym: b.sym("CBodyFull")},
		},
	})
	aliveField := b.field(&demopb.ProtoFlattenedSerializerFieldT{
		VarTypeSym: b.sym("bool"),
		VarNameSym: b.sym("m_bAlive"),
	})

	b.serializer("CTestEnt", 0, healthField, ammoField, itemField, bodyField, aliveField)
	return b
}

func buildTestRegistry() *Registry {
	reg := NewRegistry()
	ExpectWithOffset(1, reg.Build(&buildTestSchema().msg)).To(Succeed())
	return reg
}

var _ = Describe("ParseFieldType", func() {
	It("parses a plain type", func() {
		ft, err := ParseFieldType("int32")
		Expect(err).ToNot(HaveOccurred())
		Expect(ft.Base).To(Equal("int32"))
		Expect(ft.Generic).To(BeNil())
		Expect(ft.Pointer).To(BeFalse())
		Expect(ft.ArraySize).To(BeZero())
	})

	It("parses a generic container", func() {
		ft, err := ParseFieldType("CNetworkUtlVectorBase< CHandle< CBaseEntity > >")
		Expect(err).ToNot(HaveOccurred())
		Expect(ft.Base).To(Equal("CNetworkUtlVectorBase"))
		Expect(ft.Generic).ToNot(BeNil())
		Expect(ft.Generic.Base).To(Equal("CHandle"))
		Expect(ft.isVector()).To(BeTrue())
		Expect(ft.elementType().Base).To(Equal("CHandle"))
	})

	It("parses pointer and array markers", func() {
		ft, err := ParseFieldType("CBodyComponent*")
		Expect(err).ToNot(HaveOccurred())
		Expect(ft.Pointer).To(BeTrue())

		ft, err = ParseFieldType("char[128]")
		Expect(err).ToNot(HaveOccurred())
		Expect(ft.Base).To(Equal("char"))
		Expect(ft.ArraySize).To(Equal(128))
	})

	It("resolves aliases before parsing", func() {
		ft, err := ParseFieldType("GameTime_t")
		Expect(err).ToNot(HaveOccurred())
		Expect(ft.Base).To(Equal("float32"))
	})
})

var _ = Describe("value decoders", func() {
	// decodeAndSkip runs Decode and Skip over the same bytes and verifies
	// both consume the same bits.
	decodeAndSkip := func(d ValueDecoder, buf []byte) interface{} {
		read := bitreader.New(buf)
		v, err := d.Decode(read)
		ExpectWithOffset(1, err).ToNot(HaveOccurred())

		skip := bitreader.New(buf)
		ExpectWithOffset(1, d.Skip(skip)).To(Succeed())
		ExpectWithOffset(1, skip.Pos()).To(Equal(read.Pos()))

		return v
	}

	It("decodes varint integers", func() {
		var w bitreader.W
		w.WriteVarUint64(300)
		Expect(decodeAndSkip(varUint64Decoder{}, w.Bytes())).To(Equal(uint64(300)))

		w = bitreader.W{}
		w.WriteVarInt64(-77)
		Expect(decodeAndSkip(varInt64Decoder{}, w.Bytes())).To(Equal(int64(-77)))
	})

	It("decodes fixed64 little-endian", func() {
		buf := []byte{0xef, 0xcd, 0xab, 0x89, 0x67, 0x45, 0x23, 0x01}
		Expect(decodeAndSkip(fixed64Decoder{}, buf)).To(Equal(uint64(0x0123456789abcdef)))
	})

	It("decodes the varint-encoded timing floats", func() {
		var w bitreader.W
		w.WriteVarUint64(1200)
		Expect(decodeAndSkip(simTimeDecoder{}, w.Bytes())).To(Equal(float32(1200)))
	})

	It("decodes coord floats", func() {
		var w bitreader.W
		w.WriteBit(true)   // integer part present
		w.WriteBit(true)   // fraction present
		w.WriteBit(true)   // negative
		w.WriteBits(4, 14) // integer 4+1
		w.WriteBits(16, 5) // fraction 16/32

		Expect(decodeAndSkip(coordFloatDecoder{}, w.Bytes())).To(Equal(float32(-5.5)))
	})

	It("decodes a zero coord from the two flag bits alone", func() {
		var w bitreader.W
		w.WriteBit(false)
		w.WriteBit(false)
		w.WriteByte(0xff) // unrelated trailing data

		r := bitreader.New(w.Bytes())
		v, err := coordFloatDecoder{}.Decode(r)
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(float32(0)))
		Expect(r.Pos()).To(BeEquivalentTo(2))
	})

	It("decodes normalized vectors with reconstructed Z", func() {
		var w bitreader.W
		w.WriteBit(true)  // X present
		w.WriteBit(false) // Y absent
		w.WriteBit(false) // X sign
		w.WriteBits(2047, 11)
		w.WriteBit(false) // Z sign

		v := decodeAndSkip(normalVector3Decoder{}, w.Bytes())
		vec, ok := v.(Vector3)
		Expect(ok).To(BeTrue())
		Expect(vec.X).To(BeNumerically("~", 1.0, 1e-6))
		Expect(vec.Y).To(BeZero())
		Expect(vec.Z).To(BeNumerically("~", 0.0, 1e-3))
	})

	It("decodes precise QAngles", func() {
		var w bitreader.W
		w.WriteBit(true)  // pitch present
		w.WriteBit(false) // yaw absent
		w.WriteBit(false) // roll absent
		w.WriteBits(1<<19, 20)

		v := decodeAndSkip(qanglePreciseDecoder{}, w.Bytes())
		angle, ok := v.(QAngle)
		Expect(ok).To(BeTrue())
		Expect(angle.Pitch).To(BeNumerically("~", 0.0, 1e-3))
		Expect(angle.Yaw).To(BeZero())
	})

	It("assembles multi-component floats in component order", func() {
		var w bitreader.W
		for _, f := range []float32{1, 2, 3} {
			w.WriteBits(uint64(math.Float32bits(f)), 32)
		}

		d := multiFloatDecoder{inner: noScaleFloatDecoder{}, components: 3}
		Expect(decodeAndSkip(d, w.Bytes())).To(Equal(Vector3{1, 2, 3}))
	})
})

var _ = Describe("quantizedFloatDecoder", func() {
	It("dequantizes over the declared range", func() {
		d, err := newQuantizedFloatDecoder(10, 0, 0, 1023)
		Expect(err).ToNot(HaveOccurred())

		var w bitreader.W
		w.WriteBits(512, 10)

		r := bitreader.New(w.Bytes())
		v, err := d.Decode(r)
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(BeNumerically("~", 512.0, 1.0))
	})

	It("drops the round-down code once the low bound quantizes exactly", func() {
		d, err := newQuantizedFloatDecoder(8, qffRoundDown, 1, 100)
		Expect(err).ToNot(HaveOccurred())
		Expect(d.roundDown).To(BeFalse())
	})

	It("keeps the zero code when zero cannot be represented exactly", func() {
		d, err := newQuantizedFloatDecoder(12, qffEncodeZero, -10, 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(d.encodeZero).To(BeTrue())

		var w bitreader.W
		w.WriteBit(true)

		r := bitreader.New(w.Bytes())
		v, err := d.Decode(r)
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(float32(0)))
		Expect(r.Pos()).To(BeEquivalentTo(1))
	})

	It("rejects both round flags at once", func() {
		_, err := newQuantizedFloatDecoder(8, qffRoundDown|qffRoundUp, 0.5, 100)
		Expect(err).To(HaveOccurred())
	})

	It("skips the same bits it decodes", func() {
		d, err := newQuantizedFloatDecoder(12, qffEncodeZero, -10, 10)
		Expect(err).ToNot(HaveOccurred())

		var w bitreader.W
		if d.encodeZero {
			w.WriteBit(false)
		}
		w.WriteBits(100, 12)

		read := bitreader.New(w.Bytes())
		_, err = d.Decode(read)
		Expect(err).ToNot(HaveOccurred())

		skip := bitreader.New(w.Bytes())
		Expect(d.Skip(skip)).To(Succeed())
		Expect(skip.Pos()).To(Equal(read.Pos()))
	})
})

var _ = Describe("Registry", func() {
	It("builds serializers and binds them to classes", func() {
		reg := buildTestRegistry()
		Expect(reg.ApplyClassInfo(&demopb.CDemoClassInfo{
			Classes: []*demopb.CDemoClassInfoClassT{
				{ClassId: proto.Int32(7), NetworkName: proto.String("CTestEnt")},
			},
		})).To(Succeed())

		s, err := reg.SerializerForClass(7)
		Expect(err).ToNot(HaveOccurred())
		Expect(s.Name).To(Equal("CTestEnt"))
		Expect(s.Fields).To(HaveLen(5))
	})

	It("derives the class-id width from the class count", func() {
		for maxClasses, bits := range map[int32]uint{
			1:    1,
			2:    2,
			3:    2,
			4:    3,
			580:  10,
			1000: 10,
			1024: 11,
		} {
			reg := NewRegistry()
			reg.SetMaxClasses(maxClasses)
			Expect(reg.ClassIDBits()).To(Equal(bits),
				"width for %d classes", maxClasses)
		}
	})

	It("rejects a second schema block", func() {
		reg := buildTestRegistry()
		err := reg.Build(&buildTestSchema().msg)
		Expect(errors.Cause(err)).To(Equal(ErrDuplicateSchema))
	})

	It("rejects a duplicate name and version within one block", func() {
		b := newSchemaBuilder()
		f := b.field(&demopb.ProtoFlattenedSerializerFieldT{
			VarTypeSym: b.sym("int32"),
			VarNameSym: b.sym("m_nValue"),
		})
		b.serializer("CThing", 3, f)
		b.serializer("CThing", 3, f)

		err := NewRegistry().Build(&b.msg)
		Expect(errors.Cause(err)).To(Equal(ErrDuplicateSchema))
	})

	It("resolves dotted names to path prefixes", func() {
		reg := buildTestRegistry()
		s, _ := reg.Serializer("CTestEnt")

		Expect(s.PathOf("m_iHealth")).To(Equal([]int32{0}))
		Expect(s.PathOf("m_item.m_name")).To(Equal([]int32{2, 0}))
		Expect(s.PathOf("m_vecAmmo")).To(Equal([]int32{1}))

		_, err := s.PathOf("m_missing")
		Expect(err).To(HaveOccurred())
		_, err = s.PathOf("m_iHealth.m_nested")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Serializer decode", func() {
	var reg *Registry
	var ent *Serializer

	BeforeEach(func() {
		reg = buildTestRegistry()
		var ok bool
		ent, ok = reg.Serializer("CTestEnt")
		Expect(ok).To(BeTrue())
	})

	It("decodes a leaf value", func() {
		var w bitreader.W
		w.WriteVarInt64(95)

		sink := newRecordingSink(true)
		err := ent.DecodeField(bitreader.New(w.Bytes()), fieldpath.Make(0), sink)
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.values).To(Equal([]interface{}{int64(95)}))
	})

	It("decodes a nested serializer field", func() {
		var w bitreader.W
		w.WriteString("ak47")

		sink := newRecordingSink(true)
		err := ent.DecodeField(bitreader.New(w.Bytes()), fieldpath.Make(2, 0), sink)
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.values).To(Equal([]interface{}{"ak47"}))
	})

	It("treats an empty tail path on a vector as a resize", func() {
		var w bitreader.W
		w.WriteVarUint64(4)

		sink := newRecordingSink(true)
		err := ent.DecodeField(bitreader.New(w.Bytes()), fieldpath.Make(1), sink)
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.resizes).To(Equal([]int{4}))
		Expect(sink.values).To(BeEmpty())
	})

	It("decodes a vector element through its index", func() {
		var w bitreader.W
		w.WriteVarInt64(30)

		sink := newRecordingSink(true)
		err := ent.DecodeField(bitreader.New(w.Bytes()), fieldpath.Make(1, 2), sink)
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.values).To(Equal([]interface{}{int64(30)}))
	})

	It("consumes identical bits with and without materialization", func() {
		var w bitreader.W
		w.WriteString("some value")

		read := bitreader.New(w.Bytes())
		Expect(ent.DecodeField(read, fieldpath.Make(2, 0), newRecordingSink(true))).To(Succeed())

		skip := bitreader.New(w.Bytes())
		Expect(ent.DecodeField(skip, fieldpath.Make(2, 0), newRecordingSink(false))).To(Succeed())

		Expect(skip.Pos()).To(Equal(read.Pos()))
	})

	Context("polymorphic fields", func() {
		It("fails deterministically without a binding", func() {
			var w bitreader.W
			w.WriteBit(true)
			w.WriteUBitVar(0)

			err := ent.DecodeField(bitreader.New(w.Bytes()), fieldpath.Make(3), newRecordingSink(true))
			Expect(errors.Cause(err)).To(Equal(ErrUnregisteredPolymorphicField))
		})

		It("pins and decodes through the bound variant", func() {
			Expect(reg.BindPolymorphic("CTestEnt", "m_pBody")).To(Succeed())

			// Variant selection.
			var w bitreader.W
			w.WriteBit(true)
			w.WriteUBitVar(1)

			sink := newRecordingSink(true)
			err := ent.DecodeField(bitreader.New(w.Bytes()), fieldpath.Make(3), sink)
			Expect(err).ToNot(HaveOccurred())
			Expect(sink.pins).To(Equal([]int{1}))

			// Field 1 of CBodyFull, reached through the pinned variant.
			w = bitreader.W{}
			w.WriteString("full")

			sink = newRecordingSink(true)
			sink.variants[1] = 1
			err = ent.DecodeField(bitreader.New(w.Bytes()), fieldpath.Make(3, 1), sink)
			Expect(err).ToNot(HaveOccurred())
			Expect(sink.values).To(Equal([]interface{}{"full"}))
		})

		It("rejects a variant index past the table", func() {
			Expect(reg.BindPolymorphic("CTestEnt", "m_pBody")).To(Succeed())

			var w bitreader.W
			w.WriteBit(true)
			w.WriteUBitVar(9)

			err := ent.DecodeField(bitreader.New(w.Bytes()), fieldpath.Make(3), newRecordingSink(true))
			Expect(err).To(HaveOccurred())
		})
	})

	It("rejects paths that run past a leaf", func() {
		var w bitreader.W
		w.WriteVarInt64(1)

		err := ent.DecodeField(bitreader.New(w.Bytes()), fieldpath.Make(0, 0), newRecordingSink(true))
		Expect(err).To(HaveOccurred())
	})

	It("rejects field indices outside the serializer", func() {
		err := ent.DecodeField(bitreader.New(nil), fieldpath.Make(9), newRecordingSink(true))
		Expect(err).To(HaveOccurred())
	})
})
