// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package sendtable

import (
	"math"

	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/support/bitreader"
)

// A ValueDecoder reads one leaf value from the bitstream. Skip consumes
// exactly the bits Decode would, without materializing the value; the two
// must stay in lockstep or every later field in the update misaligns.
type ValueDecoder interface {
	Decode(r *bitreader.R) (interface{}, error)
	Skip(r *bitreader.R) error
}

type boolDecoder struct{}

func (boolDecoder) Decode(r *bitreader.R) (interface{}, error) { return r.ReadBit() }
func (boolDecoder) Skip(r *bitreader.R) error                  { _, err := r.ReadBit(); return err }

type varUint64Decoder struct{}

func (varUint64Decoder) Decode(r *bitreader.R) (interface{}, error) { return r.ReadVarUint64() }
func (varUint64Decoder) Skip(r *bitreader.R) error                  { return r.SkipVarint() }

type varInt64Decoder struct{}

func (varInt64Decoder) Decode(r *bitreader.R) (interface{}, error) { return r.ReadVarInt64() }
func (varInt64Decoder) Skip(r *bitreader.R) error                  { return r.SkipVarint() }

type fixed64Decoder struct{}

func (fixed64Decoder) Decode(r *bitreader.R) (interface{}, error) {
	var buf [8]byte
	if err := r.ReadBytes(buf[:]); err != nil {
		return nil, err
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

func (fixed64Decoder) Skip(r *bitreader.R) error { return r.Skip(64) }

type stringDecoder struct{}

func (stringDecoder) Decode(r *bitreader.R) (interface{}, error) { return r.ReadString() }
func (stringDecoder) Skip(r *bitreader.R) error                  { return r.SkipString() }

// simTimeDecoder handles the timing fields that are declared float32 but
// travel as unsigned varints.
type simTimeDecoder struct{}

func (simTimeDecoder) Decode(r *bitreader.R) (interface{}, error) {
	v, err := r.ReadVarUint64()
	if err != nil {
		return nil, err
	}
	return float32(v), nil
}

func (simTimeDecoder) Skip(r *bitreader.R) error { return r.SkipVarint() }

type noScaleFloatDecoder struct{}

func (noScaleFloatDecoder) Decode(r *bitreader.R) (interface{}, error) {
	v, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (noScaleFloatDecoder) Skip(r *bitreader.R) error { return r.Skip(32) }

const (
	coordIntBits  = 14
	coordFracBits = 5
)

func readCoord(r *bitreader.R) (float32, error) {
	hasInt, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	hasFrac, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	if !hasInt && !hasFrac {
		return 0, nil
	}

	neg, err := r.ReadBit()
	if err != nil {
		return 0, err
	}

	var intval, fracval uint64
	if hasInt {
		v, err := r.ReadBits(coordIntBits)
		if err != nil {
			return 0, err
		}
		intval = v + 1
	}
	if hasFrac {
		fracval, err = r.ReadBits(coordFracBits)
		if err != nil {
			return 0, err
		}
	}

	v := float32(intval) + float32(fracval)*(1.0/(1<<coordFracBits))
	if neg {
		v = -v
	}
	return v, nil
}

func skipCoord(r *bitreader.R) error {
	hasInt, err := r.ReadBit()
	if err != nil {
		return err
	}
	hasFrac, err := r.ReadBit()
	if err != nil {
		return err
	}

	switch {
	case hasInt && hasFrac:
		return r.Skip(1 + coordIntBits + coordFracBits)
	case hasInt:
		return r.Skip(1 + coordIntBits)
	case hasFrac:
		return r.Skip(1 + coordFracBits)
	}
	return nil
}

type coordFloatDecoder struct{}

func (coordFloatDecoder) Decode(r *bitreader.R) (interface{}, error) { return readCoord(r) }
func (coordFloatDecoder) Skip(r *bitreader.R) error                  { return skipCoord(r) }

// normalVector3Decoder reads a unit vector: optional X and Y components in
// sign + 11-bit magnitude form, Z reconstructed from the remainder.
type normalVector3Decoder struct{}

func readNormalComponent(r *bitreader.R) (float32, error) {
	neg, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	v, err := r.ReadBits(11)
	if err != nil {
		return 0, err
	}
	f := float32(v) * (1.0 / ((1 << 11) - 1))
	if neg {
		f = -f
	}
	return f, nil
}

func (normalVector3Decoder) Decode(r *bitreader.R) (interface{}, error) {
	var vec Vector3

	hasX, err := r.ReadBit()
	if err != nil {
		return nil, err
	}
	hasY, err := r.ReadBit()
	if err != nil {
		return nil, err
	}

	if hasX {
		if vec.X, err = readNormalComponent(r); err != nil {
			return nil, err
		}
	}
	if hasY {
		if vec.Y, err = readNormalComponent(r); err != nil {
			return nil, err
		}
	}

	negZ, err := r.ReadBit()
	if err != nil {
		return nil, err
	}
	sum := float64(vec.X)*float64(vec.X) + float64(vec.Y)*float64(vec.Y)
	if sum < 1.0 {
		vec.Z = float32(math.Sqrt(1.0 - sum))
		if negZ {
			vec.Z = -vec.Z
		}
	}

	return vec, nil
}

func (normalVector3Decoder) Skip(r *bitreader.R) error {
	hasX, err := r.ReadBit()
	if err != nil {
		return err
	}
	hasY, err := r.ReadBit()
	if err != nil {
		return err
	}

	switch {
	case hasX && hasY:
		return r.Skip(25)
	case hasX || hasY:
		return r.Skip(13)
	default:
		_, err := r.ReadBit()
		return err
	}
}

// qangleCoordDecoder reads three optional coord-encoded angle components.
type qangleCoordDecoder struct{}

func (qangleCoordDecoder) Decode(r *bitreader.R) (interface{}, error) {
	var present [3]bool
	for i := range present {
		b, err := r.ReadBit()
		if err != nil {
			return nil, err
		}
		present[i] = b
	}

	var angle QAngle
	components := [...]*float32{&angle.Pitch, &angle.Yaw, &angle.Roll}
	for i, c := range components {
		if !present[i] {
			continue
		}
		v, err := readCoord(r)
		if err != nil {
			return nil, err
		}
		*c = v
	}
	return angle, nil
}

func (qangleCoordDecoder) Skip(r *bitreader.R) error {
	var present [3]bool
	for i := range present {
		b, err := r.ReadBit()
		if err != nil {
			return err
		}
		present[i] = b
	}
	for _, p := range present {
		if !p {
			continue
		}
		if err := skipCoord(r); err != nil {
			return err
		}
	}
	return nil
}

const preciseAngleBits = 20

// qanglePreciseDecoder reads three optional 20-bit angle components centered
// on zero.
type qanglePreciseDecoder struct{}

func (qanglePreciseDecoder) Decode(r *bitreader.R) (interface{}, error) {
	var present [3]bool
	for i := range present {
		b, err := r.ReadBit()
		if err != nil {
			return nil, err
		}
		present[i] = b
	}

	var angle QAngle
	components := [...]*float32{&angle.Pitch, &angle.Yaw, &angle.Roll}
	for i, c := range components {
		if !present[i] {
			continue
		}
		v, err := r.ReadBits(preciseAngleBits)
		if err != nil {
			return nil, err
		}
		*c = float32(v)*360.0/(1<<preciseAngleBits) - 180.0
	}
	return angle, nil
}

func (qanglePreciseDecoder) Skip(r *bitreader.R) error {
	var present [3]bool
	for i := range present {
		b, err := r.ReadBit()
		if err != nil {
			return err
		}
		present[i] = b
	}
	for _, p := range present {
		if p {
			if err := r.Skip(preciseAngleBits); err != nil {
				return err
			}
		}
	}
	return nil
}

// qangleBitDecoder reads three fixed-width angle components.
type qangleBitDecoder struct {
	bits uint
}

func (d qangleBitDecoder) Decode(r *bitreader.R) (interface{}, error) {
	var angle QAngle
	components := [...]*float32{&angle.Pitch, &angle.Yaw, &angle.Roll}
	for _, c := range components {
		v, err := r.ReadBits(d.bits)
		if err != nil {
			return nil, err
		}
		*c = float32(v) * 360.0 / float32(uint64(1)<<d.bits)
	}
	return angle, nil
}

func (d qangleBitDecoder) Skip(r *bitreader.R) error { return r.Skip(uint64(3 * d.bits)) }

// Quantized float flags.
const (
	qffRoundDown = 1 << iota
	qffRoundUp
	qffEncodeZero
	qffEncodeIntegers
)

// quantizedFloatDecoder reads a float quantized into a fixed bit width over
// a [low, high] range, with optional special codes for the range bounds and
// exact zero.
type quantizedFloatDecoder struct {
	low, high  float32
	highLowMul float32
	decMul     float32
	bits       uint

	roundDown  bool
	roundUp    bool
	encodeZero bool
}

func newQuantizedFloatDecoder(bits uint, flags uint32, low, high float32) (*quantizedFloatDecoder, error) {
	if flags != 0 {
		// The bound codes collapse into the plain range when the bound is
		// zero, and zero encoding is meaningless when the range excludes it.
		if (low == 0 && flags&qffRoundDown != 0) || (high == 0 && flags&qffRoundUp != 0) {
			flags &^= qffEncodeZero
		}
		if low == 0 && flags&qffEncodeZero != 0 {
			flags |= qffRoundDown
			flags &^= qffEncodeZero
		}
		if high == 0 && flags&qffEncodeZero != 0 {
			flags |= qffRoundUp
			flags &^= qffEncodeZero
		}
		if low > 0 || high < 0 {
			flags &^= qffEncodeZero
		}
		if flags&qffEncodeIntegers != 0 {
			flags &^= qffRoundUp | qffRoundDown | qffEncodeZero
		}
		if flags&(qffRoundDown|qffRoundUp) == qffRoundDown|qffRoundUp {
			return nil, errors.New("sendtable: quantized float has both round flags set")
		}
	}

	steps := uint32(1) << bits
	if flags&qffRoundDown != 0 {
		high -= (high - low) / float32(steps)
	} else if flags&qffRoundUp != 0 {
		low += (high - low) / float32(steps)
	}

	if flags&qffEncodeIntegers != 0 {
		delta := high - low
		if delta < 1 {
			delta = 1
		}

		deltaLog2 := math.Ceil(math.Log2(float64(delta)))
		rangePow2 := uint32(1) << uint(deltaLog2)
		bc := bits
		for uint32(1)<<bc <= rangePow2 {
			bc++
		}
		if bc > bits {
			bits = bc
			steps = 1 << bits
		}

		offset := float32(rangePow2) / float32(steps)
		high = low + float32(rangePow2) - offset
	}

	d := &quantizedFloatDecoder{
		low:        low,
		high:       high,
		bits:       bits,
		roundDown:  flags&qffRoundDown != 0,
		roundUp:    flags&qffRoundUp != 0,
		encodeZero: flags&qffEncodeZero != 0,
	}

	if err := d.assignMultipliers(steps); err != nil {
		return nil, err
	}

	// Drop special codes that quantize to themselves anyway.
	if d.roundDown {
		if v, err := d.quantize(d.low); err == nil && v == d.low {
			d.roundDown = false
		}
	}
	if d.roundUp {
		if v, err := d.quantize(d.high); err == nil && v == d.high {
			d.roundUp = false
		}
	}
	if d.encodeZero {
		if v, err := d.quantize(0); err == nil && v == 0 {
			d.encodeZero = false
		}
	}

	return d, nil
}

func (d *quantizedFloatDecoder) assignMultipliers(steps uint32) error {
	rng := d.high - d.low

	var high uint32 = 0xFFFFFFFE
	if d.bits != 32 {
		high = (1 << d.bits) - 1
	}

	highMul := float32(high)
	if float32(math.Abs(float64(rng))) > 0 {
		highMul = float32(high) / rng
	}

	if highMul*rng > float32(high) || float64(highMul*rng) > float64(high) {
		for _, mult := range [...]float32{0.9999, 0.99, 0.9, 0.8, 0.7} {
			highMul = float32(high) / rng * mult
			if highMul*rng <= float32(high) && float64(highMul*rng) <= float64(high) {
				break
			}
		}
	}

	d.highLowMul = highMul
	d.decMul = 1.0 / float32(steps-1)

	if d.highLowMul == 0 {
		return errors.New("sendtable: invalid quantized float range multiplier")
	}
	return nil
}

func (d *quantizedFloatDecoder) quantize(v float32) (float32, error) {
	switch {
	case v < d.low:
		if !d.roundUp {
			return 0, errors.New("sendtable: quantized value below range")
		}
		return d.low, nil
	case v > d.high:
		if !d.roundDown {
			return 0, errors.New("sendtable: quantized value above range")
		}
		return d.high, nil
	}

	i := uint32((v - d.low) * d.highLowMul)
	return d.low + (d.high-d.low)*(float32(i)*d.decMul), nil
}

func (d *quantizedFloatDecoder) readSpecial(r *bitreader.R) (float32, bool, error) {
	if d.roundDown {
		b, err := r.ReadBit()
		if err != nil {
			return 0, false, err
		}
		if b {
			return d.low, true, nil
		}
	}
	if d.roundUp {
		b, err := r.ReadBit()
		if err != nil {
			return 0, false, err
		}
		if b {
			return d.high, true, nil
		}
	}
	if d.encodeZero {
		b, err := r.ReadBit()
		if err != nil {
			return 0, false, err
		}
		if b {
			return 0, true, nil
		}
	}
	return 0, false, nil
}

func (d *quantizedFloatDecoder) Decode(r *bitreader.R) (interface{}, error) {
	v, special, err := d.readSpecial(r)
	if err != nil {
		return nil, err
	}
	if special {
		return v, nil
	}

	raw, err := r.ReadBits(d.bits)
	if err != nil {
		return nil, err
	}
	return d.low + (d.high-d.low)*float32(raw)*d.decMul, nil
}

func (d *quantizedFloatDecoder) Skip(r *bitreader.R) error {
	_, special, err := d.readSpecial(r)
	if err != nil {
		return err
	}
	if special {
		return nil
	}
	return r.Skip(uint64(d.bits))
}

// multiFloatDecoder decodes N float components with a shared scalar decoder
// and assembles them into the matching vector type.
type multiFloatDecoder struct {
	inner      ValueDecoder
	components int
}

func (d multiFloatDecoder) Decode(r *bitreader.R) (interface{}, error) {
	var vals [6]float32
	for i := 0; i < d.components; i++ {
		v, err := d.inner.Decode(r)
		if err != nil {
			return nil, err
		}
		f, ok := v.(float32)
		if !ok {
			return nil, errors.Errorf("sendtable: component decoder produced %T, want float32", v)
		}
		vals[i] = f
	}

	switch d.components {
	case 2:
		return Vector2{vals[0], vals[1]}, nil
	case 3:
		return Vector3{vals[0], vals[1], vals[2]}, nil
	case 4:
		return Vector4{vals[0], vals[1], vals[2], vals[3]}, nil
	case 6:
		return Transform6{vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]}, nil
	default:
		return nil, errors.Errorf("sendtable: unsupported component count %d", d.components)
	}
}

func (d multiFloatDecoder) Skip(r *bitreader.R) error {
	for i := 0; i < d.components; i++ {
		if err := d.inner.Skip(r); err != nil {
			return err
		}
	}
	return nil
}

// qangleMultiDecoder wraps a three-component scalar decode into a QAngle
// instead of a Vector3.
type qangleMultiDecoder struct {
	inner ValueDecoder
}

func (d qangleMultiDecoder) Decode(r *bitreader.R) (interface{}, error) {
	var vals [3]float32
	for i := range vals {
		v, err := d.inner.Decode(r)
		if err != nil {
			return nil, err
		}
		f, ok := v.(float32)
		if !ok {
			return nil, errors.Errorf("sendtable: component decoder produced %T, want float32", v)
		}
		vals[i] = f
	}
	return QAngle{vals[0], vals[1], vals[2]}, nil
}

func (d qangleMultiDecoder) Skip(r *bitreader.R) error {
	for i := 0; i < 3; i++ {
		if err := d.inner.Skip(r); err != nil {
			return err
		}
	}
	return nil
}

// fieldSchema carries the per-field schema attributes the decoder selection
// consults.
type fieldSchema struct {
	varName     string
	encoder     string
	bitCount    int32
	lowValue    float32
	highValue   float32
	encodeFlags uint32
}

// newValueDecoder selects the leaf decoder for a field from its element
// type, encoder annotation, and quantization attributes.
func newValueDecoder(ft *FieldType, schema *fieldSchema) (ValueDecoder, error) {
	varType := ft.elementType().Base

	enc, ok := basicEncodings[varType]
	if !ok {
		return nil, errors.Errorf("sendtable: no encoding for type %q", varType)
	}

	net := enc.net
	var override netType
	hasOverride := false
	if ov, ok := fieldEncoderOverrides[schema.varName]; ok {
		override = net
		hasOverride = true
		net = ov
	}

	switch net {
	case netUint64:
		if enc.components != 1 {
			return nil, errors.Errorf("sendtable: multi-component uint64 field %q", schema.varName)
		}

		var base ValueDecoder
		switch schema.encoder {
		case "":
			base = varUint64Decoder{}
		case "fixed64":
			base = fixed64Decoder{}
		default:
			return nil, errors.Errorf("sendtable: unsupported uint64 encoder %q", schema.encoder)
		}

		if hasOverride {
			if override != netFloat32 {
				return nil, errors.Errorf("sendtable: unsupported override %s for uint64 field %q", override, schema.varName)
			}
			if _, fixed := base.(fixed64Decoder); fixed {
				return nil, errors.Errorf("sendtable: fixed64 override unsupported for field %q", schema.varName)
			}
			return simTimeDecoder{}, nil
		}
		return base, nil

	case netInt64:
		if enc.components != 1 || hasOverride {
			return nil, errors.Errorf("sendtable: unsupported int64 shape for field %q", schema.varName)
		}
		if schema.encoder != "" {
			return nil, errors.Errorf("sendtable: unsupported int64 encoder %q", schema.encoder)
		}
		return varInt64Decoder{}, nil

	case netString:
		if enc.components != 1 || hasOverride {
			return nil, errors.Errorf("sendtable: unsupported string shape for field %q", schema.varName)
		}
		if schema.encoder != "" {
			return nil, errors.Errorf("sendtable: unsupported string encoder %q", schema.encoder)
		}
		return stringDecoder{}, nil

	case netBool:
		if enc.components != 1 || hasOverride {
			return nil, errors.Errorf("sendtable: unsupported bool shape for field %q", schema.varName)
		}
		if schema.encoder != "" {
			return nil, errors.Errorf("sendtable: unsupported bool encoder %q", schema.encoder)
		}
		return boolDecoder{}, nil

	case netFloat32:
		return newFloatDecoder(varType, enc.components, schema, hasOverride)

	default:
		return nil, errors.Errorf("sendtable: unsupported net type for %q", varType)
	}
}

func newFloatDecoder(varType string, components int, schema *fieldSchema, hasOverride bool) (ValueDecoder, error) {
	if schema.encoder == "normal" && varType == "Vector" && components == 3 {
		return normalVector3Decoder{}, nil
	}
	if hasOverride {
		return nil, errors.Errorf("sendtable: unsupported override for float field %q", schema.varName)
	}

	if varType == "QAngle" {
		if components != 3 {
			return nil, errors.Errorf("sendtable: QAngle field %q must have 3 components", schema.varName)
		}
		switch {
		case schema.encoder == "qangle_precise":
			return qanglePreciseDecoder{}, nil
		case schema.encoder == "qangle" && schema.bitCount != 0:
			return qangleBitDecoder{bits: uint(schema.bitCount)}, nil
		case schema.encoder == "qangle":
			return qangleCoordDecoder{}, nil
		}
	}

	var scalar ValueDecoder
	switch schema.encoder {
	case "coord":
		scalar = coordFloatDecoder{}
	case "":
		if schema.bitCount <= 0 || schema.bitCount >= 32 {
			scalar = noScaleFloatDecoder{}
		} else {
			q, err := newQuantizedFloatDecoder(uint(schema.bitCount), schema.encodeFlags, schema.lowValue, schema.highValue)
			if err != nil {
				return nil, errors.Wrapf(err, "field %q", schema.varName)
			}
			scalar = q
		}
	default:
		return nil, errors.Errorf("sendtable: unsupported float encoder %q", schema.encoder)
	}

	switch components {
	case 1:
		return scalar, nil
	case 3:
		if varType == "QAngle" {
			return qangleMultiDecoder{inner: scalar}, nil
		}
		return multiFloatDecoder{inner: scalar, components: 3}, nil
	case 2, 4, 6:
		return multiFloatDecoder{inner: scalar, components: components}, nil
	default:
		return nil, errors.Errorf("sendtable: unsupported float component count %d", components)
	}
}
