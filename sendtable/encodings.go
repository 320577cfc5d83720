// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package sendtable

// netType identifies the wire encoding family of a declared type.
type netType int

const (
	netBool netType = iota
	netInt64
	netUint64
	netFloat32
	netString
)

func (t netType) String() string {
	switch t {
	case netBool:
		return "bool"
	case netInt64:
		return "int64"
	case netUint64:
		return "uint64"
	case netFloat32:
		return "float32"
	case netString:
		return "string"
	default:
		return "unknown"
	}
}

type encoding struct {
	net        netType
	components int
}

// basicEncodings maps declared base types to their wire encoding and
// component count. Handle and token types travel as unsigned varints,
// engine vector types as per-component floats.
var basicEncodings = map[string]encoding{
	"bool":    {netBool, 1},
	"char":    {netString, 1},
	"int8":    {netInt64, 1},
	"int16":   {netInt64, 1},
	"int32":   {netInt64, 1},
	"int64":   {netInt64, 1},
	"uint8":   {netUint64, 1},
	"uint16":  {netUint64, 1},
	"uint32":  {netUint64, 1},
	"uint64":  {netUint64, 1},
	"float32": {netFloat32, 1},

	"Vector2D":   {netFloat32, 2},
	"Vector":     {netFloat32, 3},
	"QAngle":     {netFloat32, 3},
	"Vector4D":   {netFloat32, 4},
	"Quaternion": {netFloat32, 4},
	"CTransform": {netFloat32, 6},

	"CUtlString":      {netString, 1},
	"CUtlSymbolLarge": {netString, 1},

	"Color":                {netUint64, 1},
	"color32":              {netUint64, 1},
	"CUtlStringToken":      {netUint64, 1},
	"CEntityHandle":        {netUint64, 1},
	"CGameSceneNodeHandle": {netUint64, 1},
	"CHandle":              {netUint64, 1},
	"CStrongHandle":        {netUint64, 1},

	"CEntityIndex": {netInt64, 1},
	"HSequence":    {netInt64, 1},
}

// fieldEncoderOverrides re-types individual fields by name. The timing
// fields are declared float32 but travel as unsigned varints and are
// converted after decode.
var fieldEncoderOverrides = map[string]netType{
	"m_flAnimTime":       netUint64,
	"m_flSimulationTime": netUint64,
}
