// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package sendtable

import (
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// typeAliases maps engine type aliases to their wire representation. The
// game networks these enum and handle wrappers as their underlying scalar.
var typeAliases = map[string]string{
	"AmmoIndex_t":              "int8",
	"AttachmentHandle_t":       "uint8",
	"CNetworkedQuantizedFloat": "float32",
	"GameTick_t":               "int32",
	"GameTime_t":               "float32",
	"MoveCollide_t":            "uint8",
	"MoveType_t":               "uint8",
	"RenderFx_t":               "uint8",
	"RenderMode_t":             "uint8",
	"SolidType_t":              "uint8",
	"SurroundingBoundsType_t":  "uint8",
	"WeaponState_t":            "uint32",
}

// fieldTypeRE splits a declared type into base, generic argument, pointer
// marker, and array size, e.g. "CNetworkUtlVectorBase< CHandle< CBaseEntity > >"
// or "char[128]" or "CBodyComponent*".
var fieldTypeRE = regexp.MustCompile(`([^<\[\*]+)(?:<\s(.+?)\s>)?(\*)?(?:\[(.+?)\])?`)

// FieldType is the parsed form of a field's declared type string.
type FieldType struct {
	Base    string
	Generic *FieldType
	Pointer bool

	// ArraySize is zero for anything that is not a fixed array; the game
	// treats plain fields and one-element arrays differently.
	ArraySize int
}

// ParseFieldType parses a declared type string, resolving aliases first.
func ParseFieldType(s string) (*FieldType, error) {
	if alias, ok := typeAliases[s]; ok {
		return ParseFieldType(alias)
	}

	caps := fieldTypeRE.FindStringSubmatch(s)
	if caps == nil || caps[1] == "" {
		return nil, errors.Errorf("sendtable: invalid field type %q", s)
	}

	ft := &FieldType{
		Base:    caps[1],
		Pointer: caps[3] == "*",
	}

	if caps[2] != "" {
		generic, err := ParseFieldType(caps[2])
		if err != nil {
			return nil, errors.Wrapf(err, "generic argument of %q", s)
		}
		ft.Generic = generic
	}

	if caps[4] != "" {
		size, err := strconv.Atoi(caps[4])
		if err != nil {
			return nil, errors.Errorf("sendtable: invalid array size in field type %q", s)
		}
		ft.ArraySize = size
	}

	return ft, nil
}

// vectorBases are the dynamically sized container types. Their generic
// argument is the element type, and an empty field path addresses the
// container's length.
var vectorBases = map[string]struct{}{
	"CUtlVector":                   {},
	"CNetworkUtlVectorBase":        {},
	"CUtlVectorEmbeddedNetworkVar": {},
}

func (ft *FieldType) isVector() bool {
	_, ok := vectorBases[ft.Base]
	return ok
}

// elementType returns the type whose encoding governs the leaf values under
// this field: the generic argument for vector containers, the type itself
// otherwise.
func (ft *FieldType) elementType() *FieldType {
	if ft.Generic != nil && ft.isVector() {
		return ft.Generic
	}
	return ft
}
