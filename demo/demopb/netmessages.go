// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package demopb

import (
	proto "github.com/golang/protobuf/proto"
)

type CSVCMsg_ServerInfo struct {
	Protocol         *int32   `protobuf:"varint,1,opt,name=protocol" json:"protocol,omitempty"`
	ServerCount      *int32   `protobuf:"varint,2,opt,name=server_count,json=serverCount" json:"server_count,omitempty"`
	IsDedicated      *bool    `protobuf:"varint,3,opt,name=is_dedicated,json=isDedicated" json:"is_dedicated,omitempty"`
	MaxClients       *int32   `protobuf:"varint,10,opt,name=max_clients,json=maxClients" json:"max_clients,omitempty"`
	MaxClasses       *int32   `protobuf:"varint,11,opt,name=max_classes,json=maxClasses" json:"max_classes,omitempty"`
	TickInterval     *float32 `protobuf:"fixed32,13,opt,name=tick_interval,json=tickInterval" json:"tick_interval,omitempty"`
	GameDir          *string  `protobuf:"bytes,14,opt,name=game_dir,json=gameDir" json:"game_dir,omitempty"`
	MapName          *string  `protobuf:"bytes,15,opt,name=map_name,json=mapName" json:"map_name,omitempty"`
	HostName         *string  `protobuf:"bytes,17,opt,name=host_name,json=hostName" json:"host_name,omitempty"`
	XXX_unrecognized []byte   `json:"-"`
}

func (m *CSVCMsg_ServerInfo) Reset()         { *m = CSVCMsg_ServerInfo{} }
func (m *CSVCMsg_ServerInfo) String() string { return proto.CompactTextString(m) }
func (*CSVCMsg_ServerInfo) ProtoMessage()    {}

func (m *CSVCMsg_ServerInfo) GetMaxClasses() int32 {
	if m != nil && m.MaxClasses != nil {
		return *m.MaxClasses
	}
	return 0
}

func (m *CSVCMsg_ServerInfo) GetTickInterval() float32 {
	if m != nil && m.TickInterval != nil {
		return *m.TickInterval
	}
	return 0
}

func (m *CSVCMsg_ServerInfo) GetMapName() string {
	if m != nil && m.MapName != nil {
		return *m.MapName
	}
	return ""
}

type CSVCMsg_CreateStringTable struct {
	Name                 *string `protobuf:"bytes,1,opt,name=name" json:"name,omitempty"`
	NumEntries           *int32  `protobuf:"varint,2,opt,name=num_entries,json=numEntries" json:"num_entries,omitempty"`
	UserDataFixedSize    *bool   `protobuf:"varint,3,opt,name=user_data_fixed_size,json=userDataFixedSize" json:"user_data_fixed_size,omitempty"`
	UserDataSize         *int32  `protobuf:"varint,4,opt,name=user_data_size,json=userDataSize" json:"user_data_size,omitempty"`
	UserDataSizeBits     *int32  `protobuf:"varint,5,opt,name=user_data_size_bits,json=userDataSizeBits" json:"user_data_size_bits,omitempty"`
	Flags                *int32  `protobuf:"varint,6,opt,name=flags" json:"flags,omitempty"`
	StringData           []byte  `protobuf:"bytes,7,opt,name=string_data,json=stringData" json:"string_data,omitempty"`
	UncompressedSize     *int32  `protobuf:"varint,8,opt,name=uncompressed_size,json=uncompressedSize" json:"uncompressed_size,omitempty"`
	DataCompressed       *bool   `protobuf:"varint,9,opt,name=data_compressed,json=dataCompressed" json:"data_compressed,omitempty"`
	UsingVarintBitcounts *bool   `protobuf:"varint,10,opt,name=using_varint_bitcounts,json=usingVarintBitcounts" json:"using_varint_bitcounts,omitempty"`
	XXX_unrecognized     []byte  `json:"-"`
}

func (m *CSVCMsg_CreateStringTable) Reset()         { *m = CSVCMsg_CreateStringTable{} }
func (m *CSVCMsg_CreateStringTable) String() string { return proto.CompactTextString(m) }
func (*CSVCMsg_CreateStringTable) ProtoMessage()    {}

func (m *CSVCMsg_CreateStringTable) GetName() string {
	if m != nil && m.Name != nil {
		return *m.Name
	}
	return ""
}

func (m *CSVCMsg_CreateStringTable) GetNumEntries() int32 {
	if m != nil && m.NumEntries != nil {
		return *m.NumEntries
	}
	return 0
}

func (m *CSVCMsg_CreateStringTable) GetUserDataFixedSize() bool {
	if m != nil && m.UserDataFixedSize != nil {
		return *m.UserDataFixedSize
	}
	return false
}

func (m *CSVCMsg_CreateStringTable) GetUserDataSizeBits() int32 {
	if m != nil && m.UserDataSizeBits != nil {
		return *m.UserDataSizeBits
	}
	return 0
}

func (m *CSVCMsg_CreateStringTable) GetFlags() int32 {
	if m != nil && m.Flags != nil {
		return *m.Flags
	}
	return 0
}

func (m *CSVCMsg_CreateStringTable) GetStringData() []byte {
	if m != nil {
		return m.StringData
	}
	return nil
}

func (m *CSVCMsg_CreateStringTable) GetUncompressedSize() int32 {
	if m != nil && m.UncompressedSize != nil {
		return *m.UncompressedSize
	}
	return 0
}

func (m *CSVCMsg_CreateStringTable) GetDataCompressed() bool {
	if m != nil && m.DataCompressed != nil {
		return *m.DataCompressed
	}
	return false
}

func (m *CSVCMsg_CreateStringTable) GetUsingVarintBitcounts() bool {
	if m != nil && m.UsingVarintBitcounts != nil {
		return *m.UsingVarintBitcounts
	}
	return false
}

type CSVCMsg_UpdateStringTable struct {
	TableId           *int32 `protobuf:"varint,1,opt,name=table_id,json=tableId" json:"table_id,omitempty"`
	NumChangedEntries *int32 `protobuf:"varint,2,opt,name=num_changed_entries,json=numChangedEntries" json:"num_changed_entries,omitempty"`
	StringData        []byte `protobuf:"bytes,3,opt,name=string_data,json=stringData" json:"string_data,omitempty"`
	XXX_unrecognized  []byte `json:"-"`
}

func (m *CSVCMsg_UpdateStringTable) Reset()         { *m = CSVCMsg_UpdateStringTable{} }
func (m *CSVCMsg_UpdateStringTable) String() string { return proto.CompactTextString(m) }
func (*CSVCMsg_UpdateStringTable) ProtoMessage()    {}

func (m *CSVCMsg_UpdateStringTable) GetTableId() int32 {
	if m != nil && m.TableId != nil {
		return *m.TableId
	}
	return 0
}

func (m *CSVCMsg_UpdateStringTable) GetNumChangedEntries() int32 {
	if m != nil && m.NumChangedEntries != nil {
		return *m.NumChangedEntries
	}
	return 0
}

func (m *CSVCMsg_UpdateStringTable) GetStringData() []byte {
	if m != nil {
		return m.StringData
	}
	return nil
}

type CSVCMsg_PacketEntities struct {
	MaxEntries       *int32 `protobuf:"varint,1,opt,name=max_entries,json=maxEntries" json:"max_entries,omitempty"`
	UpdatedEntries   *int32 `protobuf:"varint,2,opt,name=updated_entries,json=updatedEntries" json:"updated_entries,omitempty"`
	IsDelta          *bool  `protobuf:"varint,3,opt,name=is_delta,json=isDelta" json:"is_delta,omitempty"`
	UpdateBaseline   *bool  `protobuf:"varint,4,opt,name=update_baseline,json=updateBaseline" json:"update_baseline,omitempty"`
	Baseline         *int32 `protobuf:"varint,5,opt,name=baseline" json:"baseline,omitempty"`
	DeltaFrom        *int32 `protobuf:"varint,6,opt,name=delta_from,json=deltaFrom" json:"delta_from,omitempty"`
	EntityData       []byte `protobuf:"bytes,7,opt,name=entity_data,json=entityData" json:"entity_data,omitempty"`
	ServerTick       *int32 `protobuf:"varint,12,opt,name=server_tick,json=serverTick" json:"server_tick,omitempty"`
	HasPvsVisBits    *int32 `protobuf:"varint,14,opt,name=has_pvs_vis_bits,json=hasPvsVisBits" json:"has_pvs_vis_bits,omitempty"`
	XXX_unrecognized []byte `json:"-"`
}

func (m *CSVCMsg_PacketEntities) Reset()         { *m = CSVCMsg_PacketEntities{} }
func (m *CSVCMsg_PacketEntities) String() string { return proto.CompactTextString(m) }
func (*CSVCMsg_PacketEntities) ProtoMessage()    {}

func (m *CSVCMsg_PacketEntities) GetUpdatedEntries() int32 {
	if m != nil && m.UpdatedEntries != nil {
		return *m.UpdatedEntries
	}
	return 0
}

func (m *CSVCMsg_PacketEntities) GetIsDelta() bool {
	if m != nil && m.IsDelta != nil {
		return *m.IsDelta
	}
	return false
}

func (m *CSVCMsg_PacketEntities) GetEntityData() []byte {
	if m != nil {
		return m.EntityData
	}
	return nil
}

func (m *CSVCMsg_PacketEntities) GetHasPvsVisBits() int32 {
	if m != nil && m.HasPvsVisBits != nil {
		return *m.HasPvsVisBits
	}
	return 0
}

// Flattened serializer schema, delivered inside CDemoSendTables.

type ProtoFlattenedSerializerFieldPolymorphicT struct {
	PolymorphicFieldSerializerNameSym *int32 `protobuf:"varint,1,opt,name=polymorphic_field_serializer_name_sym,json=polymorphicFieldSerializerNameSym" json:"polymorphic_field_serializer_name_sym,omitempty"`
	PolymorphicFieldSerializerVersion *int32 `protobuf:"varint,2,opt,name=polymorphic_field_serializer_version,json=polymorphicFieldSerializerVersion" json:"polymorphic_field_serializer_version,omitempty"`
	XXX_unrecognized                  []byte `json:"-"`
}

func (m *ProtoFlattenedSerializerFieldPolymorphicT) Reset() {
	*m = ProtoFlattenedSerializerFieldPolymorphicT{}
}
func (m *ProtoFlattenedSerializerFieldPolymorphicT) String() string {
	return proto.CompactTextString(m)
}
func (*ProtoFlattenedSerializerFieldPolymorphicT) ProtoMessage() {}

func (m *ProtoFlattenedSerializerFieldPolymorphicT) GetPolymorphicFieldSerializerNameSym() int32 {
	if m != nil && m.PolymorphicFieldSerializerNameSym != nil {
		return *m.PolymorphicFieldSerializerNameSym
	}
	return 0
}

type ProtoFlattenedSerializerFieldT struct {
	VarTypeSym             *int32                                       `protobuf:"varint,1,opt,name=var_type_sym,json=varTypeSym" json:"var_type_sym,omitempty"`
	VarNameSym             *int32                                       `protobuf:"varint,2,opt,name=var_name_sym,json=varNameSym" json:"var_name_sym,omitempty"`
	BitCount               *int32                                       `protobuf:"varint,3,opt,name=bit_count,json=bitCount" json:"bit_count,omitempty"`
	LowValue               *float32                                     `protobuf:"fixed32,4,opt,name=low_value,json=lowValue" json:"low_value,omitempty"`
	HighValue              *float32                                     `protobuf:"fixed32,5,opt,name=high_value,json=highValue" json:"high_value,omitempty"`
	EncodeFlags            *int32                                       `protobuf:"varint,6,opt,name=encode_flags,json=encodeFlags" json:"encode_flags,omitempty"`
	FieldSerializerNameSym *int32                                       `protobuf:"varint,7,opt,name=field_serializer_name_sym,json=fieldSerializerNameSym" json:"field_serializer_name_sym,omitempty"`
	FieldSerializerVersion *int32                                       `protobuf:"varint,8,opt,name=field_serializer_version,json=fieldSerializerVersion" json:"field_serializer_version,omitempty"`
	SendNodeSym            *int32                                       `protobuf:"varint,9,opt,name=send_node_sym,json=sendNodeSym" json:"send_node_sym,omitempty"`
	VarEncoderSym          *int32                                       `protobuf:"varint,10,opt,name=var_encoder_sym,json=varEncoderSym" json:"var_encoder_sym,omitempty"`
	PolymorphicTypes       []*ProtoFlattenedSerializerFieldPolymorphicT `protobuf:"bytes,11,rep,name=polymorphic_types,json=polymorphicTypes" json:"polymorphic_types,omitempty"`
	XXX_unrecognized       []byte                                       `json:"-"`
}

func (m *ProtoFlattenedSerializerFieldT) Reset()         { *m = ProtoFlattenedSerializerFieldT{} }
func (m *ProtoFlattenedSerializerFieldT) String() string { return proto.CompactTextString(m) }
func (*ProtoFlattenedSerializerFieldT) ProtoMessage()    {}

func (m *ProtoFlattenedSerializerFieldT) GetBitCount() int32 {
	if m != nil && m.BitCount != nil {
		return *m.BitCount
	}
	return 0
}

func (m *ProtoFlattenedSerializerFieldT) GetLowValue() float32 {
	if m != nil && m.LowValue != nil {
		return *m.LowValue
	}
	return 0
}

func (m *ProtoFlattenedSerializerFieldT) GetHighValue() float32 {
	if m != nil && m.HighValue != nil {
		return *m.HighValue
	}
	return 0
}

func (m *ProtoFlattenedSerializerFieldT) GetEncodeFlags() int32 {
	if m != nil && m.EncodeFlags != nil {
		return *m.EncodeFlags
	}
	return 0
}

func (m *ProtoFlattenedSerializerFieldT) GetPolymorphicTypes() []*ProtoFlattenedSerializerFieldPolymorphicT {
	if m != nil {
		return m.PolymorphicTypes
	}
	return nil
}

type ProtoFlattenedSerializerT struct {
	SerializerNameSym *int32  `protobuf:"varint,1,opt,name=serializer_name_sym,json=serializerNameSym" json:"serializer_name_sym,omitempty"`
	SerializerVersion *int32  `protobuf:"varint,2,opt,name=serializer_version,json=serializerVersion" json:"serializer_version,omitempty"`
	FieldsIndex       []int32 `protobuf:"varint,3,rep,name=fields_index,json=fieldsIndex" json:"fields_index,omitempty"`
	XXX_unrecognized  []byte  `json:"-"`
}

func (m *ProtoFlattenedSerializerT) Reset()         { *m = ProtoFlattenedSerializerT{} }
func (m *ProtoFlattenedSerializerT) String() string { return proto.CompactTextString(m) }
func (*ProtoFlattenedSerializerT) ProtoMessage()    {}

func (m *ProtoFlattenedSerializerT) GetSerializerVersion() int32 {
	if m != nil && m.SerializerVersion != nil {
		return *m.SerializerVersion
	}
	return 0
}

func (m *ProtoFlattenedSerializerT) GetFieldsIndex() []int32 {
	if m != nil {
		return m.FieldsIndex
	}
	return nil
}

type CSVCMsg_FlattenedSerializer struct {
	Serializers      []*ProtoFlattenedSerializerT      `protobuf:"bytes,1,rep,name=serializers" json:"serializers,omitempty"`
	Symbols          []string                          `protobuf:"bytes,2,rep,name=symbols" json:"symbols,omitempty"`
	Fields           []*ProtoFlattenedSerializerFieldT `protobuf:"bytes,3,rep,name=fields" json:"fields,omitempty"`
	XXX_unrecognized []byte                            `json:"-"`
}

func (m *CSVCMsg_FlattenedSerializer) Reset()         { *m = CSVCMsg_FlattenedSerializer{} }
func (m *CSVCMsg_FlattenedSerializer) String() string { return proto.CompactTextString(m) }
func (*CSVCMsg_FlattenedSerializer) ProtoMessage()    {}

func (m *CSVCMsg_FlattenedSerializer) GetSerializers() []*ProtoFlattenedSerializerT {
	if m != nil {
		return m.Serializers
	}
	return nil
}

func (m *CSVCMsg_FlattenedSerializer) GetSymbols() []string {
	if m != nil {
		return m.Symbols
	}
	return nil
}

func (m *CSVCMsg_FlattenedSerializer) GetFields() []*ProtoFlattenedSerializerFieldT {
	if m != nil {
		return m.Fields
	}
	return nil
}
