// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package demopb declares the protobuf messages embedded in demo files.
//
// The messages are hand-maintained rather than generated: the demo format
// uses a small, stable subset of the game's message schema, and carrying
// the full generated tree for it would dwarf the rest of the library. Field
// numbers and wire types must match the published schema exactly; proto2
// presence semantics are kept by using pointer scalars.
package demopb

import (
	proto "github.com/golang/protobuf/proto"
)

// Top-level demo commands.
type CDemoFileHeader struct {
	DemoFileStamp      *string `protobuf:"bytes,1,opt,name=demo_file_stamp,json=demoFileStamp" json:"demo_file_stamp,omitempty"`
	NetworkProtocol    *int32  `protobuf:"varint,2,opt,name=network_protocol,json=networkProtocol" json:"network_protocol,omitempty"`
	ServerName         *string `protobuf:"bytes,3,opt,name=server_name,json=serverName" json:"server_name,omitempty"`
	ClientName         *string `protobuf:"bytes,4,opt,name=client_name,json=clientName" json:"client_name,omitempty"`
	MapName            *string `protobuf:"bytes,5,opt,name=map_name,json=mapName" json:"map_name,omitempty"`
	GameDirectory      *string `protobuf:"bytes,6,opt,name=game_directory,json=gameDirectory" json:"game_directory,omitempty"`
	FullpacketsVersion *int32  `protobuf:"varint,7,opt,name=fullpackets_version,json=fullpacketsVersion" json:"fullpackets_version,omitempty"`
	DemoVersionName    *string `protobuf:"bytes,11,opt,name=demo_version_name,json=demoVersionName" json:"demo_version_name,omitempty"`
	DemoVersionGuid    *string `protobuf:"bytes,12,opt,name=demo_version_guid,json=demoVersionGuid" json:"demo_version_guid,omitempty"`
	BuildNum           *int32  `protobuf:"varint,13,opt,name=build_num,json=buildNum" json:"build_num,omitempty"`
	Game               *string `protobuf:"bytes,14,opt,name=game" json:"game,omitempty"`
	ServerStartTick    *int32  `protobuf:"varint,15,opt,name=server_start_tick,json=serverStartTick" json:"server_start_tick,omitempty"`
	XXX_unrecognized   []byte  `json:"-"`
}

func (m *CDemoFileHeader) Reset()         { *m = CDemoFileHeader{} }
func (m *CDemoFileHeader) String() string { return proto.CompactTextString(m) }
func (*CDemoFileHeader) ProtoMessage()    {}

func (m *CDemoFileHeader) GetDemoFileStamp() string {
	if m != nil && m.DemoFileStamp != nil {
		return *m.DemoFileStamp
	}
	return ""
}

func (m *CDemoFileHeader) GetNetworkProtocol() int32 {
	if m != nil && m.NetworkProtocol != nil {
		return *m.NetworkProtocol
	}
	return 0
}

func (m *CDemoFileHeader) GetServerName() string {
	if m != nil && m.ServerName != nil {
		return *m.ServerName
	}
	return ""
}

func (m *CDemoFileHeader) GetMapName() string {
	if m != nil && m.MapName != nil {
		return *m.MapName
	}
	return ""
}

func (m *CDemoFileHeader) GetGame() string {
	if m != nil && m.Game != nil {
		return *m.Game
	}
	return ""
}

type CDemoFileInfo struct {
	PlaybackTime     *float32 `protobuf:"fixed32,1,opt,name=playback_time,json=playbackTime" json:"playback_time,omitempty"`
	PlaybackTicks    *int32   `protobuf:"varint,2,opt,name=playback_ticks,json=playbackTicks" json:"playback_ticks,omitempty"`
	PlaybackFrames   *int32   `protobuf:"varint,3,opt,name=playback_frames,json=playbackFrames" json:"playback_frames,omitempty"`
	XXX_unrecognized []byte   `json:"-"`
}

func (m *CDemoFileInfo) Reset()         { *m = CDemoFileInfo{} }
func (m *CDemoFileInfo) String() string { return proto.CompactTextString(m) }
func (*CDemoFileInfo) ProtoMessage()    {}

func (m *CDemoFileInfo) GetPlaybackTime() float32 {
	if m != nil && m.PlaybackTime != nil {
		return *m.PlaybackTime
	}
	return 0
}

func (m *CDemoFileInfo) GetPlaybackTicks() int32 {
	if m != nil && m.PlaybackTicks != nil {
		return *m.PlaybackTicks
	}
	return 0
}

// CDemoPacket carries a concatenation of embedded network messages.
type CDemoPacket struct {
	Data             []byte `protobuf:"bytes,3,opt,name=data" json:"data,omitempty"`
	XXX_unrecognized []byte `json:"-"`
}

func (m *CDemoPacket) Reset()         { *m = CDemoPacket{} }
func (m *CDemoPacket) String() string { return proto.CompactTextString(m) }
func (*CDemoPacket) ProtoMessage()    {}

func (m *CDemoPacket) GetData() []byte {
	if m != nil {
		return m.Data
	}
	return nil
}

type CDemoFullPacket struct {
	StringTable      *CDemoStringTables `protobuf:"bytes,1,opt,name=string_table,json=stringTable" json:"string_table,omitempty"`
	Packet           *CDemoPacket       `protobuf:"bytes,2,opt,name=packet" json:"packet,omitempty"`
	XXX_unrecognized []byte             `json:"-"`
}

func (m *CDemoFullPacket) Reset()         { *m = CDemoFullPacket{} }
func (m *CDemoFullPacket) String() string { return proto.CompactTextString(m) }
func (*CDemoFullPacket) ProtoMessage()    {}

func (m *CDemoFullPacket) GetStringTable() *CDemoStringTables {
	if m != nil {
		return m.StringTable
	}
	return nil
}

func (m *CDemoFullPacket) GetPacket() *CDemoPacket {
	if m != nil {
		return m.Packet
	}
	return nil
}

// CDemoSendTables wraps the flattened serializer block: a varint length
// prefix followed by a CSVCMsg_FlattenedSerializer.
type CDemoSendTables struct {
	Data             []byte `protobuf:"bytes,1,opt,name=data" json:"data,omitempty"`
	XXX_unrecognized []byte `json:"-"`
}

func (m *CDemoSendTables) Reset()         { *m = CDemoSendTables{} }
func (m *CDemoSendTables) String() string { return proto.CompactTextString(m) }
func (*CDemoSendTables) ProtoMessage()    {}

func (m *CDemoSendTables) GetData() []byte {
	if m != nil {
		return m.Data
	}
	return nil
}

type CDemoClassInfoClassT struct {
	ClassId          *int32  `protobuf:"varint,1,opt,name=class_id,json=classId" json:"class_id,omitempty"`
	NetworkName      *string `protobuf:"bytes,2,opt,name=network_name,json=networkName" json:"network_name,omitempty"`
	TableName        *string `protobuf:"bytes,3,opt,name=table_name,json=tableName" json:"table_name,omitempty"`
	XXX_unrecognized []byte  `json:"-"`
}

func (m *CDemoClassInfoClassT) Reset()         { *m = CDemoClassInfoClassT{} }
func (m *CDemoClassInfoClassT) String() string { return proto.CompactTextString(m) }
func (*CDemoClassInfoClassT) ProtoMessage()    {}

func (m *CDemoClassInfoClassT) GetClassId() int32 {
	if m != nil && m.ClassId != nil {
		return *m.ClassId
	}
	return 0
}

func (m *CDemoClassInfoClassT) GetNetworkName() string {
	if m != nil && m.NetworkName != nil {
		return *m.NetworkName
	}
	return ""
}

type CDemoClassInfo struct {
	Classes          []*CDemoClassInfoClassT `protobuf:"bytes,1,rep,name=classes" json:"classes,omitempty"`
	XXX_unrecognized []byte                  `json:"-"`
}

func (m *CDemoClassInfo) Reset()         { *m = CDemoClassInfo{} }
func (m *CDemoClassInfo) String() string { return proto.CompactTextString(m) }
func (*CDemoClassInfo) ProtoMessage()    {}

func (m *CDemoClassInfo) GetClasses() []*CDemoClassInfoClassT {
	if m != nil {
		return m.Classes
	}
	return nil
}

type CDemoStringTablesItemsT struct {
	Str              *string `protobuf:"bytes,1,opt,name=str" json:"str,omitempty"`
	Data             []byte  `protobuf:"bytes,2,opt,name=data" json:"data,omitempty"`
	XXX_unrecognized []byte  `json:"-"`
}

func (m *CDemoStringTablesItemsT) Reset()         { *m = CDemoStringTablesItemsT{} }
func (m *CDemoStringTablesItemsT) String() string { return proto.CompactTextString(m) }
func (*CDemoStringTablesItemsT) ProtoMessage()    {}

func (m *CDemoStringTablesItemsT) GetStr() string {
	if m != nil && m.Str != nil {
		return *m.Str
	}
	return ""
}

func (m *CDemoStringTablesItemsT) GetData() []byte {
	if m != nil {
		return m.Data
	}
	return nil
}

type CDemoStringTablesTableT struct {
	TableName        *string                    `protobuf:"bytes,1,opt,name=table_name,json=tableName" json:"table_name,omitempty"`
	Items            []*CDemoStringTablesItemsT `protobuf:"bytes,2,rep,name=items" json:"items,omitempty"`
	ItemsClientside  []*CDemoStringTablesItemsT `protobuf:"bytes,3,rep,name=items_clientside,json=itemsClientside" json:"items_clientside,omitempty"`
	TableFlags       *int32                     `protobuf:"varint,4,opt,name=table_flags,json=tableFlags" json:"table_flags,omitempty"`
	XXX_unrecognized []byte                     `json:"-"`
}

func (m *CDemoStringTablesTableT) Reset()         { *m = CDemoStringTablesTableT{} }
func (m *CDemoStringTablesTableT) String() string { return proto.CompactTextString(m) }
func (*CDemoStringTablesTableT) ProtoMessage()    {}

func (m *CDemoStringTablesTableT) GetTableName() string {
	if m != nil && m.TableName != nil {
		return *m.TableName
	}
	return ""
}

func (m *CDemoStringTablesTableT) GetItems() []*CDemoStringTablesItemsT {
	if m != nil {
		return m.Items
	}
	return nil
}

type CDemoStringTables struct {
	Tables           []*CDemoStringTablesTableT `protobuf:"bytes,1,rep,name=tables" json:"tables,omitempty"`
	XXX_unrecognized []byte                     `json:"-"`
}

func (m *CDemoStringTables) Reset()         { *m = CDemoStringTables{} }
func (m *CDemoStringTables) String() string { return proto.CompactTextString(m) }
func (*CDemoStringTables) ProtoMessage()    {}

func (m *CDemoStringTables) GetTables() []*CDemoStringTablesTableT {
	if m != nil {
		return m.Tables
	}
	return nil
}

type CDemoConsoleCmd struct {
	Cmdstring        *string `protobuf:"bytes,1,opt,name=cmdstring" json:"cmdstring,omitempty"`
	XXX_unrecognized []byte  `json:"-"`
}

func (m *CDemoConsoleCmd) Reset()         { *m = CDemoConsoleCmd{} }
func (m *CDemoConsoleCmd) String() string { return proto.CompactTextString(m) }
func (*CDemoConsoleCmd) ProtoMessage()    {}

func (m *CDemoConsoleCmd) GetCmdstring() string {
	if m != nil && m.Cmdstring != nil {
		return *m.Cmdstring
	}
	return ""
}
