// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package demopb

import (
	proto "github.com/golang/protobuf/proto"
)

type CMsgSource1LegacyGameEventListKeyT struct {
	Type             *int32  `protobuf:"varint,1,opt,name=type" json:"type,omitempty"`
	Name             *string `protobuf:"bytes,2,opt,name=name" json:"name,omitempty"`
	XXX_unrecognized []byte  `json:"-"`
}

func (m *CMsgSource1LegacyGameEventListKeyT) Reset()         { *m = CMsgSource1LegacyGameEventListKeyT{} }
func (m *CMsgSource1LegacyGameEventListKeyT) String() string { return proto.CompactTextString(m) }
func (*CMsgSource1LegacyGameEventListKeyT) ProtoMessage()    {}

func (m *CMsgSource1LegacyGameEventListKeyT) GetType() int32 {
	if m != nil && m.Type != nil {
		return *m.Type
	}
	return 0
}

func (m *CMsgSource1LegacyGameEventListKeyT) GetName() string {
	if m != nil && m.Name != nil {
		return *m.Name
	}
	return ""
}

type CMsgSource1LegacyGameEventListDescriptorT struct {
	Eventid          *int32                                `protobuf:"varint,1,opt,name=eventid" json:"eventid,omitempty"`
	Name             *string                               `protobuf:"bytes,2,opt,name=name" json:"name,omitempty"`
	Keys             []*CMsgSource1LegacyGameEventListKeyT `protobuf:"bytes,3,rep,name=keys" json:"keys,omitempty"`
	XXX_unrecognized []byte                                `json:"-"`
}

func (m *CMsgSource1LegacyGameEventListDescriptorT) Reset() {
	*m = CMsgSource1LegacyGameEventListDescriptorT{}
}
func (m *CMsgSource1LegacyGameEventListDescriptorT) String() string {
	return proto.CompactTextString(m)
}
func (*CMsgSource1LegacyGameEventListDescriptorT) ProtoMessage() {}

func (m *CMsgSource1LegacyGameEventListDescriptorT) GetEventid() int32 {
	if m != nil && m.Eventid != nil {
		return *m.Eventid
	}
	return 0
}

func (m *CMsgSource1LegacyGameEventListDescriptorT) GetName() string {
	if m != nil && m.Name != nil {
		return *m.Name
	}
	return ""
}

func (m *CMsgSource1LegacyGameEventListDescriptorT) GetKeys() []*CMsgSource1LegacyGameEventListKeyT {
	if m != nil {
		return m.Keys
	}
	return nil
}

type CMsgSource1LegacyGameEventList struct {
	Descriptors      []*CMsgSource1LegacyGameEventListDescriptorT `protobuf:"bytes,1,rep,name=descriptors" json:"descriptors,omitempty"`
	XXX_unrecognized []byte                                       `json:"-"`
}

func (m *CMsgSource1LegacyGameEventList) Reset()         { *m = CMsgSource1LegacyGameEventList{} }
func (m *CMsgSource1LegacyGameEventList) String() string { return proto.CompactTextString(m) }
func (*CMsgSource1LegacyGameEventList) ProtoMessage()    {}

func (m *CMsgSource1LegacyGameEventList) GetDescriptors() []*CMsgSource1LegacyGameEventListDescriptorT {
	if m != nil {
		return m.Descriptors
	}
	return nil
}

type CMsgSource1LegacyGameEventKeyT struct {
	Type             *int32   `protobuf:"varint,1,opt,name=type" json:"type,omitempty"`
	ValString        *string  `protobuf:"bytes,2,opt,name=val_string,json=valString" json:"val_string,omitempty"`
	ValFloat         *float32 `protobuf:"fixed32,3,opt,name=val_float,json=valFloat" json:"val_float,omitempty"`
	ValLong          *int32   `protobuf:"varint,4,opt,name=val_long,json=valLong" json:"val_long,omitempty"`
	ValShort         *int32   `protobuf:"varint,5,opt,name=val_short,json=valShort" json:"val_short,omitempty"`
	ValByte          *int32   `protobuf:"varint,6,opt,name=val_byte,json=valByte" json:"val_byte,omitempty"`
	ValBool          *bool    `protobuf:"varint,7,opt,name=val_bool,json=valBool" json:"val_bool,omitempty"`
	ValUint64        *uint64  `protobuf:"varint,8,opt,name=val_uint64,json=valUint64" json:"val_uint64,omitempty"`
	XXX_unrecognized []byte   `json:"-"`
}

func (m *CMsgSource1LegacyGameEventKeyT) Reset()         { *m = CMsgSource1LegacyGameEventKeyT{} }
func (m *CMsgSource1LegacyGameEventKeyT) String() string { return proto.CompactTextString(m) }
func (*CMsgSource1LegacyGameEventKeyT) ProtoMessage()    {}

func (m *CMsgSource1LegacyGameEventKeyT) GetType() int32 {
	if m != nil && m.Type != nil {
		return *m.Type
	}
	return 0
}

func (m *CMsgSource1LegacyGameEventKeyT) GetValString() string {
	if m != nil && m.ValString != nil {
		return *m.ValString
	}
	return ""
}

func (m *CMsgSource1LegacyGameEventKeyT) GetValFloat() float32 {
	if m != nil && m.ValFloat != nil {
		return *m.ValFloat
	}
	return 0
}

func (m *CMsgSource1LegacyGameEventKeyT) GetValLong() int32 {
	if m != nil && m.ValLong != nil {
		return *m.ValLong
	}
	return 0
}

func (m *CMsgSource1LegacyGameEventKeyT) GetValShort() int32 {
	if m != nil && m.ValShort != nil {
		return *m.ValShort
	}
	return 0
}

func (m *CMsgSource1LegacyGameEventKeyT) GetValByte() int32 {
	if m != nil && m.ValByte != nil {
		return *m.ValByte
	}
	return 0
}

func (m *CMsgSource1LegacyGameEventKeyT) GetValBool() bool {
	if m != nil && m.ValBool != nil {
		return *m.ValBool
	}
	return false
}

func (m *CMsgSource1LegacyGameEventKeyT) GetValUint64() uint64 {
	if m != nil && m.ValUint64 != nil {
		return *m.ValUint64
	}
	return 0
}

type CMsgSource1LegacyGameEvent struct {
	EventName        *string                           `protobuf:"bytes,1,opt,name=event_name,json=eventName" json:"event_name,omitempty"`
	Eventid          *int32                            `protobuf:"varint,2,opt,name=eventid" json:"eventid,omitempty"`
	Keys             []*CMsgSource1LegacyGameEventKeyT `protobuf:"bytes,3,rep,name=keys" json:"keys,omitempty"`
	XXX_unrecognized []byte                            `json:"-"`
}

func (m *CMsgSource1LegacyGameEvent) Reset()         { *m = CMsgSource1LegacyGameEvent{} }
func (m *CMsgSource1LegacyGameEvent) String() string { return proto.CompactTextString(m) }
func (*CMsgSource1LegacyGameEvent) ProtoMessage()    {}

func (m *CMsgSource1LegacyGameEvent) GetEventName() string {
	if m != nil && m.EventName != nil {
		return *m.EventName
	}
	return ""
}

func (m *CMsgSource1LegacyGameEvent) GetEventid() int32 {
	if m != nil && m.Eventid != nil {
		return *m.Eventid
	}
	return 0
}

func (m *CMsgSource1LegacyGameEvent) GetKeys() []*CMsgSource1LegacyGameEventKeyT {
	if m != nil {
		return m.Keys
	}
	return nil
}
