// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package demo

import (
	"context"
	"io"
	"strconv"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/demo/demopb"
	"github.com/hax0r31337/demoinfocs2-lite/entity"
	"github.com/hax0r31337/demoinfocs2-lite/fieldpath"
	"github.com/hax0r31337/demoinfocs2-lite/gameevent"
	"github.com/hax0r31337/demoinfocs2-lite/sendtable"
	"github.com/hax0r31337/demoinfocs2-lite/stringtable"
	"github.com/hax0r31337/demoinfocs2-lite/support/bitreader"
	"github.com/hax0r31337/demoinfocs2-lite/support/logging"
)

// Embedded packet message identifiers.
const (
	svcServerInfo        = 40
	svcCreateStringTable = 44
	svcUpdateStringTable = 45
	svcPacketEntities    = 55

	geSource1LegacyGameEventList = 205
	geSource1LegacyGameEvent     = 207
)

// maxNetworkProtocol is the newest protocol revision the decoder has been
// validated against. Newer demos fail fast rather than desynchronize on an
// unknown wire change.
const maxNetworkProtocol = 14100

// defaultTickInterval holds until server info announces the real value.
const defaultTickInterval = 1.0 / 64.0

// Parser is one demo file's parse session. It owns every registry the
// decode touches; nothing is process-global, so independent sessions can
// run on separate goroutines.
type Parser struct {
	reader *Reader
	logger logging.L

	sendTables   *sendtable.Registry
	entities     *entity.State
	stringTables *stringtable.Manager
	gameEvents   *gameevent.Registry

	tick            int32
	tickInterval    float32
	mapName         string
	networkProtocol int32
	fileInfo        *demopb.CDemoFileInfo

	onStart []func(mapName string, networkProtocol int32)
	onTick  []func(tick int32)
	onEnd   []func()

	// pendingBindings holds polymorphic field bindings registered before
	// the schema arrives.
	pendingBindings [][2]string

	// scratch backs embedded message bodies within one packet command.
	scratch []byte
}

// NewParser builds a session over a frame reader.
func NewParser(reader *Reader, logger logging.L) *Parser {
	logger = logging.Must(logger)

	p := &Parser{
		reader:       reader,
		logger:       logger,
		sendTables:   sendtable.NewRegistry(),
		gameEvents:   gameevent.NewRegistry(logger),
		stringTables: stringtable.NewManager(logger),
		tick:         -1,
		tickInterval: defaultTickInterval,
	}
	p.entities = entity.NewState(p.sendTables, logger)

	// Baseline table entries key raw entity baselines by decimal class id.
	p.stringTables.OnEntry(func(table string, e *stringtable.Entry) {
		if table != stringtable.InstanceBaseline || e.Value == nil {
			return
		}
		classID, err := strconv.Atoi(e.Key)
		if err != nil {
			p.logger.Warnf("Baseline entry with non-numeric key %q.", e.Key)
			return
		}
		p.entities.SetBaseline(int32(classID), e.Value)
	})

	p.entities.AddListener(entity.Listener{
		Created:   func(*entity.Entity) { entityEvents.WithLabelValues("created").Inc() },
		Updated:   func(*entity.Entity, []fieldpath.Path) { entityEvents.WithLabelValues("updated").Inc() },
		Left:      func(*entity.Entity) { entityEvents.WithLabelValues("left").Inc() },
		Destroyed: func(*entity.Entity) { entityEvents.WithLabelValues("destroyed").Inc() },
	})

	return p
}

// SendTables returns the session's schema registry.
func (p *Parser) SendTables() *sendtable.Registry { return p.sendTables }

// Entities returns the session's entity table.
func (p *Parser) Entities() *entity.State { return p.entities }

// StringTables returns the session's string tables.
func (p *Parser) StringTables() *stringtable.Manager { return p.stringTables }

// GameEvents returns the session's game-event registry.
func (p *Parser) GameEvents() *gameevent.Registry { return p.gameEvents }

// Tick returns the current demo tick.
func (p *Parser) Tick() int32 { return p.tick }

// TickInterval returns the seconds-per-tick announced by server info.
func (p *Parser) TickInterval() float32 { return p.tickInterval }

// MapName returns the map name from the file header, once seen.
func (p *Parser) MapName() string { return p.mapName }

// NetworkProtocol returns the protocol revision from the file header.
func (p *Parser) NetworkProtocol() int32 { return p.networkProtocol }

// FileInfo returns the demo's summary frame, if one has been read.
func (p *Parser) FileInfo() *demopb.CDemoFileInfo { return p.fileInfo }

// Subscribe registers entity field subscriptions; see entity.State.
func (p *Parser) Subscribe(className string, fields ...string) {
	p.entities.Subscribe(className, fields...)
}

// BindPolymorphic forwards a polymorphic field binding to the schema
// registry once it is built. Bindings registered before send tables arrive
// are applied when they do.
func (p *Parser) BindPolymorphic(serializerName, fieldName string) {
	p.pendingBindings = append(p.pendingBindings, [2]string{serializerName, fieldName})
}

// HandleGameEvent registers a game-event handler; see gameevent.Registry.
func (p *Parser) HandleGameEvent(name string, h gameevent.Handler) error {
	return p.gameEvents.Handle(name, h)
}

// AddEntityListener attaches entity lifecycle callbacks.
func (p *Parser) AddEntityListener(l entity.Listener) {
	p.entities.AddListener(l)
}

// OnDemoStart registers a callback for the file header frame.
func (p *Parser) OnDemoStart(fn func(mapName string, networkProtocol int32)) {
	p.onStart = append(p.onStart, fn)
}

// OnTick registers a callback invoked when the demo tick advances, before
// the new tick's commands are dispatched.
func (p *Parser) OnTick(fn func(tick int32)) {
	p.onTick = append(p.onTick, fn)
}

// OnDemoEnd registers a callback for the Stop frame.
func (p *Parser) OnDemoEnd(fn func()) {
	p.onEnd = append(p.onEnd, fn)
}

// ReadFrame processes the next command. It returns false once the Stop
// frame has been handled.
func (p *Parser) ReadFrame() (bool, error) {
	var c Command
	if err := p.reader.ReadCommand(&c); err != nil {
		return false, err
	}
	defer c.Release()

	if c.Tick != p.tick {
		for _, fn := range p.onTick {
			fn(c.Tick)
		}
		p.tick = c.Tick
	}

	if c.Cmd == CmdStop {
		for _, fn := range p.onEnd {
			fn()
		}
		return false, nil
	}

	if err := p.handleCommand(&c); err != nil {
		return false, err
	}
	return true, nil
}

// ParseAll pulls frames until the Stop frame or the end of a truncated
// stream. Fatal decode failures are returned as a *ParseError locating the
// offending command.
func (p *Parser) ParseAll(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		more, err := p.ReadFrame()
		switch {
		case errors.Cause(err) == io.EOF:
			return nil
		case err != nil:
			parseErrors.Inc()
			return &ParseError{
				Tick:         p.tick,
				CommandIndex: p.reader.Commands() - 1,
				Err:          err,
			}
		case !more:
			return nil
		}
	}
}

func (p *Parser) handleCommand(c *Command) error {
	switch c.Cmd {
	case CmdFileHeader:
		return p.handleFileHeader(c.Body)

	case CmdFileInfo:
		info := &demopb.CDemoFileInfo{}
		if err := proto.Unmarshal(c.Body, info); err != nil {
			return errors.Wrap(err, "file info")
		}
		p.fileInfo = info
		return nil

	case CmdSendTables:
		return p.handleSendTables(c.Body)

	case CmdClassInfo:
		msg := &demopb.CDemoClassInfo{}
		if err := proto.Unmarshal(c.Body, msg); err != nil {
			return errors.Wrap(err, "class info")
		}
		return p.sendTables.ApplyClassInfo(msg)

	case CmdStringTables:
		msg := &demopb.CDemoStringTables{}
		if err := proto.Unmarshal(c.Body, msg); err != nil {
			return errors.Wrap(err, "string table dump")
		}
		return p.applyStringTableDump(msg)

	case CmdPacket, CmdSignonPacket:
		msg := &demopb.CDemoPacket{}
		if err := proto.Unmarshal(c.Body, msg); err != nil {
			return errors.Wrap(err, "packet")
		}
		return p.handlePacket(msg.GetData())

	case CmdFullPacket:
		msg := &demopb.CDemoFullPacket{}
		if err := proto.Unmarshal(c.Body, msg); err != nil {
			return errors.Wrap(err, "full packet")
		}
		if st := msg.GetStringTable(); st != nil {
			if err := p.applyStringTableDump(st); err != nil {
				return err
			}
		}
		if pkt := msg.GetPacket(); pkt != nil {
			return p.handlePacket(pkt.GetData())
		}
		return nil

	case CmdSyncTick, CmdConsoleCmd, CmdUserCmd, CmdCustomData:
		return nil

	default:
		p.logger.Debugf("Skipping unknown demo command %d.", c.Cmd)
		return nil
	}
}

func (p *Parser) handleFileHeader(body []byte) error {
	msg := &demopb.CDemoFileHeader{}
	if err := proto.Unmarshal(body, msg); err != nil {
		return errors.Wrap(err, "file header")
	}
	if msg.MapName == nil {
		return errors.New("demo: file header without a map name")
	}
	if msg.NetworkProtocol == nil {
		return errors.New("demo: file header without a network protocol")
	}

	p.mapName = msg.GetMapName()
	p.networkProtocol = msg.GetNetworkProtocol()
	if p.networkProtocol > maxNetworkProtocol {
		return errors.Wrapf(ErrUnsupportedVersion, "network protocol %d", p.networkProtocol)
	}

	for _, fn := range p.onStart {
		fn(p.mapName, p.networkProtocol)
	}
	return nil
}

// handleSendTables builds the schema. The command body is a varint length
// prefix followed by the flattened serializer message.
func (p *Parser) handleSendTables(body []byte) error {
	msg := &demopb.CDemoSendTables{}
	if err := proto.Unmarshal(body, msg); err != nil {
		return errors.Wrap(err, "send tables")
	}

	data := msg.GetData()
	r := bitreader.New(data)
	size, err := r.ReadVarUint32()
	if err != nil {
		return errors.Wrap(err, "send tables length prefix")
	}
	offset := r.Pos() >> 3
	if offset+uint64(size) > uint64(len(data)) {
		return errors.Errorf("demo: send tables length %d overruns %d-byte body", size, len(data))
	}

	flattened := &demopb.CSVCMsg_FlattenedSerializer{}
	if err := proto.Unmarshal(data[offset:offset+uint64(size)], flattened); err != nil {
		return errors.Wrap(err, "flattened serializer")
	}
	if err := p.sendTables.Build(flattened); err != nil {
		return err
	}

	for _, b := range p.pendingBindings {
		if err := p.sendTables.BindPolymorphic(b[0], b[1]); err != nil {
			return err
		}
	}
	p.pendingBindings = nil

	// Decoded baselines and subscriptions are schema-relative.
	p.entities.InvalidateBaselines()
	return p.entities.ResolveSubscriptions()
}

func (p *Parser) applyStringTableDump(msg *demopb.CDemoStringTables) error {
	err := p.stringTables.ApplyFullDump(msg, p.tick)
	stringTableDropped.Set(float64(p.stringTables.DroppedEntries()))
	return err
}

// handlePacket demultiplexes the messages embedded in a packet command:
// a ubitvar message type and varint size per message, with unknown types
// skipped by size.
func (p *Parser) handlePacket(data []byte) error {
	r := bitreader.New(data)

	for r.BitsRemaining() >= 8 {
		msgType, err := r.ReadUBitVar()
		if err != nil {
			return errors.Wrap(err, "embedded message type")
		}
		size, err := r.ReadVarUint32()
		if err != nil {
			return errors.Wrap(err, "embedded message size")
		}

		if uint64(size)*8 > r.BitsRemaining() {
			return errors.Errorf("demo: embedded message of %d bytes overruns packet", size)
		}
		if uint32(cap(p.scratch)) < size {
			p.scratch = make([]byte, size)
		}
		body := p.scratch[:size]
		if err := r.ReadBytes(body); err != nil {
			return errors.Wrap(err, "embedded message body")
		}

		handled, err := p.handleEmbedded(msgType, body)
		if err != nil {
			return errors.Wrapf(err, "embedded message %d", msgType)
		}
		if handled {
			embeddedMessages.WithLabelValues("handled").Inc()
		} else {
			embeddedMessages.WithLabelValues("skipped").Inc()
		}
	}
	return nil
}

func (p *Parser) handleEmbedded(msgType uint32, body []byte) (bool, error) {
	switch msgType {
	case svcServerInfo:
		msg := &demopb.CSVCMsg_ServerInfo{}
		if err := proto.Unmarshal(body, msg); err != nil {
			return true, err
		}
		return true, p.handleServerInfo(msg)

	case svcCreateStringTable:
		msg := &demopb.CSVCMsg_CreateStringTable{}
		if err := proto.Unmarshal(body, msg); err != nil {
			return true, err
		}
		err := p.stringTables.Create(msg, p.tick)
		stringTableDropped.Set(float64(p.stringTables.DroppedEntries()))
		return true, err

	case svcUpdateStringTable:
		msg := &demopb.CSVCMsg_UpdateStringTable{}
		if err := proto.Unmarshal(body, msg); err != nil {
			return true, err
		}
		err := p.stringTables.Update(msg, p.tick)
		stringTableDropped.Set(float64(p.stringTables.DroppedEntries()))
		return true, err

	case svcPacketEntities:
		msg := &demopb.CSVCMsg_PacketEntities{}
		if err := proto.Unmarshal(body, msg); err != nil {
			return true, err
		}
		return true, p.entities.ApplyPacket(msg)

	case geSource1LegacyGameEventList:
		msg := &demopb.CMsgSource1LegacyGameEventList{}
		if err := proto.Unmarshal(body, msg); err != nil {
			return true, err
		}
		return true, p.gameEvents.ApplyDescriptorList(msg)

	case geSource1LegacyGameEvent:
		msg := &demopb.CMsgSource1LegacyGameEvent{}
		if err := proto.Unmarshal(body, msg); err != nil {
			return true, err
		}
		gameEventsDecoded.Inc()
		return true, p.gameEvents.Dispatch(msg)

	default:
		return false, nil
	}
}

func (p *Parser) handleServerInfo(msg *demopb.CSVCMsg_ServerInfo) error {
	if msg.TickInterval == nil {
		return errors.New("demo: server info without a tick interval")
	}
	if msg.MaxClasses == nil {
		return errors.New("demo: server info without a max class count")
	}

	p.tickInterval = msg.GetTickInterval()
	p.sendTables.SetMaxClasses(msg.GetMaxClasses())
	return nil
}
