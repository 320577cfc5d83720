// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package demostat defines the logic for the "demostat" command-line app.
//
// demostat parses a single demo file offline and prints a summary of what
// it saw: frame and tick counts, entity lifecycle totals, and per-event
// counts. A YAML profile file selects which entity fields to subscribe to
// and which game events to count.
//
// This demonstrates how to wire a demo.Parser: register subscriptions and
// event handlers before parsing, then drive the file to completion with
// ParseAll.
package demostat

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/hax0r31337/demoinfocs2-lite/demo"
	"github.com/hax0r31337/demoinfocs2-lite/entity"
	"github.com/hax0r31337/demoinfocs2-lite/fieldpath"
	"github.com/hax0r31337/demoinfocs2-lite/gameevent"
)

var (
	demoPath    = pflag.String("demo", "", "Path to the demo file to parse.")
	profilePath = pflag.String("profile", "", "Path to a YAML profile of subscriptions and events.")
	verbose     = pflag.BoolP("verbose", "v", false, "Emit debug-level logging.")
)

// Profile selects what demostat observes while parsing.
type Profile struct {
	// Subscriptions maps entity class names to the fields to materialize.
	Subscriptions map[string][]string `yaml:"subscriptions"`

	// Events lists the game event names to count.
	Events []string `yaml:"events"`

	// Bindings maps serializer names to their polymorphic field names, so
	// those fields decode against their serializer's variant table.
	Bindings map[string][]string `yaml:"bindings"`
}

func loadProfile(path string) (*Profile, error) {
	var p Profile
	if path == "" {
		return &p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading profile")
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "parsing profile YAML")
	}
	return &p, nil
}

// stats accumulates counters over one parse.
type stats struct {
	ticks     int64
	created   int64
	updated   int64
	destroyed int64
	events    map[string]int64
}

// Main is the main entry point.
func Main() {
	pflag.Parse()

	cfg := zap.NewDevelopmentConfig()
	if !*verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	zl, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create logger: %s\n", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	if *demoPath == "" {
		logger.Error("missing required flag: --demo")
		pflag.Usage()
		os.Exit(2)
	}

	profile, err := loadProfile(*profilePath)
	if err != nil {
		logger.Errorf("Could not load profile %q: %s", *profilePath, err)
		os.Exit(1)
	}

	demo.RegisterMonitoring(prometheus.DefaultRegisterer)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger, profile); err != nil {
		logger.Errorf("Parse failed: %s", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.SugaredLogger, profile *Profile) error {
	f, err := os.Open(*demoPath)
	if err != nil {
		return errors.Wrap(err, "opening demo")
	}
	defer f.Close()

	r, err := demo.NewReader(f)
	if err != nil {
		return err
	}
	p := demo.NewParser(r, logger)

	for className, fields := range profile.Subscriptions {
		p.Subscribe(className, fields...)
	}
	for serializer, fields := range profile.Bindings {
		for _, field := range fields {
			p.BindPolymorphic(serializer, field)
		}
	}

	st := &stats{events: make(map[string]int64)}
	for _, name := range profile.Events {
		name := name
		err := p.HandleGameEvent(name, func(e *gameevent.Event) error {
			st.events[name]++
			logger.Debugf("Event %s (%d keys) at tick %d", e.Name(), e.Len(), p.Tick())
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "registering handler for %q", name)
		}
	}

	p.AddEntityListener(entity.Listener{
		Created: func(e *entity.Entity) {
			st.created++
			logger.Debugf("Entity %d (%s) created", e.Index(), e.ClassName())
		},
		Updated: func(e *entity.Entity, changed []fieldpath.Path) {
			st.updated++
		},
		Destroyed: func(e *entity.Entity) {
			st.destroyed++
		},
	})

	p.OnDemoStart(func(mapName string, networkProtocol int32) {
		logger.Infof("Demo started: map %s, network protocol %d", mapName, networkProtocol)
	})
	p.OnTick(func(tick int32) { st.ticks++ })

	start := time.Now()
	if err := p.ParseAll(ctx); err != nil {
		return err
	}
	elapsed := time.Since(start)

	printSummary(p, r, st, elapsed)
	return nil
}

func printSummary(p *demo.Parser, r *demo.Reader, st *stats, elapsed time.Duration) {
	fmt.Printf("map:             %s\n", p.MapName())
	fmt.Printf("protocol:        %d\n", p.NetworkProtocol())
	fmt.Printf("tick interval:   %g\n", p.TickInterval())
	fmt.Printf("frames:          %d\n", r.Commands())
	fmt.Printf("ticks:           %d (last tick %d)\n", st.ticks, p.Tick())
	fmt.Printf("entities:        %d created, %d updated, %d destroyed\n",
		st.created, st.updated, st.destroyed)
	fmt.Printf("dropped strings: %d\n", p.StringTables().DroppedEntries())
	fmt.Printf("elapsed:         %s\n", elapsed)

	if len(st.events) > 0 {
		names := make([]string, 0, len(st.events))
		for name := range st.events {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("events:\n")
		for _, name := range names {
			fmt.Printf("  %-24s %d\n", name, st.events[name])
		}
	}
}
