// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package demo

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCorruptFraming is returned when the file header or a frame's envelope
// is malformed: bad magic, or a size field overrunning the source.
var ErrCorruptFraming = errors.New("demo: corrupt file framing")

// ErrUnsupportedVersion is returned when the file header declares a network
// protocol newer than this package has been validated against.
var ErrUnsupportedVersion = errors.New("demo: unsupported network protocol")

// ParseError locates a fatal decode failure within the demo.
type ParseError struct {
	// Tick is the demo tick of the failing command.
	Tick int32
	// CommandIndex is the ordinal of the failing command, counted from zero.
	CommandIndex int64

	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("demo: command %d (tick %d): %v", e.CommandIndex, e.Tick, e.Err)
}

// Cause returns the underlying error, compatible with errors.Cause.
func (e *ParseError) Cause() error { return e.Err }
