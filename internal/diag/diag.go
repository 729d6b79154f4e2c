// Package diag provides the three-stream diagnostic logger shared by the
// map, query and clearance packages: ops (actionable warnings), diag
// (day-to-day tuning context) and trace (high-frequency per-region/per-voxel
// telemetry). Each stream is independently configurable and silent by
// default.
package diag

import (
	"io"
	"log"
)

var (
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures the three logging streams. Pass nil for any
// writer to disable that stream.
func SetLogWriters(ops, diagW, trace io.Writer) {
	opsLogger = newLogger("[ohm] ", ops)
	diagLogger = newLogger("[ohm] ", diagW)
	traceLogger = newLogger("[ohm] ", trace)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf reports something an operator should look at: a GPU build falling
// back to CPU, a store hitting a capacity limit, anything that changes
// what the map can do rather than just how fast it does it.
func Opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// Diagf carries the tuning-and-shape context a developer wants when
// something looks off but isn't broken: how many regions got processed,
// how long a pass took.
func Diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}

// Tracef is for the volume nobody wants on by default: a line per region or
// per voxel, useful only while chasing a specific bug.
func Tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
