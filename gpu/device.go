// Package gpu models the process-wide GPU device handle and refcounted
// program references that clearance evaluation optionally builds against.
// No real device or kernel compilation happens here: Device carries a
// pluggable Builder so callers can exercise the build/fallback lifecycle
// deterministically without a physical GPU.
package gpu

import (
	"fmt"
	"sync"
)

// Builder compiles or loads a named program for a device. Returns an
// opaque handle on success.
type Builder func(device *Device, name string, source Source) (interface{}, error)

// Source describes where a program's source comes from.
type Source struct {
	Kind SourceKind
	Path string // used when Kind == SourceFile
	Text string // used when Kind == SourceInline
}

// SourceKind distinguishes file-backed from inline program sources,
// mirroring the two build modes a GPU program reference can be constructed
// from.
type SourceKind int

const (
	SourceFile SourceKind = iota
	SourceInline
)

// Device is a process-wide handle representing the selected compute
// device. It is safe for concurrent use once acquired.
type Device struct {
	Name    string
	Builder Builder
}

var (
	deviceOnce sync.Once
	device     *Device
	deviceMu   sync.Mutex
)

// defaultBuilder always fails: without a real backend wired in, program
// builds fall back to CPU evaluation, which is the only path this module
// implements end to end.
func defaultBuilder(_ *Device, name string, _ Source) (interface{}, error) {
	return nil, fmt.Errorf("gpu: no backend available to build program %q", name)
}

// AcquireDevice returns the process-wide device handle, creating it with
// the default (always-failing) builder on first call. Safe to call from
// multiple goroutines; only the first call's initialisation runs.
func AcquireDevice() *Device {
	deviceOnce.Do(func() {
		device = &Device{Name: "cpu-fallback", Builder: defaultBuilder}
	})
	return device
}

// SetBuilder overrides the process-wide device's builder, for tests that
// want to exercise a successful build path. Not safe to call concurrently
// with AddReference calls against the same device.
func SetBuilder(b Builder) {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	AcquireDevice().Builder = b
}

// ReleaseDevice tears down the process-wide device handle so a subsequent
// AcquireDevice call re-initialises it. Intended for tests only.
func ReleaseDevice() {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	device = nil
	deviceOnce = sync.Once{}
}
