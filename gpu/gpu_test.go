package gpu

import "testing"

func TestProgramRefFailsWithoutBackend(t *testing.T) {
	ReleaseDevice()
	defer ReleaseDevice()

	device := AcquireDevice()
	ref := NewProgramRef("clearance", Source{Kind: SourceInline, Text: "kernel"})

	if ref.AddReference(device) {
		t.Fatal("expected AddReference to fail with the default (backendless) builder")
	}
	if ref.IsValid() {
		t.Fatal("ref should be invalid after failed build")
	}
	if ref.RefCount() != 0 {
		t.Fatalf("RefCount = %d, want 0", ref.RefCount())
	}
}

func TestProgramRefBuildsAndRefcounts(t *testing.T) {
	ReleaseDevice()
	defer ReleaseDevice()

	SetBuilder(func(d *Device, name string, src Source) (interface{}, error) {
		return "built:" + name, nil
	})
	device := AcquireDevice()
	ref := NewProgramRef("clearance", Source{Kind: SourceInline, Text: "kernel"})

	if !ref.AddReference(device) {
		t.Fatal("expected AddReference to succeed")
	}
	if !ref.AddReference(device) {
		t.Fatal("expected second AddReference to succeed without rebuilding")
	}
	if ref.RefCount() != 2 {
		t.Fatalf("RefCount = %d, want 2", ref.RefCount())
	}
	if !ref.IsValid() {
		t.Fatal("ref should be valid")
	}

	ref.ReleaseReference()
	if !ref.IsValid() {
		t.Fatal("ref should still be valid with one reference remaining")
	}
	ref.ReleaseReference()
	if ref.IsValid() {
		t.Fatal("ref should be invalid once refcount reaches zero")
	}
}

func TestProgramRefRetriesAfterFailedBuild(t *testing.T) {
	ReleaseDevice()
	defer ReleaseDevice()

	attempts := 0
	SetBuilder(func(d *Device, name string, src Source) (interface{}, error) {
		attempts++
		if attempts == 1 {
			return nil, errTransient()
		}
		return "built", nil
	})
	device := AcquireDevice()
	ref := NewProgramRef("clearance", Source{})

	if ref.AddReference(device) {
		t.Fatal("first build should fail")
	}
	if !ref.AddReference(device) {
		t.Fatal("second build should succeed")
	}
}

func errTransient() error { return &transientErr{} }

type transientErr struct{}

func (*transientErr) Error() string { return "transient build failure" }
