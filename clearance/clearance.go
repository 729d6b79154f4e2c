// Package clearance implements the obstacle-distance propagation process:
// for every occupied-region-adjacent voxel, the distance (optionally
// per-axis scaled) to the nearest occupied voxel within a search radius.
// Regions are only recomputed when stale relative to the occupancy layer's
// touched stamps, using the same brute-force nearest-obstacle search the
// process was originally specified with — the flood-fill variant is
// intentionally not implemented; it propagates already-changed values
// within the same pass and produces incorrect results near region seams.
package clearance

import (
	"math"
	"sort"
	"time"

	"github.com/data61/ohm/gpu"
	"github.com/data61/ohm/internal/diag"
	"github.com/data61/ohm/key"
	"github.com/data61/ohm/query"
)

// Flags controls how a Process evaluates and reports clearance.
type Flags uint8

const (
	// GPUEvaluate attempts the GPU code path before falling back to CPU
	// brute force. This build never has a working GPU backend, so setting
	// it only affects whether the once-per-Update fallback notice is
	// logged.
	GPUEvaluate Flags = 1 << iota
	// UnknownAsOccupied treats unobserved voxels as obstacles during the
	// nearest-obstacle search.
	UnknownAsOccupied
	// ReportUnscaledResults stores the raw Euclidean distance instead of
	// the axis-scaled distance.
	ReportUnscaledResults
	// InstantiateUnknown instantiates regions touched by the search
	// radius instead of treating absent regions as fully unobserved.
	InstantiateUnknown
)

// normalizeAxisScale maps a non-positive axis scale component to 1, per
// SetAxisScaling's documented default.
func normalizeAxisScale(s float64) float64 {
	if s <= 0 {
		return 1
	}
	return s
}

// Has reports whether f includes flag.
func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

// Status describes the outcome of an Update call.
type Status int

const (
	UpToDate Status = iota
	Progressing
)

// Result summarises one Update call.
type Result struct {
	Status           Status
	RegionsProcessed int
}

// Map is the narrow view of a map the clearance process needs. It exists so
// this package never imports the top-level map package, avoiding an import
// cycle with the map's own convenience methods for driving clearance.
type Map interface {
	Dims() key.Vec3I
	Resolution() float64
	RegionKeys() []key.RegionKey
	RegionExists(rk key.RegionKey) bool
	OccupancyTouchedStamp(rk key.RegionKey) uint64
	ClearanceTouchedStamp(rk key.RegionKey) uint64
	SetClearanceTouchedStamp(rk key.RegionKey, stamp uint64)
	IsOccupied(k key.Key) bool
	IsUnobserved(k key.Key) bool
	ClearanceAt(k key.Key) (float32, bool)
	SetClearanceAt(k key.Key, v float32) bool
	// EnsureRegion instantiates rk if it does not already exist, without
	// changing any voxel's value. Used by the InstantiateUnknown flag so a
	// search can make regions it merely touches resident.
	EnsureRegion(rk key.RegionKey)
}

// NoClearance is stored for a voxel with no obstacle within the search
// radius.
const NoClearance = float32(-1)

// SelfObstacle is stored for a voxel that is itself occupied.
const SelfObstacle = float32(0)

// Process drives clearance recomputation over a Map.
type Process struct {
	searchRadius float64
	axisScaling  [3]float64
	flags        Flags
	timeSlice    time.Duration

	queue []key.RegionKey

	// gpuProgram is the lazily-built clearance search kernel. It is
	// acquired and released once per Update call so a prior build failure
	// is retried on the next call, mirroring gpu.ProgramRef's
	// zero-refcount-on-failure contract.
	gpuProgram *gpu.ProgramRef
}

// NewProcess returns a Process with a 2 metre search radius, unit axis
// scaling and no flags set.
func NewProcess() *Process {
	return &Process{
		searchRadius: 2.0,
		axisScaling:  [3]float64{1, 1, 1},
		timeSlice:    10 * time.Millisecond,
	}
}

// SetSearchRadius sets the obstacle search radius in metres.
func (p *Process) SetSearchRadius(r float64) { p.searchRadius = r }

// SearchRadius returns the configured search radius in metres.
func (p *Process) SearchRadius() float64 { return p.searchRadius }

// SetAxisScaling sets the per-axis distance scaling used both to search and
// to report distances (unless ReportUnscaledResults is set). Components must
// be positive; a zero or negative component is treated as 1.
func (p *Process) SetAxisScaling(x, y, z float64) {
	p.axisScaling = [3]float64{normalizeAxisScale(x), normalizeAxisScale(y), normalizeAxisScale(z)}
}

// SetQueryFlags replaces the process's flag set.
func (p *Process) SetQueryFlags(f Flags) { p.flags = f }

// QueryFlags returns the process's current flag set.
func (p *Process) QueryFlags() Flags { return p.flags }

// SetTimeSlice stores a wall-clock budget, returned by TimeSlice. Update
// does not read it: each Update call uses its own timeSlice argument.
func (p *Process) SetTimeSlice(d time.Duration) { p.timeSlice = d }

// TimeSlice returns the stored wall-clock budget.
func (p *Process) TimeSlice() time.Duration { return p.timeSlice }

// Reset clears the pending work queue without touching any map state.
func (p *Process) Reset() { p.queue = nil }

// occupancyTouchStampForRegionAndNeighbours returns the maximum occupancy
// touched stamp over rk and its 26 neighbours, treating absent regions as
// stamp zero.
func occupancyTouchStampForRegionAndNeighbours(m Map, rk key.RegionKey) uint64 {
	max := m.OccupancyTouchedStamp(rk)
	for _, n := range key.Neighbours26(rk) {
		if !m.RegionExists(n) {
			continue
		}
		if s := m.OccupancyTouchedStamp(n); s > max {
			max = s
		}
	}
	return max
}

// isStale reports whether rk's clearance layer needs recomputation.
func isStale(m Map, rk key.RegionKey, force bool) (stale bool, occStamp uint64) {
	occStamp = occupancyTouchStampForRegionAndNeighbours(m, rk)
	if force {
		return true, occStamp
	}
	return m.ClearanceTouchedStamp(rk) < occStamp, occStamp
}

// updateRegion recomputes clearance for every voxel in rk if it is stale
// (or force is true), and stamps the region's clearance touch stamp with
// the occupancy stamp captured before the recompute began. The per-voxel
// walk is driven through query.TileRegion rather than a hand-rolled loop;
// it runs as a single sequential tile since a Map's accessors are not safe
// for concurrent use from multiple goroutines.
func (p *Process) updateRegion(m Map, rk key.RegionKey, force bool, useGPU bool) bool {
	stale, occStamp := isStale(m, rk, force)
	if !stale {
		return false
	}

	dims := m.Dims()
	query.TileRegion(dims, dims, false, func(lk key.LocalKey) {
		target := key.Key{Region: rk, Local: lk}
		p.evaluateVoxel(m, target, useGPU)
	})

	m.SetClearanceTouchedStamp(rk, occStamp)
	return true
}

// evaluateVoxel computes and stores the clearance value for a single voxel.
// useGPU indicates a GPU program reference was successfully built for this
// batch; this build has no GPU search kernel to run, so the delegated path
// still executes the CPU brute-force search, but is logged distinctly so
// the delegation itself is observable.
func (p *Process) evaluateVoxel(m Map, target key.Key, useGPU bool) {
	if m.IsOccupied(target) {
		m.SetClearanceAt(target, SelfObstacle)
		return
	}

	if useGPU {
		diag.Tracef("clearance: %+v delegated to GPU path", target)
	}

	res := m.Resolution()
	dims := m.Dims()
	// The search cube must be wide enough to cover the largest raw
	// distance any axis's scaling could still count as "within radius":
	// scaled = raw*scale, so raw = scaled/scale, maximised at scale's min.
	radiusVoxels := int(math.Ceil(p.searchRadius / (minAxisScale(p.axisScaling) * res)))
	if radiusVoxels < 0 {
		radiusVoxels = 0
	}

	best := NoClearance
	bestFound := false

	for dz := -radiusVoxels; dz <= radiusVoxels; dz++ {
		for dy := -radiusVoxels; dy <= radiusVoxels; dy++ {
			for dx := -radiusVoxels; dx <= radiusVoxels; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				candidate := key.Move(target, dx, dy, dz, dims)

				if p.flags.Has(InstantiateUnknown) && !m.RegionExists(candidate.Region) {
					m.EnsureRegion(candidate.Region)
				}

				occupied := m.IsOccupied(candidate)
				if !occupied && m.IsUnobserved(candidate) && p.flags.Has(UnknownAsOccupied) {
					occupied = true
				}
				if !occupied {
					continue
				}

				scaledDist, rawDist := p.distance(dx, dy, dz, res)
				if scaledDist > p.searchRadius {
					continue
				}

				reported := scaledDist
				if p.flags.Has(ReportUnscaledResults) {
					reported = rawDist
				}
				if !bestFound || float32(reported) < best {
					best = float32(reported)
					bestFound = true
				}
			}
		}
	}

	if !bestFound {
		m.SetClearanceAt(target, NoClearance)
		return
	}
	m.SetClearanceAt(target, best)
}

// distance returns the axis-scaled and raw Euclidean distances for a voxel
// offset. A larger axis_scaling component makes obstacles along that axis
// count as farther away, not nearer.
func (p *Process) distance(dx, dy, dz int, resolution float64) (scaled, raw float64) {
	wx := float64(dx) * resolution
	wy := float64(dy) * resolution
	wz := float64(dz) * resolution
	raw = math.Sqrt(wx*wx + wy*wy + wz*wz)

	sx := wx * p.axisScaling[0]
	sy := wy * p.axisScaling[1]
	sz := wz * p.axisScaling[2]
	scaled = math.Sqrt(sx*sx + sy*sy + sz*sz)
	return scaled, raw
}

// minAxisScale returns the smallest configured axis scale, which bounds how
// far in raw voxels the search cube must extend to find every candidate
// that could still fall within the scaled search radius.
func minAxisScale(s [3]float64) float64 {
	m := s[0]
	if s[1] < m {
		m = s[1]
	}
	if s[2] < m {
		m = s[2]
	}
	if m <= 0 {
		return 1
	}
	return m
}

// getWork scans every region the map currently has for staleness and
// appends the stale ones to the process's queue, ordered by ascending
// occupancy touched stamp (oldest first) so a tight time slice makes
// progress on the longest-neglected regions before newer ones.
func (p *Process) getWork(m Map) {
	type staleRegion struct {
		rk    key.RegionKey
		stamp uint64
	}
	var found []staleRegion
	for _, rk := range m.RegionKeys() {
		if stale, occStamp := isStale(m, rk, false); stale {
			found = append(found, staleRegion{rk, occStamp})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].stamp < found[j].stamp })
	for _, sr := range found {
		p.queue = append(p.queue, sr.rk)
	}
}

// gpuProgramSource identifies the clearance search kernel a GPU program
// reference is built against. This build has no backend that can compile
// it, but the name and source shape are fixed so a future backend has a
// stable target.
const gpuProgramName = "clearance-search"

var gpuProgramSource = gpu.Source{Kind: gpu.SourceInline, Text: "clearance nearest-obstacle search"}

// gpuReady acquires the process-wide GPU device and attempts to build (or
// re-reference) the clearance search program if GPUEvaluate is requested.
// It reports whether the GPU path should be used for this batch; on
// failure it logs a fallback notice and leaves the refcount at zero so the
// next call retries the build.
func (p *Process) gpuReady() bool {
	if !p.flags.Has(GPUEvaluate) {
		return false
	}

	device := gpu.AcquireDevice()
	if p.gpuProgram == nil {
		p.gpuProgram = gpu.NewProgramRef(gpuProgramName, gpuProgramSource)
	}
	if !p.gpuProgram.AddReference(device) {
		diag.Opsf("clearance: GPU evaluation requested but unavailable, falling back to CPU brute force")
		return false
	}
	if !p.gpuProgram.IsValid() {
		return false
	}
	return true
}

// Update pops and processes regions from the pending work queue for up to
// timeSlice of wall-clock time, refilling the queue via a staleness scan
// when it runs dry. A non-positive timeSlice processes the entire queue in
// one call. Returns Progressing if this call recomputed a region or work
// remains queued, UpToDate if a full scan found nothing to do.
func (p *Process) Update(m Map, timeSlice time.Duration) Result {
	if len(p.queue) == 0 {
		p.getWork(m)
	}

	useGPU := p.gpuReady()
	if useGPU {
		defer p.gpuProgram.ReleaseReference()
	}

	if len(p.queue) == 0 {
		return Result{Status: UpToDate}
	}

	start := time.Now()
	processed := 0
	for len(p.queue) > 0 {
		rk := p.queue[0]
		p.queue = p.queue[1:]
		if p.updateRegion(m, rk, false, useGPU) {
			processed++
		}
		if timeSlice > 0 && time.Since(start) >= timeSlice {
			break
		}
	}

	status := UpToDate
	if processed > 0 || len(p.queue) > 0 {
		status = Progressing
	}
	return Result{Status: status, RegionsProcessed: processed}
}

// CalculateForExtents recomputes clearance for every region overlapping the
// inclusive world-space box [min, max], bypassing the work queue entirely.
// force, if true, recomputes every region regardless of staleness. The
// region range itself is driven by query.Regions rather than a hand-rolled
// nested loop.
func (p *Process) CalculateForExtents(m Map, min, max key.Point3, force bool) int {
	dims := m.Dims()
	res := m.Resolution()
	useGPU := p.gpuReady()
	if useGPU {
		defer p.gpuProgram.ReleaseReference()
	}

	return query.Regions(dims, res, min, max, func(rk key.RegionKey) int {
		if p.updateRegion(m, rk, force, useGPU) {
			return 1
		}
		return 0
	})
}
