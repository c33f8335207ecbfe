package dem

import (
	"io"
	"maps"
	"math"
	"slices"
	"strings"
)

// maxIndex bounds detector and observable indices so they fit the uint32 sets
// used by the search.
const maxIndex = math.MaxInt32 - 1

type compileOptions struct {
	numDetectors   int
	numObservables int
}

// Option configures compilation.
type Option func(*compileOptions)

// WithNumDetectors fixes the detector count. Models referencing a detector
// index >= n are rejected. Detectors no mechanism references are still
// counted.
func WithNumDetectors(n int) Option {
	return func(o *compileOptions) {
		o.numDetectors = n
	}
}

// WithNumObservables fixes the observable count for models that carry no
// logical_observable declaration. References to L indices >= n are rejected.
func WithNumObservables(n int) Option {
	return func(o *compileOptions) {
		o.numObservables = n
	}
}

// Compile parses and validates DEM text.
func Compile(text string, opts ...Option) (*Model, error) {
	return CompileReader(strings.NewReader(text), opts...)
}

// CompileReader parses and validates a DEM read from r.
func CompileReader(r io.Reader, opts ...Option) (*Model, error) {
	o := compileOptions{numDetectors: -1, numObservables: -1}
	for _, opt := range opts {
		opt(&o)
	}

	insts, err := parse(r)
	if err != nil {
		return nil, err
	}

	f := &flattener{
		coords:   make(map[int][]float64),
		declared: make(map[int]struct{}),
	}
	if err := f.walk(insts); err != nil {
		return nil, err
	}
	return f.build(o)
}

type rawMechanism struct {
	line        int
	source      int
	probability float64
	detectors   []int
	observables []int
}

// flattener expands repeat blocks and detector shifts into absolute indices.
type flattener struct {
	detOffset   uint64
	coordOffset []float64
	sources     int
	zero        int

	mechanisms []rawMechanism
	coords     map[int][]float64
	declared   map[int]struct{}
	maxDet     int
	hasDet     bool
	// numObsRefs is one past the largest observable referenced by an error.
	numObsRefs int
}

func (f *flattener) walk(insts []instruction) error {
	for i := range insts {
		inst := &insts[i]
		switch inst.kind {
		case instError:
			if err := f.addError(inst); err != nil {
				return err
			}
		case instDetector:
			if err := f.addDetector(inst); err != nil {
				return err
			}
		case instLogicalObservable:
			for _, t := range inst.targets {
				if t.index > maxIndex {
					return malformed(inst.line, "observable index L%d out of range", t.index)
				}
				f.declared[int(t.index)] = struct{}{}
			}
		case instShiftDetectors:
			f.detOffset += inst.shift
			if f.detOffset > maxIndex {
				return malformed(inst.line, "detector shift overflows index range")
			}
			f.shiftCoords(inst.args)
		case instRepeat:
			for n := uint64(0); n < inst.count; n++ {
				if err := f.walk(inst.body); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (f *flattener) shiftCoords(delta []float64) {
	for len(f.coordOffset) < len(delta) {
		f.coordOffset = append(f.coordOffset, 0)
	}
	for i, v := range delta {
		f.coordOffset[i] += v
	}
}

func (f *flattener) detectorIndex(line int, raw uint64) (int, error) {
	abs := raw + f.detOffset
	if raw > maxIndex || abs > maxIndex {
		return 0, malformed(line, "detector index D%d out of range", raw)
	}
	d := int(abs)
	if !f.hasDet || d > f.maxDet {
		f.maxDet = d
		f.hasDet = true
	}
	return d, nil
}

func (f *flattener) addError(inst *instruction) error {
	p := inst.args[0]
	if math.IsNaN(p) || p < 0 || p >= 1 {
		return malformed(inst.line, "probability %v outside [0, 1)", p)
	}
	source := f.sources
	f.sources++
	if p == 0 {
		f.zero++
		return nil
	}

	// Targets toggle, so repeated symptoms cancel pairwise.
	dets := make(map[int]bool)
	obs := make(map[int]bool)
	for _, t := range inst.targets {
		switch t.kind {
		case targetDetector:
			d, err := f.detectorIndex(inst.line, t.index)
			if err != nil {
				return err
			}
			dets[d] = !dets[d]
		case targetObservable:
			if t.index > maxIndex {
				return malformed(inst.line, "observable index L%d out of range", t.index)
			}
			obs[int(t.index)] = !obs[int(t.index)]
			f.numObsRefs = max(f.numObsRefs, int(t.index)+1)
		}
	}

	f.mechanisms = append(f.mechanisms, rawMechanism{
		line:        inst.line,
		source:      source,
		probability: p,
		detectors:   oddKeys(dets),
		observables: oddKeys(obs),
	})
	return nil
}

func (f *flattener) addDetector(inst *instruction) error {
	var coords []float64
	if len(inst.args) > 0 {
		coords = make([]float64, len(inst.args))
		for i, v := range inst.args {
			coords[i] = v
			if i < len(f.coordOffset) {
				coords[i] += f.coordOffset[i]
			}
		}
	}
	for _, t := range inst.targets {
		d, err := f.detectorIndex(inst.line, t.index)
		if err != nil {
			return err
		}
		prev := f.coords[d]
		if prev != nil && coords != nil && !slices.Equal(prev, coords) {
			return malformed(inst.line, "detector D%d annotated with conflicting coordinates %v and %v", d, prev, coords)
		}
		if prev == nil {
			f.coords[d] = coords
		}
	}
	return nil
}

func (f *flattener) build(o compileOptions) (*Model, error) {
	m := &Model{ZeroProbability: f.zero}

	numDets := 0
	if f.hasDet {
		numDets = f.maxDet + 1
	}
	if o.numDetectors >= 0 {
		if numDets > o.numDetectors {
			return nil, malformed(0, "detector D%d referenced but model has %d detectors", f.maxDet, o.numDetectors)
		}
		numDets = o.numDetectors
	}

	var checkObs func(l int) bool
	switch {
	case len(f.declared) > 0:
		m.declared = slices.Sorted(maps.Keys(f.declared))
		m.NumObservables = m.declared[len(m.declared)-1] + 1
		checkObs = func(l int) bool {
			_, ok := f.declared[l]
			return ok
		}
	case o.numObservables >= 0:
		m.NumObservables = o.numObservables
		checkObs = func(l int) bool { return l < o.numObservables }
	default:
		m.NumObservables = f.numObsRefs
		checkObs = func(int) bool { return true }
	}

	for _, raw := range f.mechanisms {
		for _, l := range raw.observables {
			if !checkObs(l) {
				return nil, malformed(raw.line, "observable L%d is not declared", l)
			}
		}
		mech := Mechanism{
			Source:      raw.source,
			Probability: raw.probability,
			Weight:      Weight(raw.probability),
			Detectors:   raw.detectors,
			Observables: raw.observables,
		}
		if len(mech.Detectors) == 0 {
			m.Undetectable = append(m.Undetectable, mech)
			continue
		}
		m.Mechanisms = append(m.Mechanisms, mech)
	}

	m.Detectors = make([]Detector, numDets)
	for d, c := range f.coords {
		m.Detectors[d].Coords = c
	}
	m.finalize()
	return m, nil
}

func oddKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k, odd := range set {
		if odd {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
