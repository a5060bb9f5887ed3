// Package engine implements the Wayfind navigation core: the lifecycle
// guard registry, the transition pipeline, the navigation coordinator,
// and the router lifecycle state machine.
package engine

import (
	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// segmentDiff is the per-transition split of segment names into the
// three sets the pipeline operates on.
type segmentDiff struct {
	toDeactivate []string // leaf to root
	toActivate   []string // root to leaf
	intersection []string // root to leaf
}

// diffSegments computes the segments to leave, enter, and keep between
// two states. Shared ancestor segments whose parameters changed are
// re-run: they appear in both toDeactivate and toActivate. A Reload
// navigation re-runs everything.
func diffSegments(to, from *types.State, opts types.NavigationOptions) segmentDiff {
	toSegs := to.Segments()

	if from == nil {
		return segmentDiff{toActivate: toSegs}
	}

	fromSegs := from.Segments()

	if opts.Reload {
		return segmentDiff{
			toDeactivate: reversed(fromSegs),
			toActivate:   toSegs,
		}
	}

	shared := 0
	for shared < len(toSegs) && shared < len(fromSegs) {
		if toSegs[shared] != fromSegs[shared] {
			break
		}
		if !segmentParamsEqual(to, from, toSegs[shared]) {
			break
		}
		shared++
	}

	return segmentDiff{
		toDeactivate: reversed(fromSegs[shared:]),
		toActivate:   append([]string(nil), toSegs[shared:]...),
		intersection: append([]string(nil), toSegs[:shared]...),
	}
}

// segmentParamsEqual compares the parameter values owned by one segment
// across two states, using resolution metadata. Without metadata the
// segment is treated as unchanged.
func segmentParamsEqual(to, from *types.State, segment string) bool {
	names := segmentParamNames(to, segment)
	if len(names) == 0 {
		names = segmentParamNames(from, segment)
	}
	for _, name := range names {
		if to.Params[name] != from.Params[name] {
			return false
		}
	}
	return true
}

func segmentParamNames(s *types.State, segment string) []string {
	if s == nil || s.Meta == nil {
		return nil
	}
	return s.Meta.ParamsBySegment[segment]
}

func reversed(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
