package pypeit

import (
	"slices"
	"sort"
)

// CalibGroup is the set of frames sharing a calibration group identifier.
type CalibGroup struct {
	ID     int     `json:"id" yaml:"id"`
	Frames []Frame `json:"frames" yaml:"frames"`
}

// Has reports whether any frame in the group carries type ft.
func (g CalibGroup) Has(ft FrameType) bool {
	return slices.ContainsFunc(g.Frames, func(fr Frame) bool { return fr.Is(ft) })
}

// Of returns the group's frames of type ft.
func (g CalibGroup) Of(ft FrameType) []Frame {
	var out []Frame
	for _, fr := range g.Frames {
		if fr.Is(ft) {
			out = append(out, fr)
		}
	}
	return out
}

// CalibGroups groups frames by calibration group, in ascending ID order.
// Frames with calib "all" join every group named by another frame.
func CalibGroups(frames []Frame) []CalibGroup {
	ids := make(map[int]bool)
	for _, fr := range frames {
		for _, g := range fr.CalibGroups {
			ids[g] = true
		}
	}
	sorted := make([]int, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Ints(sorted)

	groups := make([]CalibGroup, 0, len(sorted))
	for _, id := range sorted {
		g := CalibGroup{ID: id}
		for _, fr := range frames {
			if fr.InCalib(id) {
				g.Frames = append(g.Frames, fr)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// Combination is a set of frames co-added under one comb_id.
type Combination struct {
	ID     int     `json:"id" yaml:"id"`
	Frames []Frame `json:"frames" yaml:"frames"`
}

// Combinations groups frames by assigned comb_id, in ascending ID order.
func Combinations(frames []Frame) []Combination {
	byID := make(map[int][]Frame)
	for _, fr := range frames {
		if fr.CombID >= 0 {
			byID[fr.CombID] = append(byID[fr.CombID], fr)
		}
	}
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Combination, 0, len(ids))
	for _, id := range ids {
		out = append(out, Combination{ID: id, Frames: byID[id]})
	}
	return out
}

// Pair associates a science or standard frame with the frames subtracted
// from it as background (nod-pair subtraction).
type Pair struct {
	Science     Frame   `json:"science" yaml:"science"`
	Backgrounds []Frame `json:"backgrounds" yaml:"backgrounds"`
}

// Pairs returns the background pairing of every science and standard frame
// that has a bkg_id, in input order. Backgrounds may be empty when the
// bkg_id matches no frame.
func Pairs(frames []Frame) []Pair {
	var out []Pair
	for _, fr := range frames {
		if fr.BkgID < 0 || (!fr.Is(FrameScience) && !fr.Is(FrameStandard)) {
			continue
		}
		p := Pair{Science: fr}
		for _, other := range frames {
			if other.CombID == fr.BkgID {
				p.Backgrounds = append(p.Backgrounds, other)
			}
		}
		out = append(out, p)
	}
	return out
}
