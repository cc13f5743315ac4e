// Package lifetime computes per-value [gen, kill) intervals, memory
// histograms, and peak live memory under a candidate op order.
package lifetime

import (
	"math"
	"sort"

	"github.com/LeeOHzzZ/HMCOS/internal/graph"
)

// TimeInput is the sentinel gen for a value that is a graph input, live
// before any op has run.
const TimeInput int32 = -1

// TimeUnknown is the sentinel kill for a value whose lifetime extends past
// the end of the candidate sequence (it escapes as a graph output, or as a
// boundary value of a partial, group-scoped sequence).
const TimeUnknown int32 = math.MaxInt32

// OverlapFailed is returned by OverlapInput when no input is eligible for
// overlap with an op's sole output.
const OverlapFailed uint32 = math.MaxUint32

// Lifetime is the [gen, kill) interval of one value under a candidate op
// order, plus its byte size so LifetimeStat.Histogram doesn't need to
// re-dereference the graph.
type Lifetime struct {
	Value graph.ValueID
	Gen   int32
	Kill  int32
	Size  uint64
}

// Length returns kill - gen.
func (l Lifetime) Length() int32 { return l.Kill - l.Gen }

// CmpByGenKill orders lifetimes by (gen, kill), ascending.
func CmpByGenKill(lhs, rhs Lifetime) bool {
	if lhs.Gen != rhs.Gen {
		return lhs.Gen < rhs.Gen
	}
	return lhs.Kill < rhs.Kill
}

// CmpByLength orders lifetimes by length ascending, ties broken by (gen, kill).
func CmpByLength(lhs, rhs Lifetime) bool {
	ll, rl := lhs.Length(), rhs.Length()
	if ll != rl {
		return ll < rl
	}
	return CmpByGenKill(lhs, rhs)
}

// CmpByLengthRev orders lifetimes by length descending.
func CmpByLengthRev(lhs, rhs Lifetime) bool { return CmpByLength(rhs, lhs) }

// LifetimeStat bundles every relevant value's lifetime over a candidate
// sequence's [Begin, End) window.
type LifetimeStat struct {
	Begin  int32
	End    int32
	Blocks []Lifetime
}

// SortedBlocks returns a copy of s.Blocks ordered by less, leaving s
// untouched. Callers that want a specific placement order for allocation —
// e.g. CmpByLengthRev to place long-lived values first and leave short-lived
// ones to fill the gaps — sort here rather than mutating Blocks in place.
func (s LifetimeStat) SortedBlocks(less func(a, b Lifetime) bool) []Lifetime {
	blocks := append([]Lifetime(nil), s.Blocks...)
	sort.Slice(blocks, func(i, j int) bool { return less(blocks[i], blocks[j]) })
	return blocks
}

// ComputeLifetime computes lifetime statistics for opSeq, a total or
// partial order over g's ops. Every value that is a graph input, or a
// RESULT defined or consumed by some op in opSeq, contributes one block.
// PARAM values are excluded.
func ComputeLifetime(opSeq []graph.OpID, g *graph.Graph) LifetimeStat {
	posOf := make(map[graph.OpID]int, len(opSeq))
	for i, id := range opSeq {
		posOf[id] = i
	}

	relevant := make(map[graph.ValueID]bool)
	for _, id := range g.InputIDs() {
		relevant[g.Input(id).Value] = true
	}
	for _, opID := range opSeq {
		op := g.Op(opID)
		for _, vid := range op.Outputs {
			relevant[vid] = true
		}
		for _, vid := range op.Inputs {
			if g.Value(vid).Kind != graph.Param {
				relevant[vid] = true
			}
		}
	}

	ids := make([]graph.ValueID, 0, len(relevant))
	for vid := range relevant {
		ids = append(ids, vid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var blocks []Lifetime
	begin, end := int32(len(opSeq)), int32(0)
	sawLivePastEnd := false

	for _, vid := range ids {
		v := g.Value(vid)
		if v.Kind == graph.Param {
			continue
		}

		var gen int32
		if v.Kind == graph.Result {
			defID, ok := v.Def()
			if !ok {
				continue
			}
			pos, inSeq := posOf[defID]
			if !inSeq {
				// Produced outside this (partial) sequence; from this
				// window's perspective it is already live at the start.
				gen = 0
			} else {
				gen = int32(pos)
			}
		} else {
			gen = TimeInput
		}

		kill := TimeUnknown
		maxUse := -1
		for _, useID := range v.Uses() {
			if pos, ok := posOf[useID]; ok && pos > maxUse {
				maxUse = pos
			}
		}
		if maxUse >= 0 {
			kill = int32(maxUse + 1)
		}

		blocks = append(blocks, Lifetime{Value: vid, Gen: gen, Kill: kill, Size: v.Type.Size()})

		if gen != TimeInput && gen < begin {
			begin = gen
		}
		if gen == TimeInput {
			begin = 0
		}
		if kill == TimeUnknown {
			sawLivePastEnd = true
		} else if kill > end {
			end = kill
		}
	}

	if begin < 0 {
		begin = 0
	}
	if sawLivePastEnd || end > int32(len(opSeq)) {
		end = int32(len(opSeq))
	}
	if len(blocks) == 0 {
		begin, end = 0, 0
	}

	return LifetimeStat{Begin: begin, End: end, Blocks: blocks}
}

// Histogram returns byte usage per op-position in [Begin, End): the sum of
// sizes of every block live at that position. A block with Kill ==
// TimeUnknown is treated as live through the end of the window.
func (s LifetimeStat) Histogram() []uint64 {
	n := int(s.End - s.Begin)
	if n <= 0 {
		return nil
	}
	diffs := make([]int64, n+1)
	for _, blk := range s.Blocks {
		start := blk.Gen - s.Begin
		if start < 0 {
			start = 0
		}
		var stop int32
		if blk.Kill == TimeUnknown {
			stop = int32(n)
		} else {
			stop = blk.Kill - s.Begin
			if stop > int32(n) {
				stop = int32(n)
			}
		}
		if stop <= start {
			continue
		}
		diffs[start] += int64(blk.Size)
		diffs[stop] -= int64(blk.Size)
	}

	hist := make([]uint64, n)
	var running int64
	for i := 0; i < n; i++ {
		running += diffs[i]
		hist[i] = uint64(running)
	}
	return hist
}

// Peak returns the maximum value of Histogram(), 0 if it is empty.
func (s LifetimeStat) Peak() uint64 {
	var peak uint64
	for _, h := range s.Histogram() {
		if h > peak {
			peak = h
		}
	}
	return peak
}
