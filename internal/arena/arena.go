// Package arena implements a reference first-fit memory arena (C7): a value
// claims the lowest 64-byte-aligned offset that doesn't overlap, in time,
// any previously placed value occupying that byte range.
package arena

import (
	"sort"

	"github.com/LeeOHzzZ/HMCOS/internal/lifetime"
)

// Alignment is the byte boundary every allocation offset is rounded up to.
const Alignment = 64

type allocation struct {
	offset     uint64
	size       uint64
	gen, kill  int32
}

// overlapsTime reports whether two [gen, kill) intervals intersect.
// lifetime.TimeUnknown is math.MaxInt32, so a value with an unknown kill
// extends to the end of the simulated window.
func overlapsTime(aGen, aKill, bGen, bKill int32) bool {
	return aGen < bKill && bGen < aKill
}

func alignUp(n uint64) uint64 {
	if n%Alignment == 0 {
		return n
	}
	return n + (Alignment - n%Alignment)
}

// Simulate replays stat's blocks in insertion order (ascending value index,
// as ComputeLifetime produces them) through a first-fit arena and returns
// the high-water byte mark. Zero-size values are skipped; they never claim
// arena space.
func Simulate(stat lifetime.LifetimeStat) uint64 {
	blocks := stat.Blocks

	var placed []allocation
	var peak uint64

	for _, blk := range blocks {
		if blk.Size == 0 {
			continue
		}
		size := alignUp(blk.Size)

		overlapping := make([]allocation, 0, len(placed))
		for _, p := range placed {
			if overlapsTime(blk.Gen, blk.Kill, p.gen, p.kill) {
				overlapping = append(overlapping, p)
			}
		}
		sort.Slice(overlapping, func(i, j int) bool { return overlapping[i].offset < overlapping[j].offset })

		offset := firstFit(overlapping, size)
		placed = append(placed, allocation{offset: offset, size: size, gen: blk.Gen, kill: blk.Kill})
		if top := offset + size; top > peak {
			peak = top
		}
	}

	return peak
}

// firstFit finds the lowest aligned offset whose [offset, offset+size) span
// doesn't intersect any of overlapping's spans, which are sorted by offset.
func firstFit(overlapping []allocation, size uint64) uint64 {
	var candidate uint64
	for _, p := range overlapping {
		if candidate+size <= p.offset {
			return candidate
		}
		if end := alignUp(p.offset + p.size); end > candidate {
			candidate = end
		}
	}
	return candidate
}
