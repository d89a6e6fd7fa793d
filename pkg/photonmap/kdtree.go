package photonmap

import (
	"container/heap"
	"sort"

	"github.com/df07/go-progressive-raytracer/pkg/core"
)

// kdNode is one node of a balanced kd-tree over photon positions, split
// alternately on X/Y/Z by median so the tree stays O(log n) deep regardless
// of photon distribution.
type kdNode struct {
	photon      Photon
	axis        int
	left, right *kdNode
}

// buildKDTree recursively partitions photons by median split on the axis of
// greatest spread, the same approach pkg/geometry's BVH uses for shapes.
// photons is consumed (reordered in place); callers that need the original
// order should pass a copy.
func buildKDTree(photons []Photon) *kdNode {
	if len(photons) == 0 {
		return nil
	}

	axis := widestAxis(photons)
	sort.Slice(photons, func(i, j int) bool {
		return photons[i].axisValue(axis) < photons[j].axisValue(axis)
	})

	mid := len(photons) / 2
	node := &kdNode{photon: photons[mid], axis: axis}
	node.left = buildKDTree(photons[:mid])
	node.right = buildKDTree(photons[mid+1:])
	return node
}

// widestAxis picks the coordinate axis with the largest spread across
// photons, so splits divide the photons roughly evenly in space rather than
// cycling axes blindly.
func widestAxis(photons []Photon) int {
	min := photons[0].Position
	max := photons[0].Position
	for _, p := range photons[1:] {
		min = core.NewVec3(minF(min.X, p.Position.X), minF(min.Y, p.Position.Y), minF(min.Z, p.Position.Z))
		max = core.NewVec3(maxF(max.X, p.Position.X), maxF(max.Y, p.Position.Y), maxF(max.Z, p.Position.Z))
	}
	ext := max.Subtract(min)
	if ext.X >= ext.Y && ext.X >= ext.Z {
		return 0
	}
	if ext.Y >= ext.Z {
		return 1
	}
	return 2
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// neighborHeap is a bounded max-heap (by distance) of the k closest photons
// found so far: its root is always the farthest of the current candidates,
// so a new candidate closer than the root can evict it in O(log k).
type neighborHeap struct {
	items []neighbor
	k     int
}

type neighbor struct {
	photon  Photon
	distSq  float64
	present bool
}

func (h *neighborHeap) Len() int            { return len(h.items) }
func (h *neighborHeap) Less(i, j int) bool  { return h.items[i].distSq > h.items[j].distSq }
func (h *neighborHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *neighborHeap) Push(x interface{})  { h.items = append(h.items, x.(neighbor)) }
func (h *neighborHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

func (h *neighborHeap) worstDistSq() float64 {
	if len(h.items) < h.k {
		return maxFloat
	}
	return h.items[0].distSq
}

func (h *neighborHeap) consider(p Photon, distSq float64) {
	if len(h.items) < h.k {
		heap.Push(h, neighbor{photon: p, distSq: distSq, present: true})
		return
	}
	if distSq < h.items[0].distSq {
		heap.Pop(h)
		heap.Push(h, neighbor{photon: p, distSq: distSq, present: true})
	}
}

const maxFloat = 1.7976931348623157e+308

// knnSearch finds up to k photons nearest to p within radius (a hard cutoff
// so a dense local cluster can't pull in photons from across the scene),
// returning them along with the actual squared distance to the farthest one
// kept - the caller uses that as the gather disc/sphere radius for its
// density estimate, mirroring the original's KNN_FIND | EPSILON_BALL query.
func (n *kdNode) knnSearch(p core.Vec3, k int, radius float64) ([]Photon, float64) {
	if n == nil || k <= 0 {
		return nil, 0
	}

	h := &neighborHeap{k: k}
	radiusSq := radius * radius
	n.search(p, radiusSq, h)

	if len(h.items) == 0 {
		return nil, 0
	}

	maxDistSq := 0.0
	out := make([]Photon, len(h.items))
	for i, item := range h.items {
		out[i] = item.photon
		if item.distSq > maxDistSq {
			maxDistSq = item.distSq
		}
	}
	return out, maxDistSq
}

func (n *kdNode) search(p core.Vec3, radiusSq float64, h *neighborHeap) {
	if n == nil {
		return
	}

	d := distanceSquared(p, n.photon.Position)
	if d <= radiusSq {
		limit := h.worstDistSq()
		if limit == maxFloat || d < limit {
			h.consider(n.photon, d)
		}
	}

	diff := axisValue(p, n.axis) - n.photon.axisValue(n.axis)
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}

	near.search(p, radiusSq, h)
	if diff*diff <= radiusSq {
		far.search(p, radiusSq, h)
	}
}
