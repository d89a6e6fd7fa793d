// Package photonmap implements photon mapping: a light-traced cache of
// photon hits queried by k-nearest-neighbor search to estimate indirect
// radiance via density estimation, independent of the path tracer's
// next-event estimation. Grounded on
// original_source/sources/integrators/photon_map.cc and
// original_source/sources/integrators/photonmapper/photonmapper.h.
package photonmap

import "github.com/df07/go-progressive-raytracer/pkg/core"

// Photon is a single recorded light-path vertex: a position, the throughput
// carried to it, the direction it arrived from, and the surface normal there
// (used both to reject photons that leaked through a thin surface and, with
// a near-zero normal, to mark a volumetric photon recorded in a participating
// medium rather than on a surface).
type Photon struct {
	Position core.Vec3
	Beta     core.Spectrum
	Wi       core.Vec3
	Normal   core.Vec3
}

// axisValue returns the coordinate of Position along the given axis
// (0=X, 1=Y, 2=Z), the accessor the kd-tree partitions and queries by.
func (p Photon) axisValue(axis int) float64 {
	switch axis {
	case 0:
		return p.Position.X
	case 1:
		return p.Position.Y
	default:
		return p.Position.Z
	}
}

func distanceSquared(a, b core.Vec3) float64 {
	return a.Subtract(b).LengthSquared()
}

// axisValue returns the coordinate of a raw point along the given axis,
// the same accessor Photon.axisValue uses, for kd-tree queries that walk
// down from an arbitrary query point rather than another photon.
func axisValue(v core.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
