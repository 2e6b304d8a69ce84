package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// pointLocked returns a uniform point inside bounds (caller must hold lock).
func (r *RNG) pointLocked(bounds geom.AABB) geom.Vec3 {
	size := bounds.Size()
	return geom.Vec3{
		X: bounds.Min.X + r.rand.Float64()*size.X,
		Y: bounds.Min.Y + r.rand.Float64()*size.Y,
		Z: bounds.Min.Z + r.rand.Float64()*size.Z,
	}
}

// unitLocked returns a direction uniformly distributed on the sphere
// (caller must hold lock).
func (r *RNG) unitLocked() geom.Vec3 {
	for {
		v := geom.Vec3{X: r.rand.NormFloat64(), Y: r.rand.NormFloat64(), Z: r.rand.NormFloat64()}
		if l := v.Length(); l > 1e-9 {
			return v.Multiply(1 / l)
		}
	}
}

// Point returns a uniform point inside bounds.
func (r *RNG) Point(bounds geom.AABB) geom.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pointLocked(bounds)
}

// UnitVector returns a random unit direction.
func (r *RNG) UnitVector() geom.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unitLocked()
}

// RandomCubes generates num axis-aligned cubes whose centers are uniform in
// bounds and whose half-sizes are uniform in [minHalf, maxHalf).
// Cubes may overlap, as refined cells in adaptive meshes do.
func (r *RNG) RandomCubes(num int, bounds geom.AABB, minHalf, maxHalf float64) []geom.AABB {
	r.mu.Lock()
	defer r.mu.Unlock()

	boxes := make([]geom.AABB, num)
	for i := range num {
		c := r.pointLocked(bounds)
		h := minHalf + r.rand.Float64()*(maxHalf-minHalf)
		half := geom.Vec3{X: h, Y: h, Z: h}
		boxes[i] = geom.AABB{Min: c.Subtract(half), Max: c.Add(half)}
	}

	return boxes
}

// ClusteredCubes generates cubes around a few Gaussian clusters with
// half-sizes shrinking towards cluster centers, mimicking refinement around
// density peaks. spread is the cluster standard deviation.
func (r *RNG) ClusteredCubes(num, clusters int, bounds geom.AABB, spread, maxHalf float64) []geom.AABB {
	r.mu.Lock()
	defer r.mu.Unlock()

	centers := make([]geom.Vec3, clusters)
	for i := range centers {
		centers[i] = r.pointLocked(bounds)
	}

	boxes := make([]geom.AABB, num)
	for i := range num {
		center := centers[i%clusters]
		offset := geom.Vec3{X: r.rand.NormFloat64(), Y: r.rand.NormFloat64(), Z: r.rand.NormFloat64()}.Multiply(spread)
		c := center.Add(offset)

		// Smaller cells near the cluster center
		h := maxHalf * math.Min(1, 0.05+offset.Length()/(3*spread))
		half := geom.Vec3{X: h, Y: h, Z: h}
		boxes[i] = geom.AABB{Min: c.Subtract(half), Max: c.Add(half)}
	}

	return boxes
}

// RandomRays generates num rays starting inside bounds with random
// directions and a length equal to the bounds diagonal.
func (r *RNG) RandomRays(num int, bounds geom.AABB) []geom.Ray {
	r.mu.Lock()
	defer r.mu.Unlock()

	length := bounds.Size().Length()
	rays := make([]geom.Ray, 0, num)
	for len(rays) < num {
		ray, err := geom.NewRay(r.pointLocked(bounds), r.unitLocked(), length)
		if err != nil {
			continue
		}
		rays = append(rays, ray)
	}

	return rays
}

// AxisRays generates num rays parallel to a random coordinate axis, the
// degenerate case for slab tests.
func (r *RNG) AxisRays(num int, bounds geom.AABB) []geom.Ray {
	r.mu.Lock()
	defer r.mu.Unlock()

	axes := []geom.Vec3{
		{X: 1}, {Y: 1}, {Z: 1},
		{X: -1}, {Y: -1}, {Z: -1},
	}

	length := bounds.Size().Length()
	rays := make([]geom.Ray, num)
	for i := range num {
		ray, err := geom.NewRay(r.pointLocked(bounds), axes[r.rand.Intn(len(axes))], length)
		if err != nil {
			panic(err)
		}
		rays[i] = ray
	}

	return rays
}

// GridTiling returns nx*ny*nz boxes that tile bounds without gaps, in
// x-fastest order.
func GridTiling(bounds geom.AABB, nx, ny, nz int) []geom.AABB {
	size := bounds.Size()
	step := geom.Vec3{X: size.X / float64(nx), Y: size.Y / float64(ny), Z: size.Z / float64(nz)}

	boxes := make([]geom.AABB, 0, nx*ny*nz)
	for k := range nz {
		for j := range ny {
			for i := range nx {
				lo := geom.Vec3{
					X: bounds.Min.X + float64(i)*step.X,
					Y: bounds.Min.Y + float64(j)*step.Y,
					Z: bounds.Min.Z + float64(k)*step.Z,
				}
				boxes = append(boxes, geom.AABB{Min: lo, Max: lo.Add(step)})
			}
		}
	}

	return boxes
}

// DiffCells compares two query results as sets of cell ids and returns the
// cells present only in want (missing) and only in got (extra).
func DiffCells(got, want index.Segments) (missing, extra *roaring.Bitmap) {
	g, w := got.CellSet(), want.CellSet()
	return roaring.AndNot(w, g), roaring.AndNot(g, w)
}
