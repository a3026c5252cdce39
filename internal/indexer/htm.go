package indexer

import (
	"fmt"
	"math"
)

// HTM indexes points on the hierarchical triangular mesh: the sphere is
// split into 8 root triangles which are subdivided recursively, four
// children per triangle. A cell id encodes the full path from root to leaf,
// so ids at depth d lie in [8*4^d, 16*4^d).
type HTM struct {
	depth int
}

// MaxDepth bounds the subdivision depth; level-20 trixels are already
// below 0.4 arcseconds across.
const MaxDepth = 20

// NewHTM returns an HTM indexer at the given subdivision depth.
func NewHTM(depth int) (*HTM, error) {
	if depth < 0 || depth > MaxDepth {
		return nil, fmt.Errorf("htm: depth %d out of range [0, %d]", depth, MaxDepth)
	}
	return &HTM{depth: depth}, nil
}

func (h *HTM) Name() string { return "htm" }

func (h *HTM) Depth() int { return h.depth }

// IndexPoints maps each (ra, dec) pair in degrees to the id of the depth-d
// trixel containing it.
func (h *HTM) IndexPoints(ra, dec []float64) ([]int64, error) {
	if len(ra) != len(dec) {
		return nil, fmt.Errorf("htm: %d ra values for %d dec values", len(ra), len(dec))
	}
	ids := make([]int64, len(ra))
	for i := range ra {
		id, err := h.index(ra[i], dec[i])
		if err != nil {
			return nil, fmt.Errorf("htm: point %d: %w", i, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func (h *HTM) index(ra, dec float64) (int64, error) {
	if math.IsNaN(ra) || math.IsInf(ra, 0) || math.IsNaN(dec) || math.IsInf(dec, 0) {
		return 0, fmt.Errorf("non-finite coordinate (%v, %v)", ra, dec)
	}
	if dec < -90 || dec > 90 {
		return 0, fmt.Errorf("dec %v out of range [-90, 90]", dec)
	}
	p := vecFromSky(ra, dec)

	// Root triangle: ids 8-15.
	best, tri := 0, rootTriangles[0]
	bestScore := math.Inf(-1)
	for i, rt := range rootTriangles {
		if s := score(rt, p); s > bestScore {
			best, tri, bestScore = i, rt, s
		}
	}
	id := int64(8 + best)

	for level := 0; level < h.depth; level++ {
		w0 := mid(tri[1], tri[2])
		w1 := mid(tri[0], tri[2])
		w2 := mid(tri[0], tri[1])
		children := [4]triangle{
			{tri[0], w2, w1},
			{tri[1], w0, w2},
			{tri[2], w1, w0},
			{w0, w1, w2},
		}
		child := 0
		bestScore = math.Inf(-1)
		for i, c := range children {
			if s := score(c, p); s > bestScore {
				child, bestScore = i, s
			}
		}
		tri = children[child]
		id = id*4 + int64(child)
	}
	return id, nil
}

type vec struct{ x, y, z float64 }

type triangle [3]vec

// Root octahedron vertices: poles and the four equatorial cardinal points.
var (
	v0 = vec{0, 0, 1}
	v1 = vec{1, 0, 0}
	v2 = vec{0, 1, 0}
	v3 = vec{-1, 0, 0}
	v4 = vec{0, -1, 0}
	v5 = vec{0, 0, -1}
)

// rootTriangles lists S0-S3 then N0-N3, matching ids 8-15.
var rootTriangles = [8]triangle{
	{v1, v5, v2},
	{v2, v5, v3},
	{v3, v5, v4},
	{v4, v5, v1},
	{v1, v0, v4},
	{v4, v0, v3},
	{v3, v0, v2},
	{v2, v0, v1},
}

func vecFromSky(ra, dec float64) vec {
	raRad := ra * math.Pi / 180
	decRad := dec * math.Pi / 180
	cd := math.Cos(decRad)
	return vec{
		x: math.Cos(raRad) * cd,
		y: math.Sin(raRad) * cd,
		z: math.Sin(decRad),
	}
}

func cross(a, b vec) vec {
	return vec{
		x: a.y*b.z - a.z*b.y,
		y: a.z*b.x - a.x*b.z,
		z: a.x*b.y - a.y*b.x,
	}
}

func dot(a, b vec) float64 {
	return a.x*b.x + a.y*b.y + a.z*b.z
}

func mid(a, b vec) vec {
	m := vec{a.x + b.x, a.y + b.y, a.z + b.z}
	n := math.Sqrt(dot(m, m))
	return vec{m.x / n, m.y / n, m.z / n}
}

// score returns the smallest signed distance from p to the triangle's three
// edge planes. The containing triangle has the largest score; picking the
// maximum keeps points on shared edges assigned deterministically.
func score(t triangle, p vec) float64 {
	s := dot(cross(t[0], t[1]), p)
	if d := dot(cross(t[1], t[2]), p); d < s {
		s = d
	}
	if d := dot(cross(t[2], t[0]), p); d < s {
		s = d
	}
	return s
}
