package volume

import (
	"fmt"

	"github.com/janelia-flyem/pubmrf/pubmrf"
)

// Grid describes the dense 3d lattice shared by all volumes in a fusion
// run.  Voxels are stored in x-fastest order.
type Grid struct {
	size Point3d
}

// Point3d is re-exported to keep volume call sites terse.
type Point3d = pubmrf.Point3d

func newGrid(size Point3d) (Grid, error) {
	if size[0] < 1 || size[1] < 1 || size[2] < 1 {
		return Grid{}, fmt.Errorf("volume size %s must be at least 1 voxel in every dimension", size)
	}
	return Grid{size}, nil
}

// NewGrid returns the grid for the given size without allocating voxel
// storage, e.g. for coordinate arithmetic while streaming a file.
func NewGrid(size Point3d) (Grid, error) {
	return newGrid(size)
}

// Size returns the grid size in voxels along (x, y, z).
func (g Grid) Size() Point3d {
	return g.size
}

// NumVoxels returns the total number of voxels in the grid.
func (g Grid) NumVoxels() int64 {
	return g.size.Prod()
}

// Bounds returns the subvolume covering the whole grid.
func (g Grid) Bounds() *pubmrf.Subvolume {
	return pubmrf.NewSubvolume(Point3d{0, 0, 0}, g.size)
}

// Contains returns true if the voxel coordinate lies within the grid.
func (g Grid) Contains(p Point3d) bool {
	return p[0] >= 0 && p[0] < g.size[0] &&
		p[1] >= 0 && p[1] < g.size[1] &&
		p[2] >= 0 && p[2] < g.size[2]
}

// Index returns the flat array index of the given voxel coordinate.
// Callers are responsible for bounds checking via Contains.
func (g Grid) Index(p Point3d) int64 {
	return int64(p[0]) + int64(p[1])*int64(g.size[0]) + int64(p[2])*int64(g.size[0])*int64(g.size[1])
}

// PointAt returns the voxel coordinate of the given flat array index.
func (g Grid) PointAt(i int64) Point3d {
	nx := int64(g.size[0])
	nxy := nx * int64(g.size[1])
	z := i / nxy
	rem := i % nxy
	return Point3d{int32(rem % nx), int32(rem / nx), int32(z)}
}

// checkGridMatch returns an error naming both sizes when two volumes that
// must share a grid do not.
func checkGridMatch(what string, got, expected Point3d) error {
	if got != expected {
		return fmt.Errorf("%s has size %s, expected %s", what, got, expected)
	}
	return nil
}

// subvolumeBounds validates that the requested box lies fully within the
// grid and returns its start and end voxel coordinates.
func (g Grid) subvolumeBounds(sub *pubmrf.Subvolume) (begPt, endPt Point3d, err error) {
	begPt = sub.StartPoint()
	endPt = sub.EndPoint()
	if !g.Contains(begPt) || !g.Contains(endPt) {
		err = fmt.Errorf("subvolume %s exceeds volume bounds %s", sub, g.size)
	}
	return
}
