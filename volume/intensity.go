package volume

import (
	"fmt"

	"github.com/janelia-flyem/pubmrf/pubmrf"
)

// IntensityVolume holds the subject image intensities sampled on the grid.
type IntensityVolume struct {
	Grid
	data []float32
}

// NewIntensityVolume wraps the given intensity data, which must hold one
// value per grid voxel in x-fastest order.
func NewIntensityVolume(size Point3d, data []float32) (*IntensityVolume, error) {
	g, err := newGrid(size)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != g.NumVoxels() {
		return nil, fmt.Errorf("intensity data has %d values, expected %d for size %s",
			len(data), g.NumVoxels(), size)
	}
	return &IntensityVolume{g, data}, nil
}

// Value returns the intensity at the given voxel.  Callers are responsible
// for bounds checking via Contains.
func (v *IntensityVolume) Value(p Point3d) float32 {
	return v.data[v.Index(p)]
}

// Data returns the underlying intensity array in x-fastest order.
func (v *IntensityVolume) Data() []float32 {
	return v.data
}

// Subvolume copies the requested box out of the volume into a contiguous
// x-fastest array.  The box must lie fully within the volume.
func (v *IntensityVolume) Subvolume(sub *pubmrf.Subvolume) ([]float32, error) {
	begPt, endPt, err := v.subvolumeBounds(sub)
	if err != nil {
		return nil, err
	}
	data := make([]float32, sub.NumVoxels())

	// Compute the strides (in elements)
	sX := int64(v.size[0])
	sY := int64(v.size[1]) * sX
	span := int64(endPt[0]-begPt[0]) + 1

	var dstI int64
	for z := int64(begPt[2]); z <= int64(endPt[2]); z++ {
		srcI := z*sY + int64(begPt[1])*sX + int64(begPt[0])
		for y := int64(begPt[1]); y <= int64(endPt[1]); y++ {
			copy(data[dstI:dstI+span], v.data[srcI:srcI+span])
			srcI += sX
			dstI += span
		}
	}
	return data, nil
}
