package volume

import (
	"fmt"

	"github.com/janelia-flyem/pubmrf/pubmrf"
)

// LabelVolume holds one uint64 label per grid voxel, either an atlas
// segmentation used as fusion input or a fused segmentation produced as
// output.
type LabelVolume struct {
	Grid
	labels []uint64
}

// NewLabelVolume returns a label volume of the given size with every
// voxel set to the background label 0.
func NewLabelVolume(size Point3d) (*LabelVolume, error) {
	g, err := newGrid(size)
	if err != nil {
		return nil, err
	}
	return &LabelVolume{g, make([]uint64, g.NumVoxels())}, nil
}

// NewLabelVolumeFromData wraps the given label data, which must hold one
// label per grid voxel in x-fastest order.
func NewLabelVolumeFromData(size Point3d, labels []uint64) (*LabelVolume, error) {
	g, err := newGrid(size)
	if err != nil {
		return nil, err
	}
	if int64(len(labels)) != g.NumVoxels() {
		return nil, fmt.Errorf("label data has %d values, expected %d for size %s",
			len(labels), g.NumVoxels(), size)
	}
	return &LabelVolume{g, labels}, nil
}

// Label returns the label at the given voxel.  Callers are responsible
// for bounds checking via Contains.
func (v *LabelVolume) Label(p Point3d) uint64 {
	return v.labels[v.Index(p)]
}

// SetLabel overwrites the label at the given voxel.
func (v *LabelVolume) SetLabel(p Point3d, label uint64) {
	v.labels[v.Index(p)] = label
}

// Data returns the underlying label array in x-fastest order.
func (v *LabelVolume) Data() []uint64 {
	return v.labels
}

// Clone returns a deep copy of the label volume.
func (v *LabelVolume) Clone() *LabelVolume {
	labels := make([]uint64, len(v.labels))
	copy(labels, v.labels)
	return &LabelVolume{v.Grid, labels}
}

// Subvolume copies the requested box out of the volume into a contiguous
// x-fastest array.  The box must lie fully within the volume.
func (v *LabelVolume) Subvolume(sub *pubmrf.Subvolume) ([]uint64, error) {
	begPt, endPt, err := v.subvolumeBounds(sub)
	if err != nil {
		return nil, err
	}
	labels := make([]uint64, sub.NumVoxels())

	// Compute the strides (in elements)
	sX := int64(v.size[0])
	sY := int64(v.size[1]) * sX
	span := int64(endPt[0]-begPt[0]) + 1

	var dstI int64
	for z := int64(begPt[2]); z <= int64(endPt[2]); z++ {
		srcI := z*sY + int64(begPt[1])*sX + int64(begPt[0])
		for y := int64(begPt[1]); y <= int64(endPt[1]); y++ {
			copy(labels[dstI:dstI+span], v.labels[srcI:srcI+span])
			srcI += sX
			dstI += span
		}
	}
	return labels, nil
}
