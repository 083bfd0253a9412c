/*
	This file supports 3d volume geometry: axis-aligned subvolumes and
	concurrency-safe extents tracking.
*/

package pubmrf

import (
	"fmt"
	"sync"
)

// Subvolume describes a 3d box given by an offset and a size.  The "Sub"
// prefix emphasizes that the box is usually a smaller portion of a full
// volume grid.
type Subvolume struct {
	offset Point3d
	size   Point3d
}

// NewSubvolume returns a Subvolume given a subvolume's origin and size.
func NewSubvolume(offset, size Point3d) *Subvolume {
	return &Subvolume{offset, size}
}

func (s *Subvolume) Size() Point3d {
	return s.size
}

func (s *Subvolume) NumVoxels() int64 {
	if s == nil {
		return 0
	}
	return s.size.Prod()
}

// StartPoint returns the offset to the first voxel of the subvolume.
func (s *Subvolume) StartPoint() Point3d {
	return s.offset
}

// EndPoint returns the last voxel coordinate covered by the subvolume.
func (s *Subvolume) EndPoint() Point3d {
	return s.offset.Add(s.size.Sub(Point3d{1, 1, 1}))
}

// Contains returns true if the given voxel coordinate lies within the subvolume.
func (s *Subvolume) Contains(p Point3d) bool {
	end := s.EndPoint()
	return p[0] >= s.offset[0] && p[0] <= end[0] &&
		p[1] >= s.offset[1] && p[1] <= end[1] &&
		p[2] >= s.offset[2] && p[2] <= end[2]
}

// Clip returns the subvolume clipped against the given bounds, or nil if
// the two boxes do not overlap.
func (s *Subvolume) Clip(bounds *Subvolume) *Subvolume {
	begPt, _ := s.StartPoint().Max(bounds.StartPoint())
	endPt, _ := s.EndPoint().Min(bounds.EndPoint())
	if begPt[0] > endPt[0] || begPt[1] > endPt[1] || begPt[2] > endPt[2] {
		return nil
	}
	return &Subvolume{begPt, endPt.Sub(begPt).AddScalar(1)}
}

func (s *Subvolume) String() string {
	return fmt.Sprintf("%s at offset %s", s.size, s.offset)
}

// Extents holds the extents of processed voxels in absolute voxel coordinates.
type Extents struct {
	MinPoint Point3d
	MaxPoint Point3d

	empty   bool
	pointMu sync.Mutex
}

// NewExtents returns extents that have yet to see any point.
func NewExtents() *Extents {
	return &Extents{empty: true}
}

// Empty returns true if no points have adjusted the extents.
func (ext *Extents) Empty() bool {
	ext.pointMu.Lock()
	defer ext.pointMu.Unlock()
	return ext.empty
}

// AdjustPoints modifies extents based on new voxel coordinates in concurrency-safe manner.
func (ext *Extents) AdjustPoints(pointBeg, pointEnd Point3d) bool {
	ext.pointMu.Lock()
	defer ext.pointMu.Unlock()

	var changed bool
	if ext.empty {
		ext.MinPoint = pointBeg
		ext.MaxPoint = pointEnd
		ext.empty = false
		return true
	}
	var changedMin, changedMax bool
	ext.MinPoint, changedMin = ext.MinPoint.Min(pointBeg)
	ext.MaxPoint, changedMax = ext.MaxPoint.Max(pointEnd)
	changed = changedMin || changedMax
	return changed
}

// Subvolume returns the axis-aligned box covering the extents, or nil if
// the extents are empty.
func (ext *Extents) Subvolume() *Subvolume {
	ext.pointMu.Lock()
	defer ext.pointMu.Unlock()
	if ext.empty {
		return nil
	}
	return &Subvolume{ext.MinPoint, ext.MaxPoint.Sub(ext.MinPoint).AddScalar(1)}
}
