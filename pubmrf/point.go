/*
	This file supports voxel coordinates in 3d space.  All volumes handled
	by PUB-MRF are dense 3d grids, so points are concrete [3]int32 arrays
	rather than interfaces.
*/

package pubmrf

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Point3d is a 3d voxel coordinate in (x, y, z) order.
type Point3d [3]int32

// Value returns the point's value for the specified dimension without checking dim bounds.
func (p Point3d) Value(dim uint8) int32 {
	return p[dim]
}

// SetMinimum sets the point to the minimum elements of current and passed points.
func (p *Point3d) SetMinimum(p2 Point3d) {
	if p[0] > p2[0] {
		p[0] = p2[0]
	}
	if p[1] > p2[1] {
		p[1] = p2[1]
	}
	if p[2] > p2[2] {
		p[2] = p2[2]
	}
}

// SetMaximum sets the point to the maximum elements of current and passed points.
func (p *Point3d) SetMaximum(p2 Point3d) {
	if p[0] < p2[0] {
		p[0] = p2[0]
	}
	if p[1] < p2[1] {
		p[1] = p2[1]
	}
	if p[2] < p2[2] {
		p[2] = p2[2]
	}
}

// AddScalar adds a scalar value to each dimension of this point.
func (p Point3d) AddScalar(value int32) Point3d {
	return Point3d{p[0] + value, p[1] + value, p[2] + value}
}

// Add returns the addition of two points.
func (p Point3d) Add(p2 Point3d) Point3d {
	return Point3d{
		p[0] + p2[0],
		p[1] + p2[1],
		p[2] + p2[2],
	}
}

// Sub returns the subtraction of the passed point from the receiver.
func (p Point3d) Sub(p2 Point3d) Point3d {
	return Point3d{
		p[0] - p2[0],
		p[1] - p2[1],
		p[2] - p2[2],
	}
}

// Max returns a Point3d where each of its elements are the maximum of two points' elements.
func (p Point3d) Max(p2 Point3d) (Point3d, bool) {
	var changed bool
	result := p
	if p[0] < p2[0] {
		result[0] = p2[0]
		changed = true
	}
	if p[1] < p2[1] {
		result[1] = p2[1]
		changed = true
	}
	if p[2] < p2[2] {
		result[2] = p2[2]
		changed = true
	}
	return result, changed
}

// Min returns a Point3d where each of its elements are the minimum of two points' elements.
func (p Point3d) Min(p2 Point3d) (Point3d, bool) {
	var changed bool
	result := p
	if p[0] > p2[0] {
		result[0] = p2[0]
		changed = true
	}
	if p[1] > p2[1] {
		result[1] = p2[1]
		changed = true
	}
	if p[2] > p2[2] {
		result[2] = p2[2]
		changed = true
	}
	return result, changed
}

// Prod returns the product of the point's elements.
func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// ToBytes returns a fixed-length little-endian encoding of the point.
func (p Point3d) ToBytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, p[0])
	binary.Write(buf, binary.LittleEndian, p[1])
	binary.Write(buf, binary.LittleEndian, p[2])
	return buf.Bytes()
}

// PointFromBytes returns a Point3d from bytes written by ToBytes.
func PointFromBytes(b []byte) (readPt Point3d, err error) {
	buf := bytes.NewReader(b)
	if err = binary.Read(buf, binary.LittleEndian, &(readPt[0])); err != nil {
		return
	}
	if err = binary.Read(buf, binary.LittleEndian, &(readPt[1])); err != nil {
		return
	}
	if err = binary.Read(buf, binary.LittleEndian, &(readPt[2])); err != nil {
		return
	}
	return
}

// Chunk returns the chunk space coordinate of the chunk containing the point.
func (p Point3d) Chunk(size Point3d) ChunkPoint3d {
	var c0, c1, c2 int32
	if p[0] < 0 {
		c0 = (p[0] - size[0] + 1) / size[0]
	} else {
		c0 = p[0] / size[0]
	}
	if p[1] < 0 {
		c1 = (p[1] - size[1] + 1) / size[1]
	} else {
		c1 = p[1] / size[1]
	}
	if p[2] < 0 {
		c2 = (p[2] - size[2] + 1) / size[2]
	} else {
		c2 = p[2] / size[2]
	}
	return ChunkPoint3d{c0, c1, c2}
}

// PointInChunk returns the point in containing chunk space for the given point.
func (p Point3d) PointInChunk(size Point3d) Point3d {
	var p0, p1, p2 int32
	if p[0] < 0 {
		p0 = size[0] - ((p[0]+1)%size[0]) - 1
	} else {
		p0 = p[0] % size[0]
	}
	if p[1] < 0 {
		p1 = size[1] - ((p[1]+1)%size[1]) - 1
	} else {
		p1 = p[1] % size[1]
	}
	if p[2] < 0 {
		p2 = size[2] - ((p[2]+1)%size[2]) - 1
	} else {
		p2 = p[2] % size[2]
	}
	return Point3d{p0, p1, p2}
}

// ChunkPoint3d handles 3d signed chunk coordinates.
type ChunkPoint3d [3]int32

func (c ChunkPoint3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c[0], c[1], c[2])
}

// Value returns the value at the specified dimension.
func (c ChunkPoint3d) Value(dim uint8) int32 {
	return c[dim]
}

// MinPoint returns the smallest voxel coordinate of the given 3d chunk.
func (c ChunkPoint3d) MinPoint(size Point3d) Point3d {
	return Point3d{
		c[0] * size[0],
		c[1] * size[1],
		c[2] * size[2],
	}
}

// MaxPoint returns the largest voxel coordinate of the given 3d chunk.
func (c ChunkPoint3d) MaxPoint(size Point3d) Point3d {
	return Point3d{
		c[0]*size[0] + size[0] - 1,
		c[1]*size[1] + size[1] - 1,
		c[2]*size[2] + size[2] - 1,
	}
}
