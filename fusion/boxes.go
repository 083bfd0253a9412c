package fusion

import (
	"github.com/janelia-flyem/pubmrf/pubmrf"
	"github.com/janelia-flyem/pubmrf/volume"
)

// workBox groups the low-confidence voxels of one chunk together with the
// halo needed to resolve them.  Cores partition the grid, so every
// low-confidence voxel is owned by exactly one box and output writes
// never collide.  Halos extend cores by the patch radius and may overlap;
// they are only read.
type workBox struct {
	chunk pubmrf.ChunkPoint3d
	core  *pubmrf.Subvolume
	halo  *pubmrf.Subvolume
	low   []volume.Point3d
}

// cacheBytes estimates the resident size of the box's halo caches: one
// float32 intensity and one uint64 label per halo voxel.
func (b *workBox) cacheBytes() int64 {
	return b.halo.NumVoxels() * 12
}

// partitionLow groups low-confidence voxels into chunk-aligned boxes.
// Chunks without low-confidence voxels get no box at all, so untouched
// regions are never extracted or scanned again.  Box order follows first
// appearance in the voxel list, which keeps runs reproducible.
func partitionLow(low []volume.Point3d, blockSize, pad int32, bounds *pubmrf.Subvolume) []*workBox {
	chunkSize := pubmrf.Point3d{blockSize, blockSize, blockSize}
	byChunk := make(map[pubmrf.ChunkPoint3d]*workBox)
	var boxes []*workBox

	for _, v := range low {
		chunk := v.Chunk(chunkSize)
		box, found := byChunk[chunk]
		if !found {
			core := pubmrf.NewSubvolume(chunk.MinPoint(chunkSize), chunkSize).Clip(bounds)
			halo := pubmrf.NewSubvolume(
				core.StartPoint().AddScalar(-pad),
				core.Size().AddScalar(2*pad),
			).Clip(bounds)
			box = &workBox{chunk: chunk, core: core, halo: halo}
			byChunk[chunk] = box
			boxes = append(boxes, box)
		}
		box.low = append(box.low, v)
	}
	return boxes
}
