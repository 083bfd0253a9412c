package fusion

import (
	"math"

	"github.com/janelia-flyem/pubmrf/pubmrf"
	"github.com/janelia-flyem/pubmrf/volume"
)

// neighborTable holds the 26-connected neighborhood offsets together with
// their distance-decayed weights exp(-beta*d), where d is 1 for face
// neighbors, sqrt(2) for edge neighbors, and sqrt(3) for corner neighbors.
type neighborTable struct {
	offsets [26]pubmrf.Point3d
	weights [26]float64
}

func newNeighborTable(beta float64) *neighborTable {
	var tbl neighborTable
	i := 0
	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				d := math.Sqrt(float64(dx*dx + dy*dy + dz*dz))
				tbl.offsets[i] = pubmrf.Point3d{dx, dy, dz}
				tbl.weights[i] = math.Exp(-beta * d)
				i++
			}
		}
	}
	return &tbl
}

// doubleton sums distance-weighted disagreement over the voxel's
// in-bounds 26-neighborhood: every vote cast at a neighbor for a label
// other than the candidate contributes that neighbor's weight.  Neighbors
// outside the volume are excluded.  With beta of zero this reduces to the
// plain count of disagreeing neighbor votes.
func (tbl *neighborTable) doubleton(votes *volume.VoteVolume, v volume.Point3d, candidate uint64) float64 {
	var sum float64
	numAtlases := votes.NumAtlases()
	for i, offset := range tbl.offsets {
		n := v.Add(offset)
		if !votes.Contains(n) {
			continue
		}
		agree := 0
		for _, label := range votes.VotesAt(n) {
			if label == candidate {
				agree++
			}
		}
		sum += tbl.weights[i] * float64(numAtlases-agree)
	}
	return sum
}
