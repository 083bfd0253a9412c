package fusion

import (
	"fmt"
	"math"

	"github.com/janelia-flyem/pubmrf/pubmrf"
	"github.com/janelia-flyem/pubmrf/volume"
)

// boxCache holds the contiguous local copies a worker reads while
// resolving the low-confidence voxels of one box: subject intensities and
// the initial majority-vote labels over the box's halo.
type boxCache struct {
	halo      *pubmrf.Subvolume
	dims      volume.Point3d
	intensity []float32
	majority  []uint64
}

func newBoxCache(halo *pubmrf.Subvolume, intensity *volume.IntensityVolume, majority *volume.LabelVolume) (*boxCache, error) {
	data, err := intensity.Subvolume(halo)
	if err != nil {
		return nil, err
	}
	labels, err := majority.Subvolume(halo)
	if err != nil {
		return nil, err
	}
	return &boxCache{halo, halo.Size(), data, labels}, nil
}

// index maps a global voxel coordinate into the halo-local arrays.
func (c *boxCache) index(p volume.Point3d) int64 {
	local := p.Sub(c.halo.StartPoint())
	return int64(local[0]) + int64(local[1])*int64(c.dims[0]) + int64(local[2])*int64(c.dims[0])*int64(c.dims[1])
}

// resolver carries the read-only state shared by every voxel resolution
// within one run.
type resolver struct {
	votes     *volume.VoteVolume
	neighbors *neighborTable
	bounds    *pubmrf.Subvolume
	patchLen  int32
	alpha     float64
	floor     float64
}

func newResolver(votes *volume.VoteVolume, params Params) *resolver {
	return &resolver{
		votes:     votes,
		neighbors: newNeighborTable(params.Beta),
		bounds:    votes.Bounds(),
		patchLen:  params.PatchLength,
		alpha:     params.Alpha,
		floor:     params.VarianceFloor,
	}
}

// resolveVoxel picks the minimal-energy candidate label for one
// low-confidence voxel.  Ties go to the smallest label.  The returned
// error marks per-voxel failures where the caller keeps the majority-vote
// label instead.
func (r *resolver) resolveVoxel(cache *boxCache, v volume.Point3d) (uint64, error) {
	intensity := float64(cache.intensity[cache.index(v)])
	if math.IsNaN(intensity) || math.IsInf(intensity, 0) {
		return 0, fmt.Errorf("non-finite intensity %g", intensity)
	}

	candidates, _ := r.votes.TallyAt(v)

	// One pass over the patch collects the sample set of every candidate
	// plus the patch-wide intensities used by fallback fits.
	patchBeg, _ := v.AddScalar(-r.patchLen).Max(r.bounds.StartPoint())
	patchEnd, _ := v.AddScalar(r.patchLen).Min(r.bounds.EndPoint())
	numPatch := patchEnd.Sub(patchBeg).AddScalar(1).Prod()

	patch := make([]float64, 0, numPatch)
	samples := make(map[uint64][]float64, len(candidates))
	for _, label := range candidates {
		samples[label] = nil
	}
	for z := patchBeg[2]; z <= patchEnd[2]; z++ {
		for y := patchBeg[1]; y <= patchEnd[1]; y++ {
			idx := cache.index(volume.Point3d{patchBeg[0], y, z})
			for x := patchBeg[0]; x <= patchEnd[0]; x++ {
				val := float64(cache.intensity[idx])
				patch = append(patch, val)
				label := cache.majority[idx]
				if group, ok := samples[label]; ok {
					samples[label] = append(group, val)
				}
				idx++
			}
		}
	}

	var best uint64
	bestEnergy := math.Inf(1)
	found := false
	for _, label := range candidates {
		model := fitLabelModel(samples[label], patch, r.floor)
		energy := model.singleton(intensity) + r.alpha*r.neighbors.doubleton(r.votes, v, label)
		if energy < bestEnergy {
			best = label
			bestEnergy = energy
			found = true
		}
	}
	if !found {
		return 0, fmt.Errorf("no candidate label produced a finite energy")
	}
	return best, nil
}
