package volume

import (
	"fmt"
	"sort"

	"github.com/janelia-flyem/pubmrf/pubmrf"
)

// VoteVolume records, for every voxel, the label chosen by each of the
// contributing atlas segmentations.  Records are fixed width (one slot
// per atlas), so per-voxel vote counts always sum to the atlas count and
// a voxel can never carry zero votes.
type VoteVolume struct {
	Grid
	numAtlases int
	records    []uint64 // voxel-major, records[i*numAtlases : (i+1)*numAtlases]
}

// TallyAtlases builds a vote volume from candidate segmentations that all
// share a grid.  At least one atlas is required.
func TallyAtlases(atlases []*LabelVolume) (*VoteVolume, error) {
	if len(atlases) == 0 {
		return nil, fmt.Errorf("cannot tally votes without at least one atlas segmentation")
	}
	size := atlases[0].Size()
	g, err := newGrid(size)
	if err != nil {
		return nil, err
	}
	for i, atlas := range atlases {
		if err := checkGridMatch(fmt.Sprintf("atlas %d", i), atlas.Size(), size); err != nil {
			return nil, err
		}
	}

	numAtlases := len(atlases)
	records := make([]uint64, g.NumVoxels()*int64(numAtlases))
	labelSets := make([]map[uint64]struct{}, numAtlases)
	for i, atlas := range atlases {
		seen := make(map[uint64]struct{})
		offset := int64(i)
		for vi, label := range atlas.labels {
			records[int64(vi)*int64(numAtlases)+offset] = label
			seen[label] = struct{}{}
		}
		labelSets[i] = seen
	}
	warnLabelDrift(labelSets)
	return &VoteVolume{g, numAtlases, records}, nil
}

// warnLabelDrift reports atlases whose label sets lack labels the other
// atlases carry.  Registration can legitimately drop small structures
// from individual atlases, so drift is a warning rather than an error.
func warnLabelDrift(labelSets []map[uint64]struct{}) {
	union := make(map[uint64]struct{})
	for _, set := range labelSets {
		for label := range set {
			union[label] = struct{}{}
		}
	}
	for i, set := range labelSets {
		if len(set) == len(union) {
			continue
		}
		var missing []uint64
		for label := range union {
			if _, ok := set[label]; !ok {
				missing = append(missing, label)
			}
		}
		sort.Slice(missing, func(a, b int) bool { return missing[a] < missing[b] })
		if len(missing) > 10 {
			pubmrf.Warningf("atlas %d never votes for %d labels other atlases carry, starting with %v\n",
				i, len(missing), missing[:10])
		} else {
			pubmrf.Warningf("atlas %d never votes for labels other atlases carry: %v\n", i, missing)
		}
	}
}

// NewVoteVolume returns a vote volume where every atlas votes for the
// background label 0 at every voxel.  Votes are then filled in with
// SetVotes.
func NewVoteVolume(size Point3d, numAtlases int) (*VoteVolume, error) {
	g, err := newGrid(size)
	if err != nil {
		return nil, err
	}
	if numAtlases < 1 {
		return nil, fmt.Errorf("vote volume needs at least one atlas, got %d", numAtlases)
	}
	return &VoteVolume{g, numAtlases, make([]uint64, g.NumVoxels()*int64(numAtlases))}, nil
}

// NewVoteVolumeFromRecords wraps previously tallied per-voxel vote
// records, e.g. read back from a snapshot file.  The records must hold
// numAtlases labels per voxel in voxel-major order.
func NewVoteVolumeFromRecords(size Point3d, numAtlases int, records []uint64) (*VoteVolume, error) {
	g, err := newGrid(size)
	if err != nil {
		return nil, err
	}
	if numAtlases < 1 {
		return nil, fmt.Errorf("vote volume needs at least one atlas, got %d", numAtlases)
	}
	if expected := g.NumVoxels() * int64(numAtlases); int64(len(records)) != expected {
		return nil, fmt.Errorf("vote records have %d labels, expected %d for size %s with %d atlases",
			len(records), expected, size, numAtlases)
	}
	return &VoteVolume{g, numAtlases, records}, nil
}

// NumAtlases returns the number of atlas segmentations that contributed votes.
func (v *VoteVolume) NumAtlases() int {
	return v.numAtlases
}

// Records returns the voxel-major vote records backing the volume.  The
// slice aliases internal storage and must not be modified.
func (v *VoteVolume) Records() []uint64 {
	return v.records
}

// VotesAt returns the per-atlas labels voted at the given voxel.  The
// returned slice aliases internal storage and must not be modified.
func (v *VoteVolume) VotesAt(p Point3d) []uint64 {
	i := v.Index(p) * int64(v.numAtlases)
	return v.records[i : i+int64(v.numAtlases) : i+int64(v.numAtlases)]
}

// SetVotes overwrites the votes at the given voxel with the given label
// counts.  The counts must be non-negative and sum to the atlas count;
// violations are reported with the offending voxel coordinate.
func (v *VoteVolume) SetVotes(p Point3d, counts map[uint64]int) error {
	if !v.Contains(p) {
		return fmt.Errorf("voxel %s outside volume bounds %s", p, v.size)
	}
	var sum int
	for label, count := range counts {
		if count < 0 {
			return fmt.Errorf("vote count for label %d at voxel %s is negative (%d)", label, p, count)
		}
		sum += count
	}
	if sum != v.numAtlases {
		return fmt.Errorf("votes at voxel %s sum to %d, expected %d", p, sum, v.numAtlases)
	}

	// Lay the record out in ascending label order so equal vote maps
	// always produce identical records.
	labels := make([]uint64, 0, len(counts))
	for label, count := range counts {
		if count > 0 {
			labels = append(labels, label)
		}
	}
	sort.Slice(labels, func(a, b int) bool { return labels[a] < labels[b] })

	rec := v.records[v.Index(p)*int64(v.numAtlases):]
	var slot int
	for _, label := range labels {
		for n := 0; n < counts[label]; n++ {
			rec[slot] = label
			slot++
		}
	}
	return nil
}

// TallyAt returns the distinct labels voted at the given voxel in
// ascending order, along with the vote count for each.
func (v *VoteVolume) TallyAt(p Point3d) (labels []uint64, counts []int) {
	votes := v.VotesAt(p)
	sorted := make([]uint64, len(votes))
	copy(sorted, votes)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		labels = append(labels, sorted[i])
		counts = append(counts, j-i)
		i = j
	}
	return
}

// Majority returns the label with the most votes at the given voxel.
// Ties go to the smallest label.
func (v *VoteVolume) Majority(p Point3d) uint64 {
	labels, counts := v.TallyAt(p)
	best := labels[0]
	bestCount := counts[0]
	for i := 1; i < len(labels); i++ {
		if counts[i] > bestCount {
			best = labels[i]
			bestCount = counts[i]
		}
	}
	return best
}

// ForegroundExtents returns the extents of voxels where any atlas voted a
// non-background label.  The extents are empty if every vote everywhere
// is background.
func (v *VoteVolume) ForegroundExtents() *pubmrf.Extents {
	ext := pubmrf.NewExtents()
	var i int64
	for z := int32(0); z < v.size[2]; z++ {
		for y := int32(0); y < v.size[1]; y++ {
			for x := int32(0); x < v.size[0]; x++ {
				rec := v.records[i*int64(v.numAtlases) : (i+1)*int64(v.numAtlases)]
				for _, label := range rec {
					if label != 0 {
						pt := Point3d{x, y, z}
						ext.AdjustPoints(pt, pt)
						break
					}
				}
				i++
			}
		}
	}
	return ext
}
