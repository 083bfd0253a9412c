package fusion

// Confidence marks whether a voxel's votes are decisive on their own.
type Confidence uint8

const (
	// HighConfidence voxels take their majority-vote label directly.
	HighConfidence Confidence = iota

	// LowConfidence voxels go through MRF energy minimization.
	LowConfidence
)

func (c Confidence) String() string {
	switch c {
	case HighConfidence:
		return "high confidence"
	case LowConfidence:
		return "low confidence"
	default:
		return "unknown confidence"
	}
}

// classify decides voxel confidence from its tallied votes.  A voxel is
// low confidence iff every label's vote proportion falls short of the
// uniform-agreement baseline 1/N plus the threshold for the voxel's
// majority label.  Unanimous voxels are always high confidence.
//
// The labels slice must be in ascending order as returned by TallyAt, so
// the scan for the majority label breaks ties toward the smallest label.
func classify(labels []uint64, counts []int, numAtlases int, base float64, byLabel map[uint64]float64) (Confidence, uint64) {
	majority := labels[0]
	majorityCount := counts[0]
	for i := 1; i < len(labels); i++ {
		if counts[i] > majorityCount {
			majority = labels[i]
			majorityCount = counts[i]
		}
	}

	if len(labels) == 1 {
		return HighConfidence, majority
	}

	t := thresholdFor(majority, base, byLabel)
	baseline := 1.0 / float64(len(labels))
	proportion := float64(majorityCount) / float64(numAtlases)
	if proportion >= baseline+t {
		return HighConfidence, majority
	}
	return LowConfidence, majority
}
