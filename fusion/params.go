package fusion

import (
	"fmt"
	"runtime"
	"strconv"
)

const (
	// DefaultThreshold is the margin above the uniform-agreement baseline
	// a plurality must reach before a voxel counts as high confidence.
	DefaultThreshold = 0.2

	// DefaultPatchLength is the patch radius used for intensity model fits.
	DefaultPatchLength = 5

	// DefaultAlpha weights the doubleton potential against the singleton.
	DefaultAlpha = 1.0

	// DefaultBeta is the distance decay for neighborhood disagreement.
	DefaultBeta = 0.5

	// DefaultVarianceFloor regularizes degenerate Gaussian fits.
	DefaultVarianceFloor = 1e-3

	// DefaultBlockSize is the edge length of bounding-box chunks, in voxels.
	DefaultBlockSize = 32
)

// Params holds the run-wide fusion parameters.  A Params value is
// immutable once handed to Fuse, so one value can drive any number of
// concurrent runs.
type Params struct {
	// Threshold is added to the uniform-agreement baseline 1/N when
	// classifying voxel confidence.  Must lie in [0, 1).
	Threshold float64 `toml:"threshold"`

	// LabelThresholds optionally overrides Threshold per label.  Keys are
	// decimal label values; entries must lie in [0, 1).  The threshold
	// applied at a voxel is the one for its majority-vote label.
	LabelThresholds map[string]float64 `toml:"label_thresholds"`

	// PatchLength is the patch radius: intensity models are fit over a
	// cube of edge 2*PatchLength+1 centered on the voxel, clipped at
	// volume bounds.
	PatchLength int32 `toml:"patch_length"`

	// Alpha is the weight of the doubleton potential in the MRF energy.
	Alpha float64 `toml:"alpha"`

	// Beta is the distance decay of neighbor vote weights, exp(-Beta*d).
	Beta float64 `toml:"beta"`

	// VarianceFloor is the minimum variance allowed for a fitted
	// intensity model.
	VarianceFloor float64 `toml:"variance_floor"`

	// BlockSize is the edge length of the chunks low-confidence voxels
	// are grouped into for parallel resolution.
	BlockSize int32 `toml:"block_size"`

	// Workers caps the number of boxes resolved concurrently.  Zero
	// means one worker per CPU.
	Workers int `toml:"workers"`

	// MemoryBudget caps the estimated bytes of box caches resident at
	// once.  Zero means no cap.
	MemoryBudget int64 `toml:"memory_budget"`

	// ForegroundOnly restricts processing to the padded bounding box of
	// voxels with any non-background vote.  Results are identical either
	// way since everything outside that box is unanimously background.
	ForegroundOnly bool `toml:"foreground_only"`
}

// DefaultParams returns the parameter set used when a caller or config
// file doesn't say otherwise.
func DefaultParams() Params {
	return Params{
		Threshold:     DefaultThreshold,
		PatchLength:   DefaultPatchLength,
		Alpha:         DefaultAlpha,
		Beta:          DefaultBeta,
		VarianceFloor: DefaultVarianceFloor,
		BlockSize:     DefaultBlockSize,
	}
}

// Validate checks every parameter and returns the first violation found.
func (p Params) Validate() error {
	if p.Threshold < 0 || p.Threshold >= 1 {
		return fmt.Errorf("threshold %g outside [0, 1)", p.Threshold)
	}
	for key, t := range p.LabelThresholds {
		if _, err := strconv.ParseUint(key, 10, 64); err != nil {
			return fmt.Errorf("label threshold key %q is not a label value: %v", key, err)
		}
		if t < 0 || t >= 1 {
			return fmt.Errorf("threshold %g for label %s outside [0, 1)", t, key)
		}
	}
	if p.PatchLength < 0 {
		return fmt.Errorf("patch length %d is negative", p.PatchLength)
	}
	if p.Alpha < 0 {
		return fmt.Errorf("alpha %g is negative", p.Alpha)
	}
	if p.Beta < 0 {
		return fmt.Errorf("beta %g is negative", p.Beta)
	}
	if p.VarianceFloor <= 0 {
		return fmt.Errorf("variance floor %g must be positive", p.VarianceFloor)
	}
	if p.BlockSize < 1 {
		return fmt.Errorf("block size %d must be at least 1", p.BlockSize)
	}
	if p.Workers < 0 {
		return fmt.Errorf("worker count %d is negative", p.Workers)
	}
	if p.MemoryBudget < 0 {
		return fmt.Errorf("memory budget %d is negative", p.MemoryBudget)
	}
	return nil
}

// thresholds resolves the per-label threshold table into label keys.
// Validate must have passed already.
func (p Params) thresholds() map[uint64]float64 {
	if len(p.LabelThresholds) == 0 {
		return nil
	}
	byLabel := make(map[uint64]float64, len(p.LabelThresholds))
	for key, t := range p.LabelThresholds {
		label, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		byLabel[label] = t
	}
	return byLabel
}

// thresholdFor returns the confidence threshold applied to a voxel whose
// majority-vote label is the given label.
func thresholdFor(label uint64, base float64, byLabel map[uint64]float64) float64 {
	if t, ok := byLabel[label]; ok {
		return t
	}
	return base
}

// workerCount returns the effective worker pool size.
func (p Params) workerCount() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}
