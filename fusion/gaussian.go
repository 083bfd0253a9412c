package fusion

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// labelModel is the Gaussian intensity model fitted for one candidate
// label within a patch.
type labelModel struct {
	mean  float64
	sigma float64
}

// fitLabelModel estimates a Gaussian from the intensities of patch voxels
// whose majority-vote label matches the candidate.  A fit needs at least
// two samples; with fewer, the model falls back to the patch-wide mean
// intensity with the variance floor.  Zero-variance fits are floored too.
func fitLabelModel(samples, patch []float64, varianceFloor float64) labelModel {
	if len(samples) < 2 {
		return labelModel{
			mean:  stat.Mean(patch, nil),
			sigma: math.Sqrt(varianceFloor),
		}
	}
	mean, variance := stat.MeanVariance(samples, nil)
	if variance < varianceFloor {
		variance = varianceFloor
	}
	return labelModel{mean, math.Sqrt(variance)}
}

// singleton returns the negative log likelihood of the intensity under
// the fitted model.  Lower values mean the intensity fits the label better.
func (m labelModel) singleton(intensity float64) float64 {
	normal := distuv.Normal{Mu: m.mean, Sigma: m.sigma}
	return -normal.LogProb(intensity)
}
