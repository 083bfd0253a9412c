package fusion

import (
	"math"
	"testing"

	"github.com/janelia-flyem/pubmrf/volume"
)

func TestFitLabelModel(t *testing.T) {
	samples := []float64{10, 12, 14, 12, 12}
	model := fitLabelModel(samples, samples, 1e-3)
	if math.Abs(model.mean-12) > 1e-12 {
		t.Errorf("mean got %g, expected 12", model.mean)
	}
	if model.sigma <= 0 {
		t.Errorf("sigma must be positive, got %g", model.sigma)
	}

	// Constant samples hit the variance floor instead of a zero sigma.
	constant := []float64{7, 7, 7, 7}
	model = fitLabelModel(constant, constant, 1e-3)
	if model.sigma != math.Sqrt(1e-3) {
		t.Errorf("floored sigma got %g, expected %g", model.sigma, math.Sqrt(1e-3))
	}

	// Under two samples the fit falls back to the patch-wide mean.
	patch := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	model = fitLabelModel([]float64{42}, patch, 1e-3)
	if math.Abs(model.mean-5) > 1e-12 {
		t.Errorf("fallback mean got %g, expected patch mean 5", model.mean)
	}
}

func TestSingletonMinimalAtFit(t *testing.T) {
	// When every sample for a label equals c and the voxel's intensity is
	// also c, no other intensity can score a lower singleton.
	c := 23.5
	samples := []float64{c, c, c, c}
	model := fitLabelModel(samples, samples, 1e-3)

	atFit := model.singleton(c)
	for _, off := range []float64{0.5, 1, 5, -3} {
		if away := model.singleton(c + off); away <= atFit {
			t.Errorf("singleton at offset %g got %g, expected above %g", off, away, atFit)
		}
	}

	// A label fitted far from the intensity scores worse.
	far := fitLabelModel([]float64{100, 101, 99, 100}, samples, 1e-3)
	if far.singleton(c) <= atFit {
		t.Errorf("divergent label should have larger singleton")
	}
}

// doubletonFixture builds a single-atlas volume that is all label 1
// except label 2 at the face neighbor (0,1,1) of the center of a 3x3x3
// grid.
func doubletonFixture(t *testing.T) *volume.VoteVolume {
	t.Helper()
	size := volume.Point3d{3, 3, 3}
	labels := make([]uint64, size.Prod())
	for i := range labels {
		labels[i] = 1
	}
	atlas, err := volume.NewLabelVolumeFromData(size, labels)
	if err != nil {
		t.Fatalf("NewLabelVolumeFromData: %v", err)
	}
	atlas.SetLabel(volume.Point3d{0, 1, 1}, 2)
	votes, err := volume.TallyAtlases([]*volume.LabelVolume{atlas})
	if err != nil {
		t.Fatalf("TallyAtlases: %v", err)
	}
	return votes
}

func TestDoubletonCounts(t *testing.T) {
	votes := doubletonFixture(t)
	center := volume.Point3d{1, 1, 1}

	// With beta 0 every weight is 1, so the doubleton is the plain count
	// of disagreeing neighbor votes.
	tbl := newNeighborTable(0)
	if got := tbl.doubleton(votes, center, 1); got != 1 {
		t.Errorf("doubleton(1) at beta 0 got %g, expected 1", got)
	}
	if got := tbl.doubleton(votes, center, 2); got != 25 {
		t.Errorf("doubleton(2) at beta 0 got %g, expected 25", got)
	}

	// The lone disagreeing vote sits at distance 1, so its weight is
	// exp(-beta).
	tbl = newNeighborTable(0.5)
	expected := math.Exp(-0.5)
	if got := tbl.doubleton(votes, center, 1); math.Abs(got-expected) > 1e-12 {
		t.Errorf("doubleton(1) at beta 0.5 got %g, expected %g", got, expected)
	}
}

func TestDoubletonClipsAtBounds(t *testing.T) {
	votes := doubletonFixture(t)
	corner := volume.Point3d{2, 2, 2}

	// A corner voxel has only 7 in-bounds neighbors, all voting label 1
	// in this fixture since the label 2 voxel is out of its reach.
	tbl := newNeighborTable(0)
	if got := tbl.doubleton(votes, corner, 1); got != 0 {
		t.Errorf("corner doubleton(1) got %g, expected 0", got)
	}
	if got := tbl.doubleton(votes, corner, 3); got != 7 {
		t.Errorf("corner doubleton(3) got %g, expected 7", got)
	}
}

func TestNeighborTableWeights(t *testing.T) {
	beta := 0.25
	tbl := newNeighborTable(beta)
	for i, offset := range tbl.offsets {
		d := math.Sqrt(float64(offset[0]*offset[0] + offset[1]*offset[1] + offset[2]*offset[2]))
		if d < 1 || d > math.Sqrt(3)+1e-12 {
			t.Fatalf("offset %s has distance %g outside the 26-neighborhood", offset, d)
		}
		expected := math.Exp(-beta * d)
		if math.Abs(tbl.weights[i]-expected) > 1e-12 {
			t.Errorf("weight for offset %s got %g, expected %g", offset, tbl.weights[i], expected)
		}
	}
}
