package fusion

import (
	"testing"
)

func TestClassifyUnanimous(t *testing.T) {
	// A single distinct label is high confidence for any threshold.
	for _, threshold := range []float64{0, 0.1, 0.5, 0.99} {
		confidence, majority := classify([]uint64{4}, []int{5}, 5, threshold, nil)
		if confidence != HighConfidence {
			t.Errorf("unanimous voxel at threshold %g got %s", threshold, confidence)
		}
		if majority != 4 {
			t.Errorf("unanimous majority got %d, expected 4", majority)
		}
	}
}

func TestClassifyPlurality(t *testing.T) {
	// At threshold zero the rule reduces to proportion >= 1/N.
	confidence, majority := classify([]uint64{1, 2}, []int{2, 1}, 3, 0, nil)
	if confidence != HighConfidence {
		t.Errorf("2-of-3 plurality at threshold 0 got %s", confidence)
	}
	if majority != 1 {
		t.Errorf("majority got %d, expected 1", majority)
	}

	// A perfectly uniform split sits exactly on the 1/N baseline.
	confidence, _ = classify([]uint64{1, 2, 3}, []int{1, 1, 1}, 3, 0, nil)
	if confidence != HighConfidence {
		t.Errorf("uniform split at threshold 0 got %s", confidence)
	}

	// Any positive threshold pushes the uniform split below the bar.
	confidence, majority = classify([]uint64{1, 2, 3}, []int{1, 1, 1}, 3, 0.1, nil)
	if confidence != LowConfidence {
		t.Errorf("uniform split at threshold 0.1 got %s", confidence)
	}
	if majority != 1 {
		t.Errorf("tied majority got %d, expected smallest label 1", majority)
	}
}

func TestClassifyPerLabelThreshold(t *testing.T) {
	labels := []uint64{3, 9}
	counts := []int{3, 2}

	// 3 of 5 votes with baseline 1/2: the 0.4 base threshold keeps the
	// voxel low confidence, but an override for the majority label flips it.
	confidence, _ := classify(labels, counts, 5, 0.4, nil)
	if confidence != LowConfidence {
		t.Fatalf("expected low confidence under base threshold, got %s", confidence)
	}
	confidence, _ = classify(labels, counts, 5, 0.4, map[uint64]float64{3: 0.05})
	if confidence != HighConfidence {
		t.Errorf("majority-label override should flip to high confidence, got %s", confidence)
	}

	// Overrides for non-majority labels don't apply.
	confidence, _ = classify(labels, counts, 5, 0.4, map[uint64]float64{9: 0.05})
	if confidence != LowConfidence {
		t.Errorf("non-majority override should not apply, got %s", confidence)
	}
}
