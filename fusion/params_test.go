package fusion

import (
	"strings"
	"testing"
)

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Params)
		errSub string
	}{
		{"negative threshold", func(p *Params) { p.Threshold = -0.1 }, "threshold"},
		{"threshold at one", func(p *Params) { p.Threshold = 1.0 }, "threshold"},
		{"bad label threshold key", func(p *Params) { p.LabelThresholds = map[string]float64{"hippocampus": 0.2} }, "label threshold key"},
		{"bad label threshold value", func(p *Params) { p.LabelThresholds = map[string]float64{"4": 1.5} }, "outside [0, 1)"},
		{"negative patch length", func(p *Params) { p.PatchLength = -1 }, "patch length"},
		{"negative alpha", func(p *Params) { p.Alpha = -2 }, "alpha"},
		{"negative beta", func(p *Params) { p.Beta = -0.5 }, "beta"},
		{"zero variance floor", func(p *Params) { p.VarianceFloor = 0 }, "variance floor"},
		{"zero block size", func(p *Params) { p.BlockSize = 0 }, "block size"},
		{"negative workers", func(p *Params) { p.Workers = -3 }, "worker count"},
		{"negative memory budget", func(p *Params) { p.MemoryBudget = -1 }, "memory budget"},
	}
	for _, test := range tests {
		params := DefaultParams()
		test.mutate(&params)
		err := params.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", test.name)
			continue
		}
		if !strings.Contains(err.Error(), test.errSub) {
			t.Errorf("%s: error %q should mention %q", test.name, err, test.errSub)
		}
	}
}

func TestLabelThresholds(t *testing.T) {
	params := DefaultParams()
	params.Threshold = 0.4
	params.LabelThresholds = map[string]float64{"7": 0.05, "12": 0.9}
	if err := params.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	byLabel := params.thresholds()
	if got := thresholdFor(7, params.Threshold, byLabel); got != 0.05 {
		t.Errorf("threshold for label 7 got %g, expected 0.05", got)
	}
	if got := thresholdFor(12, params.Threshold, byLabel); got != 0.9 {
		t.Errorf("threshold for label 12 got %g, expected 0.9", got)
	}
	if got := thresholdFor(3, params.Threshold, byLabel); got != 0.4 {
		t.Errorf("threshold for unlisted label got %g, expected base 0.4", got)
	}
}
