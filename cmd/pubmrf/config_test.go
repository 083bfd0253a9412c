package main

import (
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/pubmrf/fusion"
)

func TestParseConfig(t *testing.T) {
	cfg, err := loadConfig("../../scripts/config-example.toml")
	if err != nil {
		t.Fatalf("bad TOML configuration: %v\n", err)
	}

	if len(cfg.Input.Atlases) != 3 {
		t.Errorf("expected 3 atlases, got %v\n", cfg.Input.Atlases)
	}
	if filepath.Base(cfg.Input.Subject) != "subject.nii" || !filepath.IsAbs(cfg.Input.Subject) {
		t.Errorf("bad subject path: %s\n", cfg.Input.Subject)
	}

	p := cfg.Fusion
	if p.Threshold != 0.15 || p.PatchLength != 5 || p.Alpha != 1.0 || p.Beta != 0.5 {
		t.Errorf("bad fusion parameter retrieval: %+v\n", p)
	}
	if p.BlockSize != 32 || p.MemoryBudget != 2147483648 || !p.ForegroundOnly {
		t.Errorf("bad fusion parameter retrieval: %+v\n", p)
	}
	if p.LabelThresholds["7"] != 0.05 || p.LabelThresholds["12"] != 0.4 {
		t.Errorf("bad label threshold retrieval: %v\n", p.LabelThresholds)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("example config should validate: %v\n", err)
	}

	// Keys absent from the file keep their defaults.
	if p.VarianceFloor != fusion.DefaultVarianceFloor {
		t.Errorf("expected default variance floor, got %g\n", p.VarianceFloor)
	}

	logCfg := cfg.Logging
	if filepath.Base(logCfg.Logfile) != "pubmrf.log" || logCfg.MaxSize != 500 || logCfg.MaxAge != 30 {
		t.Errorf("bad logging configuration retrieval: %v\n", logCfg)
	}
}

func TestTOMLConfigAbsolutePath(t *testing.T) {
	// Initialize the filepath settings
	var c tomlConfig
	c.Input.Subject = "data/subject.nii"
	c.Input.Atlases = []string{"data/a1.nii", "/tmp/a2.nii"}
	c.Output.Labels = "out/fused.nii"
	c.Logging.Logfile = "./foobar.log"

	// Convert relative paths to absolute
	if err := c.convertPathsToAbsolute("/tmp/pubmrf-configs/myconfig.toml"); err != nil {
		t.Fatalf("convertPathsToAbsolute: %v", err)
	}

	// Checks
	if c.Input.Subject != "/tmp/pubmrf-configs/data/subject.nii" {
		t.Errorf("subject not correctly converted to absolute path: %s", c.Input.Subject)
	}
	if c.Input.Atlases[0] != "/tmp/pubmrf-configs/data/a1.nii" {
		t.Errorf("atlas not correctly converted to absolute path: %s", c.Input.Atlases[0])
	}
	if c.Input.Atlases[1] != "/tmp/a2.nii" {
		t.Errorf("atlas was already absolute and should have been left unchanged: %s", c.Input.Atlases[1])
	}
	if c.Output.Labels != "/tmp/pubmrf-configs/out/fused.nii" {
		t.Errorf("output not correctly converted to absolute path: %s", c.Output.Labels)
	}
	if c.Logging.Logfile != "/tmp/pubmrf-configs/foobar.log" {
		t.Errorf("Logfile not correctly converted to absolute path: %s", c.Logging.Logfile)
	}
	if c.Input.Votes != "" || c.Output.Template != "" {
		t.Errorf("empty paths should stay empty: %+v", c)
	}
}
