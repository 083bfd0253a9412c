package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/pubmrf/fileio"
	"github.com/janelia-flyem/pubmrf/fusion"
	"github.com/janelia-flyem/pubmrf/pubmrf"
	"github.com/janelia-flyem/pubmrf/volume"
)

type tomlConfig struct {
	Input   inputConfig
	Output  outputConfig
	Fusion  fusion.Params
	Logging pubmrf.LogConfig
}

// inputConfig names the volumes feeding a run.  Paths ending in ".npy"
// are read as numpy arrays; anything else is read as NIfTI-1.
type inputConfig struct {
	Subject string
	Atlases []string
	Votes   string
}

type outputConfig struct {
	Labels   string
	Template string
	Votes    string
}

func loadConfig(filename string) (*tomlConfig, error) {
	if filename == "" {
		return nil, fmt.Errorf("no TOML configuration file provided")
	}
	tc := tomlConfig{Fusion: fusion.DefaultParams()}
	if _, err := toml.DecodeFile(filename, &tc); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := tc.Fusion.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %v", filename, err)
	}
	if err := tc.convertPathsToAbsolute(filename); err != nil {
		return nil, err
	}
	return &tc, nil
}

// Some settings in the TOML can be given as relative paths.
// This function converts them in-place to absolute paths,
// assuming the given paths were relative to the TOML file's own directory.
func (c *tomlConfig) convertPathsToAbsolute(configPath string) error {
	configDir := filepath.Dir(configPath)

	targets := []*string{
		&c.Input.Subject, &c.Input.Votes,
		&c.Output.Labels, &c.Output.Template, &c.Output.Votes,
		&c.Logging.Logfile,
	}
	for i := range c.Input.Atlases {
		targets = append(targets, &c.Input.Atlases[i])
	}
	for _, target := range targets {
		if *target == "" || filepath.IsAbs(*target) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(configDir, *target))
		if err != nil {
			return fmt.Errorf("could not convert %q to absolute path: %v", *target, err)
		}
		*target = abs
	}
	return nil
}

// loadVotes builds the vote volume, preferring a pre-tallied snapshot
// over re-tallying the atlas label maps.
func (c *tomlConfig) loadVotes() (*volume.VoteVolume, error) {
	if c.Input.Votes != "" {
		return fileio.LoadVotes(c.Input.Votes)
	}
	return c.tallyAtlases()
}

func (c *tomlConfig) tallyAtlases() (*volume.VoteVolume, error) {
	if len(c.Input.Atlases) == 0 {
		return nil, fmt.Errorf("config names no atlas label maps and no vote snapshot")
	}
	timedLog := pubmrf.NewTimeLog()
	atlases := make([]*volume.LabelVolume, len(c.Input.Atlases))
	for i, path := range c.Input.Atlases {
		var err error
		if atlases[i], err = loadLabelFile(path); err != nil {
			return nil, err
		}
	}
	votes, err := volume.TallyAtlases(atlases)
	if err != nil {
		return nil, err
	}
	timedLog.Infof("tallied %d atlases over %s grid", len(atlases), votes.Size())
	return votes, nil
}

func (c *tomlConfig) loadIntensity() (*volume.IntensityVolume, error) {
	if c.Input.Subject == "" {
		return nil, fmt.Errorf("config names no subject image")
	}
	if isNpy(c.Input.Subject) {
		return fileio.LoadIntensityNpy(c.Input.Subject)
	}
	return fileio.LoadIntensity(c.Input.Subject)
}

func (c *tomlConfig) saveLabels(labels *volume.LabelVolume) error {
	if c.Output.Labels == "" {
		return fmt.Errorf("config names no output path for fused labels")
	}
	switch {
	case isNpy(c.Output.Labels):
		return fileio.SaveLabelsNpy(c.Output.Labels, labels)
	case isSnapshot(c.Output.Labels):
		return fileio.SaveLabelsRaw(c.Output.Labels, labels)
	}
	return fileio.SaveLabels(c.Output.Labels, c.Output.Template, labels)
}

func loadLabelFile(path string) (*volume.LabelVolume, error) {
	switch {
	case isNpy(path):
		return fileio.LoadLabelsNpy(path)
	case isSnapshot(path):
		return fileio.LoadLabelsRaw(path)
	}
	return fileio.LoadLabels(path)
}

func isNpy(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".npy")
}

func isSnapshot(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".pmrf")
}
