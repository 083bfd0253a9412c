// Command-line interface to PUB-MRF multi-atlas label fusion.
// Provides the essential commands: tally, fuse, about.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/pubmrf/fileio"
	"github.com/janelia-flyem/pubmrf/fusion"
	"github.com/janelia-flyem/pubmrf/pubmrf"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Overwrite existing output files if true.
	clobber = flag.Bool("clobber", false, "")

	// Profile CPU usage using standard gotest system.
	cpuprofile = flag.String("cpuprofile", "", "")

	// Profile memory usage using standard gotest system.
	memprofile = flag.String("memprofile", "", "")

	// Number of logical CPUs to use for fusion workers.
	useCPU = flag.Int("numcpu", 0, "")
)

const helpMessage = `
pubmrf fuses multi-atlas segmentations into a single label volume

Usage: pubmrf [options] <command>

      -cpuprofile =string   Write CPU profile to this file.
      -memprofile =string   Write memory profile to this file on ctrl-C.
      -numcpu     =number   Number of logical CPUs to use.
      -clobber    (flag)    Overwrite existing output files.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

  For profiling, please refer to this excellent article:
  http://blog.golang.org/2011/06/profiling-go-programs.html

Commands:

	about
	help
	tally <config.toml>   Tally atlas votes and save them as a snapshot.
	fuse  <config.toml>   Fuse atlas segmentations into output labels.

  Commands also accept settings of the form <key>=<value>:

	config=<path>         Alternative to the positional config file path.
	output=<path>         Override the configured output path.
	template=<path>       Override the configured NIfTI header template.
`

var usage = func() {
	fmt.Printf(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}

	if *runVerbose {
		pubmrf.Verbose = true
		pubmrf.SetLogMode(pubmrf.DebugMode)
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	// Determine number of logical CPUs on local machine and unless
	// overridden, use all of them.
	if *useCPU != 0 {
		runtime.GOMAXPROCS(*useCPU)
	} else {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	// Capture ctrl+c and other interrupts, then cancel the run.  Fusion
	// stops between work units, so a second interrupt force-quits.
	ctx, cancel := context.WithCancel(context.Background())
	stopSig := make(chan os.Signal, 1)
	go func() {
		canceled := false
		for sig := range stopSig {
			if canceled {
				os.Exit(1)
			}
			canceled = true
			log.Printf("Stop signal captured: %q.  Canceling run...\n", sig)
			if *memprofile != "" {
				log.Printf("Storing memory profiling to %s...\n", *memprofile)
				f, err := os.Create(*memprofile)
				if err != nil {
					log.Fatal(err)
				}
				pprof.WriteHeapProfile(f)
				f.Close()
			}
			cancel()
		}
	}()
	signal.Notify(stopSig, os.Interrupt, syscall.SIGTERM)

	command := pubmrf.Command(flag.Args())
	if err := DoCommand(ctx, command); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// DoCommand serves as a switchboard for commands.
func DoCommand(ctx context.Context, cmd pubmrf.Command) error {
	if len(cmd) == 0 {
		return fmt.Errorf("blank command!")
	}

	switch cmd.Name() {
	case "fuse":
		return DoFuse(ctx, cmd)
	case "tally":
		return DoTally(ctx, cmd)
	case "about":
		v, err := pubmrf.VersionSemVer()
		if err != nil {
			return err
		}
		fmt.Printf("PUB-MRF label fusion, version %s\n", v)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

func commandConfig(cmd pubmrf.Command) (*tomlConfig, error) {
	configFile := cmd.Argument(1)
	if configFile == "" {
		configFile, _ = cmd.Parameter(pubmrf.KeyConfigFile)
	}
	if configFile == "" {
		return nil, fmt.Errorf("%s command must be given the path to a TOML configuration file", cmd.Name())
	}
	return loadConfig(configFile)
}

func checkClobber(path string) error {
	if *clobber {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("output file %q already exists; use -clobber to overwrite", path)
	}
	return nil
}

// DoFuse performs the "fuse" command, running the full fusion pipeline
// from input volumes to a fused label file.
func DoFuse(ctx context.Context, cmd pubmrf.Command) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	if output, found := cmd.Parameter(pubmrf.KeyOutput); found {
		cfg.Output.Labels = output
	}
	if template, found := cmd.Parameter(pubmrf.KeyTemplate); found {
		cfg.Output.Template = template
	}
	if cfg.Output.Labels == "" {
		return fmt.Errorf("config names no output path for fused labels")
	}
	if err := checkClobber(cfg.Output.Labels); err != nil {
		return err
	}
	cfg.Logging.SetLogger()
	defer pubmrf.LogShutdown()

	votes, err := cfg.loadVotes()
	if err != nil {
		return err
	}
	intensity, err := cfg.loadIntensity()
	if err != nil {
		return err
	}

	result, err := fusion.Fuse(ctx, votes, intensity, cfg.Fusion)
	if err != nil {
		return err
	}
	for i, verr := range result.VoxelErrors {
		if i == 10 {
			pubmrf.Errorf("... %d more voxel errors suppressed\n", len(result.VoxelErrors)-i)
			break
		}
		pubmrf.Errorf("%v\n", verr)
	}
	if err := cfg.saveLabels(result.Labels); err != nil {
		return err
	}

	stats := result.Stats
	fmt.Printf("Fused %s voxels (%s low confidence, %d kept majority labels after errors) in %s.\n",
		humanize.Comma(stats.HighVoxels+stats.LowVoxels), humanize.Comma(stats.LowVoxels),
		stats.Fallbacks, stats.Elapsed)
	fmt.Printf("Wrote fused labels to %s.\n", cfg.Output.Labels)
	return nil
}

// DoTally performs the "tally" command, saving a vote snapshot that
// later fuse runs can reuse.
func DoTally(ctx context.Context, cmd pubmrf.Command) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	if output, found := cmd.Parameter(pubmrf.KeyOutput); found {
		cfg.Output.Votes = output
	}
	if cfg.Output.Votes == "" {
		return fmt.Errorf("config names no output path for the vote snapshot")
	}
	if err := checkClobber(cfg.Output.Votes); err != nil {
		return err
	}
	cfg.Logging.SetLogger()
	defer pubmrf.LogShutdown()
	votes, err := cfg.tallyAtlases()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fileio.SaveVotes(cfg.Output.Votes, votes); err != nil {
		return err
	}
	fmt.Printf("Wrote vote snapshot for %d atlases to %s.\n", votes.NumAtlases(), cfg.Output.Votes)
	return nil
}
