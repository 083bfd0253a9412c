package fusion

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"
	"github.com/twinj/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/janelia-flyem/pubmrf/pubmrf"
	"github.com/janelia-flyem/pubmrf/volume"
)

// VoxelError records a per-voxel failure during energy minimization.
// The affected voxel keeps its majority-vote label.
type VoxelError struct {
	Voxel  volume.Point3d
	Reason string
}

func (e VoxelError) Error() string {
	return fmt.Sprintf("voxel %s: %s", e.Voxel, e.Reason)
}

// RunStats summarizes one fusion run.
type RunStats struct {
	RunID      string
	HighVoxels int64
	LowVoxels  int64
	Resolved   int64
	Fallbacks  int64
	Boxes      int

	// PeakCacheBytes is the largest estimate of box cache bytes resident
	// at any one time.
	PeakCacheBytes int64

	Elapsed time.Duration
}

// Result is the output of a fusion run: the fused segmentation plus run
// statistics and any per-voxel failures.
type Result struct {
	Labels      *volume.LabelVolume
	Stats       RunStats
	VoxelErrors []VoxelError
}

// Fuse runs multi-atlas label fusion over the given votes and subject
// intensities.  High-confidence voxels take their majority-vote label;
// low-confidence voxels are resolved by MRF energy minimization, boxed
// and fanned out across a worker pool.  The context cancels the run
// between boxes.
func Fuse(ctx context.Context, votes *volume.VoteVolume, intensity *volume.IntensityVolume, params Params) (*Result, error) {
	timedLog := pubmrf.NewTimeLog()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if votes.Size() != intensity.Size() {
		return nil, fmt.Errorf("intensity volume size %s does not match vote volume size %s",
			intensity.Size(), votes.Size())
	}

	runID := fmt.Sprintf("%x", uuid.NewV4().Bytes())
	start := time.Now()
	if pubmrf.Verbose {
		// size.Of walks both volumes, so only measure when asked.
		pubmrf.Debugf("run %s: %d atlases over %s grid, votes %s + intensity %s resident\n",
			runID, votes.NumAtlases(), votes.Size(),
			humanize.Bytes(uint64(size.Of(votes))), humanize.Bytes(uint64(size.Of(intensity))))
	}

	output, err := volume.NewLabelVolume(votes.Size())
	if err != nil {
		return nil, err
	}

	// Restricting to the padded foreground box never changes results:
	// every skipped voxel is unanimously background, and the fresh output
	// already holds background there.
	region := votes.Bounds()
	if params.ForegroundOnly {
		ext := votes.ForegroundExtents()
		if ext.Empty() {
			pubmrf.Warningf("run %s: every vote is background; returning background labels\n", runID)
			stats := RunStats{RunID: runID, HighVoxels: votes.NumVoxels(), Elapsed: time.Since(start)}
			return &Result{Labels: output, Stats: stats}, nil
		}
		fg := ext.Subvolume()
		pad := params.PatchLength
		region = pubmrf.NewSubvolume(
			fg.StartPoint().AddScalar(-pad),
			fg.Size().AddScalar(2*pad),
		).Clip(votes.Bounds())
	}

	// Majority-vote and confidence pass.  Unanimous voxels dominate most
	// volumes, so they shortcut the full tally.
	byLabel := params.thresholds()
	var low []volume.Point3d
	highCount := votes.NumVoxels() - region.NumVoxels()
	regionEnd := region.EndPoint()
	for z := region.StartPoint()[2]; z <= regionEnd[2]; z++ {
		for y := region.StartPoint()[1]; y <= regionEnd[1]; y++ {
			for x := region.StartPoint()[0]; x <= regionEnd[0]; x++ {
				p := volume.Point3d{x, y, z}
				if label, unanimous := unanimousVote(votes.VotesAt(p)); unanimous {
					output.SetLabel(p, label)
					highCount++
					continue
				}
				labels, counts := votes.TallyAt(p)
				confidence, majority := classify(labels, counts, votes.NumAtlases(), params.Threshold, byLabel)
				output.SetLabel(p, majority)
				if confidence == LowConfidence {
					low = append(low, p)
				} else {
					highCount++
				}
			}
		}
	}
	timedLog.Infof("run %s: classified %s voxels, %s low confidence",
		runID, humanize.Comma(votes.NumVoxels()), humanize.Comma(int64(len(low))))

	if len(low) == 0 {
		pubmrf.Warningf("run %s: no low-confidence voxel found; returning majority-vote labels\n", runID)
		stats := RunStats{RunID: runID, HighVoxels: highCount, Elapsed: time.Since(start)}
		return &Result{Labels: output, Stats: stats}, nil
	}

	// Workers read initial majority labels while resolved labels land in
	// the output, so resolution order can't influence results.
	initial := output.Clone()
	boxes := partitionLow(low, params.BlockSize, params.PatchLength, votes.Bounds())
	res := newResolver(votes, params)

	var sem *semaphore.Weighted
	if params.MemoryBudget > 0 {
		sem = semaphore.NewWeighted(params.MemoryBudget)
	}

	var resolved, fallbacks int64
	var resident, peakResident int64
	var errMu sync.Mutex
	var voxelErrs []VoxelError

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(params.workerCount())
	for _, box := range boxes {
		box := box
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cacheSize := box.cacheBytes()
			weight := cacheSize
			if sem != nil {
				if weight > params.MemoryBudget {
					pubmrf.Warningf("run %s: box %s cache of %s exceeds the %s budget; box runs alone\n",
						runID, box.core, humanize.Bytes(uint64(weight)), humanize.Bytes(uint64(params.MemoryBudget)))
					weight = params.MemoryBudget
				}
				if err := sem.Acquire(gctx, weight); err != nil {
					return err
				}
				defer sem.Release(weight)
			}

			now := atomic.AddInt64(&resident, cacheSize)
			for {
				peak := atomic.LoadInt64(&peakResident)
				if now <= peak || atomic.CompareAndSwapInt64(&peakResident, peak, now) {
					break
				}
			}
			defer atomic.AddInt64(&resident, -cacheSize)

			cache, err := newBoxCache(box.halo, intensity, initial)
			if err != nil {
				return err
			}
			for _, v := range box.low {
				label, err := res.resolveVoxel(cache, v)
				if err != nil {
					atomic.AddInt64(&fallbacks, 1)
					errMu.Lock()
					voxelErrs = append(voxelErrs, VoxelError{Voxel: v, Reason: err.Error()})
					errMu.Unlock()
					continue
				}
				output.SetLabel(v, label)
				atomic.AddInt64(&resolved, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if fallbacks > 0 {
		pubmrf.Warningf("run %s: %d voxels kept their majority-vote label after MRF failures\n", runID, fallbacks)
	}
	stats := RunStats{
		RunID:          runID,
		HighVoxels:     highCount,
		LowVoxels:      int64(len(low)),
		Resolved:       resolved,
		Fallbacks:      fallbacks,
		Boxes:          len(boxes),
		PeakCacheBytes: peakResident,
		Elapsed:        time.Since(start),
	}
	timedLog.Infof("run %s: resolved %d of %d low-confidence voxels across %d boxes",
		runID, resolved, len(low), len(boxes))
	return &Result{Labels: output, Stats: stats, VoxelErrors: voxelErrs}, nil
}

// unanimousVote reports whether every atlas voted the same label.
func unanimousVote(record []uint64) (uint64, bool) {
	first := record[0]
	for _, label := range record[1:] {
		if label != first {
			return 0, false
		}
	}
	return first, true
}
