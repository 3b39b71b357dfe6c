// Package engine runs a whole timelapse pass: validate the keyframe
// set and configuration up front, then fan the per-frame settings
// computation out over a bounded worker pool.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/odemakov/rawtherapee-timelapse/internal/builder"
	"github.com/odemakov/rawtherapee-timelapse/internal/config"
	"github.com/odemakov/rawtherapee-timelapse/internal/keyframe"
	"github.com/odemakov/rawtherapee-timelapse/internal/sequence"
)

// FrameError is a per-frame write failure. Writes are best-effort:
// one failed file does not stop the remaining frames.
type FrameError struct {
	Frame int
	Path  string
	Err   error
}

// Result summarizes one run.
type Result struct {
	RunID     string
	Created   int
	Refreshed int
	Skipped   int
	Failed    []FrameError
	BackupDir string
	Elapsed   time.Duration
}

// Engine wires the sequence scan, keyframe store, builder and writer
// together for one directory.
type Engine struct {
	cfg config.Config
	res config.Resolved
	log *zap.SugaredLogger
}

// New creates an engine from a resolved configuration.
func New(cfg config.Config, res config.Resolved, log *zap.SugaredLogger) *Engine {
	return &Engine{cfg: cfg, res: res, log: log}
}

// Run executes the pass. Validation failures return an error before
// any frame work starts; per-frame write failures are collected in the
// result instead.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}

	seq, err := sequence.Scan(e.cfg.Directory)
	if err != nil {
		return nil, err
	}

	store, err := keyframe.NewStore(seq.Keyframes)
	if err != nil {
		return nil, err
	}

	srcW, srcH, assumed := seq.SourceDimensions()
	if assumed {
		e.log.Warnw("no usable dimensions in keyframes, using fallback",
			"width", srcW, "height", srcH)
	}

	e.printPlan(seq, store, srcW, srcH)

	if !e.cfg.DryRun && e.cfg.Backup {
		dir, err := seq.Backup()
		if err != nil {
			return nil, err
		}
		result.BackupDir = dir
		if dir != "" {
			e.log.Infow("backed up existing settings", "dir", dir)
		}
	}

	b := &builder.Builder{
		Store:      store,
		Geometry:   e.res.Engine(),
		Resolution: e.res.Resolution,
		Total:      seq.Len(),
		SourceW:    srcW,
		SourceH:    srcH,
	}

	// Keyframes keep their authored scalars but join the motion path:
	// crop and resize are reapplied in place.
	for _, kf := range store.All() {
		fs, err := b.RefreshKeyframe(kf)
		if err != nil {
			return nil, err
		}
		if e.cfg.DryRun {
			continue
		}
		if err := fs.Settings.Save(seq.Frames[kf.Index].SettingsPath); err != nil {
			return nil, fmt.Errorf("refresh keyframe %d: %w", kf.Index, err)
		}
		result.Refreshed++
	}

	created, skipped, failures, reports, err := e.fillFrames(ctx, seq, b)
	if err != nil {
		return nil, err
	}
	result.Created = created
	result.Skipped = skipped
	result.Failed = failures

	for _, line := range reports {
		fmt.Println(line)
	}
	for _, f := range result.Failed {
		e.log.Errorw("write failed", "frame", f.Frame, "path", f.Path, "err", f.Err)
	}

	result.Elapsed = time.Since(start)
	e.printSummary(result)
	return result, nil
}

// fillFrames computes and writes every frame that needs a settings
// file. Frames are independent, so the work runs on a bounded pool;
// cancellation just stops scheduling further frames.
func (e *Engine) fillFrames(ctx context.Context, seq *sequence.Sequence, b *builder.Builder) (created, skipped int, failures []FrameError, reports []string, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.res.Workers)

	var (
		mu           sync.Mutex
		createdCount atomic.Int64
	)

	for _, frame := range seq.Frames {
		if frame.IsKeyframe {
			continue
		}
		if frame.HasSettings && !e.cfg.Force {
			skipped++
			continue
		}
		if ctx.Err() != nil {
			break
		}

		frame := frame
		g.Go(func() error {
			fs, err := b.Build(frame.Index)
			if err != nil {
				// Geometry failures are global, not per-frame I/O: abort.
				return err
			}

			if e.cfg.DryRun {
				mu.Lock()
				reports = append(reports, dryRunLine(frame.SettingsPath, fs))
				mu.Unlock()
				createdCount.Add(1)
				return nil
			}

			if err := fs.Settings.Save(frame.SettingsPath); err != nil {
				mu.Lock()
				failures = append(failures, FrameError{Frame: frame.Index, Path: frame.SettingsPath, Err: err})
				mu.Unlock()
				return nil
			}

			if n := createdCount.Add(1); n%100 == 0 {
				fmt.Printf("   Progress: %d files...\n", n)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, 0, nil, nil, err
	}

	sort.Strings(reports)
	sort.Slice(failures, func(i, j int) bool { return failures[i].Frame < failures[j].Frame })
	return int(createdCount.Load()), skipped, failures, reports, nil
}

func (e *Engine) printPlan(seq *sequence.Sequence, store *keyframe.Store, srcW, srcH int) {
	fmt.Printf("Found %d RAW files, %d keyframes\n", seq.Len(), store.Len())
	fmt.Printf("Image dimensions: %dx%d\n", srcW, srcH)
	fmt.Printf("Output resolution: %dx%d (%s)\n",
		e.res.Resolution.Width, e.res.Resolution.Height, e.res.Resolution.Tag)
	fmt.Printf("Aspect drift mode: %s\n", e.res.Drift)
	if e.res.Zoom != nil {
		fmt.Printf("Zoom: %.0f-%.0f%%, anchor: %s, easing: %s\n",
			e.res.Zoom.StartFOV, e.res.Zoom.EndFOV, e.res.Zoom.Anchor, e.cfg.ZoomEasing)
	}

	fmt.Println("\nKeyframes:")
	for _, kf := range store.All() {
		fmt.Printf("   Frame %4d: T=%d G=%.3f C=%+.2f\n",
			kf.Index, int(kf.Temperature), kf.Green, kf.Compensation)
	}

	if e.cfg.DryRun {
		fmt.Println("\nDry run processing...")
	} else {
		fmt.Println("\nProcessing...")
	}
}

func (e *Engine) printSummary(r *Result) {
	if e.cfg.DryRun {
		fmt.Printf("\nDone! Would create %d settings files (dry run, nothing written)\n", r.Created)
		return
	}
	fmt.Printf("\nDone! Created %d settings files with 16:9 crop\n", r.Created)
	if r.Skipped > 0 {
		fmt.Printf("   Skipped %d existing files (use -force to regenerate)\n", r.Skipped)
	}
	if len(r.Failed) > 0 {
		fmt.Printf("   %d frames failed to write, see log\n", len(r.Failed))
	}
	if e.cfg.ShowStats {
		e.printStats(r)
	}
}

func dryRunLine(path string, fs *builder.FrameSettings) string {
	line := fmt.Sprintf("  [DRY] %s: T=%d G=%.3f C=%+.2f Crop=[%d,%d,%dx%d]",
		path, int(fs.Scalars.Temperature), fs.Scalars.Green, fs.Scalars.Compensation,
		fs.Crop.X, fs.Crop.Y, fs.Crop.W, fs.Crop.H)
	if fs.FOV != 100 {
		line += fmt.Sprintf(" FOV=%.0f%%", fs.FOV)
	}
	return line
}
