package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/odemakov/rawtherapee-timelapse/internal/config"
	"github.com/odemakov/rawtherapee-timelapse/internal/easing"
	"github.com/odemakov/rawtherapee-timelapse/internal/engine"
	"github.com/odemakov/rawtherapee-timelapse/internal/logger"
	"github.com/odemakov/rawtherapee-timelapse/internal/resolution"
)

func main() {
	cfg := config.Default()

	dryRunPtr := flag.Bool("dry-run", false, "Preview without creating files")
	backupPtr := flag.Bool("backup", true, "Backup existing settings files before writing")
	forcePtr := flag.Bool("force", false, "Regenerate settings for frames that already have a file")
	driftPtr := flag.String("aspect-drift", cfg.AspectDrift, "Crop position: center, top, bottom, top-to-bottom, bottom-to-top")
	zoomPtr := flag.String("zoom", "", "Zoom preset: in (100-70), out (70-100)")
	zoomLevelPtr := flag.String("zoom-level", cfg.ZoomLevel, "Field of view range in percent, e.g. 100-70 (zoom in) or 80-100 (zoom out)")
	zoomAnchorPtr := flag.String("zoom-anchor", cfg.ZoomAnchor, "Zoom anchor: center, top, bottom")
	zoomEasingPtr := flag.String("zoom-easing", cfg.ZoomEasing, "Zoom easing: "+strings.Join(easing.Names(), ", "))
	outputPtr := flag.String("output", cfg.Output, "Output resolution: "+strings.Join(resolution.Tags(), ", "))
	workersPtr := flag.Int("workers", cfg.Workers, "Parallel frame workers")
	profilePtr := flag.String("profile", "", "YAML profile with run settings")
	statsPtr := flag.Bool("stats", false, "Print a performance report")
	verbosePtr := flag.Bool("v", false, "Verbose logging")

	flag.Usage = usage
	flag.Parse()

	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: expected at most one directory argument")
		flag.Usage()
		os.Exit(1)
	}
	if flag.NArg() == 1 {
		cfg.Directory = flag.Arg(0)
	}

	log, err := logger.New(*verbosePtr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Precedence: defaults < profile < environment < explicit flags.
	if *profilePtr != "" {
		if err := cfg.LoadProfile(*profilePtr); err != nil {
			log.Errorw("profile", "err", err)
			os.Exit(1)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Errorw("environment", "err", err)
		os.Exit(1)
	}

	cfg.DryRun = *dryRunPtr
	cfg.Verbose = *verbosePtr
	setFlags := map[string]func(){
		"backup":       func() { cfg.Backup = *backupPtr },
		"force":        func() { cfg.Force = *forcePtr },
		"aspect-drift": func() { cfg.AspectDrift = *driftPtr },
		"zoom-level":   func() { cfg.ZoomLevel = *zoomLevelPtr },
		"zoom-anchor":  func() { cfg.ZoomAnchor = *zoomAnchorPtr },
		"zoom-easing":  func() { cfg.ZoomEasing = *zoomEasingPtr },
		"output":       func() { cfg.Output = *outputPtr },
		"workers":      func() { cfg.Workers = *workersPtr },
		"stats":        func() { cfg.ShowStats = *statsPtr },
	}
	flag.Visit(func(f *flag.Flag) {
		if apply, ok := setFlags[f.Name]; ok {
			apply()
		}
	})

	if err := cfg.ApplyZoomPreset(*zoomPtr, flagWasSet("zoom-level")); err != nil {
		log.Errorw("zoom preset", "err", err)
		os.Exit(1)
	}

	resolved, err := cfg.Resolve()
	if err != nil {
		log.Errorw("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := engine.New(cfg, resolved, log).Run(ctx)
	if err != nil {
		log.Errorw("run failed", "err", err)
		os.Exit(1)
	}
	if len(result.Failed) > 0 {
		os.Exit(1)
	}
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: rt-timelapse [flags] [directory]

Interpolates RawTherapee .pp3 settings between keyframes for a
timelapse sequence, crops every frame to 16:9 and targets a fixed
output resolution. Keyframes are the .pp3 files already present next
to their RAW frames; every other frame gets a generated profile.

Flags:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  rt-timelapse -dry-run /data/sunrise
  rt-timelapse -aspect-drift bottom-to-top -output 1080p /data/sunrise
  rt-timelapse -zoom-level 100-70 -zoom-anchor top -zoom-easing ease-in-out /data/sunrise
`)
}
