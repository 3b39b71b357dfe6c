// Package builder assembles one complete settings record per frame
// from the keyframe store, the interpolator and the crop geometry.
package builder

import (
	"fmt"

	"github.com/odemakov/rawtherapee-timelapse/internal/geometry"
	"github.com/odemakov/rawtherapee-timelapse/internal/keyframe"
	"github.com/odemakov/rawtherapee-timelapse/internal/pp3"
	"github.com/odemakov/rawtherapee-timelapse/internal/resolution"
)

// FrameSettings is the immutable per-frame output record. Settings is
// the full profile ready for the writer: interpolated scalars, crop
// and resize applied, everything else inherited from the nearer
// bracketing keyframe.
type FrameSettings struct {
	Index      int
	Scalars    keyframe.Scalars
	Crop       geometry.Rect
	FOV        float64
	Resolution resolution.Resolution
	Settings   *pp3.File
}

// Builder derives FrameSettings for any frame index. Stateless across
// frames apart from the shared immutable inputs, so Build may be
// called from multiple goroutines.
type Builder struct {
	Store      *keyframe.Store
	Geometry   *geometry.Engine
	Resolution resolution.Resolution
	Total      int // sequence frame count N
	SourceW    int
	SourceH    int
}

// Build computes the settings record for one frame.
func (b *Builder) Build(frame int) (*FrameSettings, error) {
	prev, next := b.Store.Bracket(frame)
	scalars := keyframe.Interpolate(prev, next, frame)

	crop, err := b.Geometry.ComputeCrop(frame, b.Total, b.SourceW, b.SourceH)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame, err)
	}

	base := keyframe.Nearer(prev, next, frame)
	settings := base.Settings.Clone()
	if other := otherBracket(base, prev, next); other.Settings != nil {
		settings.MergeMissing(other.Settings)
	}

	settings.SetScalars(scalars.Temperature, scalars.Green, scalars.Compensation)
	settings.SetCrop(crop.X, crop.Y, crop.W, crop.H)
	settings.SetResize(b.Resolution.Width, b.Resolution.Height)
	settings.SetSourceDimensions(b.SourceW, b.SourceH)
	settings.MarkGenerated()

	return &FrameSettings{
		Index:      frame,
		Scalars:    scalars,
		Crop:       crop,
		FOV:        b.Geometry.FOV(frame, b.Total),
		Resolution: b.Resolution,
		Settings:   settings,
	}, nil
}

// otherBracket returns the bracketing keyframe that was not chosen as
// the inheritance base. Fields present only there still carry through.
func otherBracket(base, prev, next keyframe.Keyframe) keyframe.Keyframe {
	if base.Index == prev.Index {
		return next
	}
	return prev
}

// RefreshKeyframe reapplies crop and resize to an authored keyframe
// profile, leaving its scalar values as authored. Keyframes take part
// in the same motion path as generated frames.
func (b *Builder) RefreshKeyframe(kf keyframe.Keyframe) (*FrameSettings, error) {
	crop, err := b.Geometry.ComputeCrop(kf.Index, b.Total, b.SourceW, b.SourceH)
	if err != nil {
		return nil, fmt.Errorf("keyframe %d: %w", kf.Index, err)
	}

	settings := kf.Settings.Clone()
	settings.SetScalars(kf.Temperature, kf.Green, kf.Compensation)
	settings.SetCrop(crop.X, crop.Y, crop.W, crop.H)
	settings.SetResize(b.Resolution.Width, b.Resolution.Height)
	settings.SetSourceDimensions(b.SourceW, b.SourceH)

	return &FrameSettings{
		Index:      kf.Index,
		Scalars:    kf.Scalars,
		Crop:       crop,
		FOV:        b.Geometry.FOV(kf.Index, b.Total),
		Resolution: b.Resolution,
		Settings:   settings,
	}, nil
}
