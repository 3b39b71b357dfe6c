// Package geometry computes the per-frame 16:9 crop rectangle from the
// combined drift (pan) and zoom (field of view) motion models.
package geometry

import (
	"errors"
	"fmt"

	"github.com/odemakov/rawtherapee-timelapse/internal/easing"
)

// ErrCropOutOfBounds means the requested crop does not fit inside the
// source frame. The engine fails instead of clamping: a silently moved
// crop would break the motion path.
var ErrCropOutOfBounds = errors.New("crop exceeds source bounds")

// Rect is a crop rectangle in source-pixel units.
type Rect struct {
	X, Y, W, H int
}

// DriftMode positions the crop vertically, either statically or
// drifting linearly across the sequence.
type DriftMode string

const (
	DriftCenter      DriftMode = "center"
	DriftTop         DriftMode = "top"
	DriftBottom      DriftMode = "bottom"
	DriftTopToBottom DriftMode = "top-to-bottom"
	DriftBottomToTop DriftMode = "bottom-to-top"
)

// ParseDriftMode validates a drift mode name.
func ParseDriftMode(s string) (DriftMode, error) {
	switch m := DriftMode(s); m {
	case DriftCenter, DriftTop, DriftBottom, DriftTopToBottom, DriftBottomToTop:
		return m, nil
	}
	return "", fmt.Errorf("unknown aspect drift mode %q", s)
}

// Anchor is the crop edge held fixed while zoom is applied.
type Anchor string

const (
	AnchorCenter Anchor = "center"
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
)

// ParseAnchor validates a zoom anchor name.
func ParseAnchor(s string) (Anchor, error) {
	switch a := Anchor(s); a {
	case AnchorCenter, AnchorTop, AnchorBottom:
		return a, nil
	}
	return "", fmt.Errorf("unknown zoom anchor %q", s)
}

// Zoom describes a field-of-view ramp across the sequence. FOV is the
// percentage of the base crop retained: 100 keeps the full view, lower
// values zoom in. The zoom anchor is independent of the drift mode.
type Zoom struct {
	StartFOV float64 // percent, (0,100]
	EndFOV   float64 // percent, (0,100]
	Anchor   Anchor
	Curve    easing.Curve
}

// Engine derives crop rectangles for a fixed source size and motion
// configuration. Zoom nil means constant FOV 100.
type Engine struct {
	Drift DriftMode
	Zoom  *Zoom
}

// FOV returns the field-of-view percentage at frame, applying the
// configured easing. Exact at both ends of the sequence for every
// curve.
func (e *Engine) FOV(frame, total int) float64 {
	if e.Zoom == nil {
		return 100
	}
	d := progress(frame, total)
	// Endpoint exactness must not depend on curve rounding.
	switch d {
	case 0:
		return e.Zoom.StartFOV
	case 1:
		return e.Zoom.EndFOV
	}
	z := e.Zoom.Curve(d)
	return easing.Lerp(e.Zoom.StartFOV, e.Zoom.EndFOV, z)
}

// ComputeCrop produces the crop rect for frame out of total frames in
// a srcW x srcH source. The base 16:9 rect is offset by the drift
// model, then shrunk by the zoom factor about the zoom anchor.
func (e *Engine) ComputeCrop(frame, total, srcW, srcH int) (Rect, error) {
	if srcW <= 0 || srcH <= 0 {
		return Rect{}, fmt.Errorf("%w: source %dx%d", ErrCropOutOfBounds, srcW, srcH)
	}

	d := progress(frame, total)
	r := base16x9(srcW, srcH)
	r.Y = driftOffset(e.Drift, srcH-r.H, d)

	if e.Zoom != nil {
		fov := e.FOV(frame, total)
		r = applyZoom(r, fov/100, e.Zoom.Anchor)
	}

	if err := validate(r, srcW, srcH); err != nil {
		return Rect{}, err
	}
	return r, nil
}

// progress maps a frame index to [0,1] across the sequence.
func progress(frame, total int) float64 {
	if total <= 1 {
		return 0
	}
	d := float64(frame) / float64(total-1)
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

// base16x9 finds the largest 16:9 rect inside the source, horizontally
// centered. The width is snapped to a multiple of 16 so w*9 == h*16
// holds exactly in integer pixels.
func base16x9(srcW, srcH int) Rect {
	var w int
	if srcH < srcW*9/16 {
		// Wider than 16:9, height is the limit.
		w = srcH * 16 / 9
	} else {
		w = srcW
	}
	w -= w % 16
	h := w / 16 * 9
	return Rect{X: (srcW - w) / 2, Y: 0, W: w, H: h}
}

// driftOffset computes the vertical crop position. available is the
// slack between source height and crop height, d the sequence progress.
func driftOffset(mode DriftMode, available int, d float64) int {
	switch mode {
	case DriftTop:
		return 0
	case DriftBottom:
		return available
	case DriftTopToBottom:
		return int(float64(available) * d)
	case DriftBottomToTop:
		return int(float64(available) * (1 - d))
	default: // center
		return available / 2
	}
}

// applyZoom shrinks r by factor s about the anchor. Horizontal
// position is always re-centered; the anchor pins the vertical edge.
func applyZoom(r Rect, s float64, anchor Anchor) Rect {
	w := int(float64(r.W) * s)
	w -= w % 16
	h := w / 16 * 9

	out := Rect{W: w, H: h}
	out.X = r.X + (r.W-w)/2
	switch anchor {
	case AnchorTop:
		out.Y = r.Y
	case AnchorBottom:
		out.Y = r.Y + (r.H - h)
	default: // center
		out.Y = r.Y + (r.H-h)/2
	}
	return out
}

func validate(r Rect, srcW, srcH int) error {
	if r.W <= 0 || r.H <= 0 || r.X < 0 || r.Y < 0 || r.X+r.W > srcW || r.Y+r.H > srcH {
		return fmt.Errorf("%w: rect [%d,%d %dx%d] in source %dx%d",
			ErrCropOutOfBounds, r.X, r.Y, r.W, r.H, srcW, srcH)
	}
	return nil
}
