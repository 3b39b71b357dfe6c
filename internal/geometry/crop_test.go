package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odemakov/rawtherapee-timelapse/internal/easing"
)

const (
	srcW = 6000 // 3:2 test frame
	srcH = 4000
)

func mustCrop(t *testing.T, e *Engine, frame, total int) Rect {
	t.Helper()
	r, err := e.ComputeCrop(frame, total, srcW, srcH)
	require.NoError(t, err)
	return r
}

func TestBaseCropFrom3x2(t *testing.T) {
	e := &Engine{Drift: DriftCenter}
	r := mustCrop(t, e, 0, 10)

	assert.Equal(t, Rect{X: 0, Y: 312, W: 6000, H: 3375}, r)
}

func TestBaseCropWiderThan16x9(t *testing.T) {
	e := &Engine{Drift: DriftCenter}
	r, err := e.ComputeCrop(0, 10, 4000, 1000)
	require.NoError(t, err)

	// Height-limited: width comes from the height, snapped so the
	// ratio stays exact in integer pixels.
	assert.Equal(t, 1776, r.W)
	assert.Equal(t, 999, r.H)
	assert.Equal(t, 1112, r.X)
	assert.Equal(t, 0, r.Y)
}

func TestBaseCropAlready16x9(t *testing.T) {
	e := &Engine{Drift: DriftCenter}
	r, err := e.ComputeCrop(0, 10, 1920, 1080)
	require.NoError(t, err)

	assert.Equal(t, Rect{X: 0, Y: 0, W: 1920, H: 1080}, r)
}

func TestDriftStaticModes(t *testing.T) {
	tests := []struct {
		mode  DriftMode
		wantY int
	}{
		{DriftCenter, 312},
		{DriftTop, 0},
		{DriftBottom, 625},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			e := &Engine{Drift: tt.mode}
			for frame := 0; frame < 5; frame++ {
				r := mustCrop(t, e, frame, 5)
				assert.Equal(t, tt.wantY, r.Y, "frame %d", frame)
			}
		})
	}
}

func TestDriftTopToBottomBoundaries(t *testing.T) {
	e := &Engine{Drift: DriftTopToBottom}
	n := 50

	first := mustCrop(t, e, 0, n)
	last := mustCrop(t, e, n-1, n)
	assert.Equal(t, 0, first.Y)
	assert.Equal(t, 625, last.Y)

	prevY := first.Y
	for frame := 1; frame < n; frame++ {
		y := mustCrop(t, e, frame, n).Y
		assert.GreaterOrEqual(t, y, prevY, "frame %d", frame)
		prevY = y
	}
}

func TestDriftBottomToTopMidpoint(t *testing.T) {
	// 3 frames: drift fraction 0, 0.5, 1.
	e := &Engine{Drift: DriftBottomToTop}

	assert.Equal(t, 625, mustCrop(t, e, 0, 3).Y)
	assert.Equal(t, 312, mustCrop(t, e, 1, 3).Y)
	assert.Equal(t, 0, mustCrop(t, e, 2, 3).Y)
}

func TestZoomFOVBoundaries(t *testing.T) {
	for _, name := range easing.Names() {
		curve, err := easing.ForName(name)
		require.NoError(t, err)

		e := &Engine{
			Drift: DriftCenter,
			Zoom:  &Zoom{StartFOV: 80, EndFOV: 100, Anchor: AnchorCenter, Curve: curve},
		}

		assert.Equal(t, 80.0, e.FOV(0, 120), "curve %s start", name)
		assert.Equal(t, 100.0, e.FOV(119, 120), "curve %s end", name)
	}
}

func TestZoomLinearFOVSequence(t *testing.T) {
	// 80-100 over 5 frames: 80, 85, 90, 95, 100.
	e := &Engine{
		Drift: DriftCenter,
		Zoom:  &Zoom{StartFOV: 80, EndFOV: 100, Anchor: AnchorCenter, Curve: easing.Linear},
	}

	want := []float64{80, 85, 90, 95, 100}
	for frame, fov := range want {
		assert.InDelta(t, fov, e.FOV(frame, 5), 1e-9, "frame %d", frame)
	}
}

func TestZoomAnchors(t *testing.T) {
	base := Rect{X: 0, Y: 312, W: 6000, H: 3375}

	tests := []struct {
		anchor Anchor
		wantY  int
	}{
		{AnchorCenter, 649},
		{AnchorTop, 312},
		{AnchorBottom, 987},
	}

	for _, tt := range tests {
		t.Run(string(tt.anchor), func(t *testing.T) {
			e := &Engine{
				Drift: DriftCenter,
				Zoom:  &Zoom{StartFOV: 80, EndFOV: 80, Anchor: tt.anchor, Curve: easing.Linear},
			}
			r := mustCrop(t, e, 0, 10)

			assert.Equal(t, 4800, r.W)
			assert.Equal(t, 2700, r.H)
			assert.Equal(t, 600, r.X)
			assert.Equal(t, tt.wantY, r.Y)

			if tt.anchor == AnchorBottom {
				assert.Equal(t, base.Y+base.H, r.Y+r.H, "bottom edge pinned")
			}
			if tt.anchor == AnchorTop {
				assert.Equal(t, base.Y, r.Y, "top edge pinned")
			}
		})
	}
}

func TestZoomIndependentOfDriftAnchor(t *testing.T) {
	// Drift pins to bottom, zoom anchors at top: the two must combine,
	// not override each other.
	e := &Engine{
		Drift: DriftBottom,
		Zoom:  &Zoom{StartFOV: 80, EndFOV: 80, Anchor: AnchorTop, Curve: easing.Linear},
	}
	r := mustCrop(t, e, 0, 10)

	// Base rect sits at y=625; zoom keeps its top edge there.
	assert.Equal(t, 625, r.Y)
	assert.Equal(t, 4800, r.W)
}

func TestAspectInvariant(t *testing.T) {
	engines := []*Engine{
		{Drift: DriftCenter},
		{Drift: DriftTopToBottom},
		{Drift: DriftBottom, Zoom: &Zoom{StartFOV: 63, EndFOV: 97, Anchor: AnchorBottom, Curve: easing.Smoothstep}},
	}
	sources := [][2]int{{6000, 4000}, {6056, 4032}, {4000, 1000}, {1920, 1080}}

	for _, e := range engines {
		for _, src := range sources {
			for frame := 0; frame < 24; frame++ {
				r, err := e.ComputeCrop(frame, 24, src[0], src[1])
				require.NoError(t, err)
				assert.Equal(t, r.W*9, r.H*16, "drift %s src %v frame %d: %dx%d", e.Drift, src, frame, r.W, r.H)
			}
		}
	}
}

func TestCropStaysInBounds(t *testing.T) {
	e := &Engine{
		Drift: DriftBottomToTop,
		Zoom:  &Zoom{StartFOV: 50, EndFOV: 100, Anchor: AnchorBottom, Curve: easing.Exponential},
	}

	for frame := 0; frame < 30; frame++ {
		r := mustCrop(t, e, frame, 30)
		assert.GreaterOrEqual(t, r.X, 0)
		assert.GreaterOrEqual(t, r.Y, 0)
		assert.LessOrEqual(t, r.X+r.W, srcW)
		assert.LessOrEqual(t, r.Y+r.H, srcH)
	}
}

func TestCropOutOfBoundsFails(t *testing.T) {
	// A FOV above 100 would grow the crop past the source width. That
	// must fail loudly, never clamp.
	e := &Engine{
		Drift: DriftCenter,
		Zoom:  &Zoom{StartFOV: 150, EndFOV: 150, Anchor: AnchorCenter, Curve: easing.Linear},
	}

	_, err := e.ComputeCrop(0, 10, srcW, srcH)
	require.ErrorIs(t, err, ErrCropOutOfBounds)
}

func TestComputeCropBadSource(t *testing.T) {
	e := &Engine{Drift: DriftCenter}
	_, err := e.ComputeCrop(0, 10, 0, 0)
	require.ErrorIs(t, err, ErrCropOutOfBounds)
}

func TestParseDriftMode(t *testing.T) {
	for _, s := range []string{"center", "top", "bottom", "top-to-bottom", "bottom-to-top"} {
		_, err := ParseDriftMode(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseDriftMode("left")
	assert.Error(t, err)
}

func TestParseAnchor(t *testing.T) {
	for _, s := range []string{"center", "top", "bottom"} {
		_, err := ParseAnchor(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseAnchor("corner")
	assert.Error(t, err)
}

func TestSingleFrameSequence(t *testing.T) {
	e := &Engine{
		Drift: DriftTopToBottom,
		Zoom:  &Zoom{StartFOV: 80, EndFOV: 100, Anchor: AnchorCenter, Curve: easing.Linear},
	}

	// total <= 1: progress is 0, so start values apply.
	assert.Equal(t, 80.0, e.FOV(0, 1))
	r := mustCrop(t, e, 0, 1)
	// Drift pins the base rect to the top, zoom then centers within it.
	assert.Equal(t, Rect{X: 600, Y: 337, W: 4800, H: 2700}, r)
}
